package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/calmana/calmana-api/internal/models"
)

// Appointments is the appointments collection.
type Appointments struct {
	col *mongo.Collection
}

func NewAppointments(db *mongo.Database) *Appointments {
	return &Appointments{col: db.Collection("appointments")}
}

func (a *Appointments) Insert(ctx context.Context, apt *models.Appointment) error {
	_, err := a.col.InsertOne(ctx, apt)
	return err
}

// AppointmentFilter narrows List to one side of the booking. Zero values
// are ignored.
type AppointmentFilter struct {
	PatientID primitive.ObjectID
	DoctorID  primitive.ObjectID
}

// List returns matching appointments sorted by start time.
func (a *Appointments) List(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	filter := bson.M{}
	if !f.PatientID.IsZero() {
		filter["patientId"] = f.PatientID
	}
	if !f.DoctorID.IsZero() {
		filter["doctorId"] = f.DoctorID
	}

	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}})
	cursor, err := a.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	appointments := []models.Appointment{}
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

// Cancel marks the appointment cancelled. ErrNotFound when no such id.
func (a *Appointments) Cancel(ctx context.Context, id primitive.ObjectID) error {
	result, err := a.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.AppointmentCancelled}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
