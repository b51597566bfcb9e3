package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AppointmentVideo    = "video"
	AppointmentInPerson = "in-person"

	AppointmentScheduled = "scheduled"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID primitive.ObjectID `bson:"patientId" json:"patientId"`
	DoctorID  primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	StartTime time.Time          `bson:"startTime" json:"startTime"`
	Type      string             `bson:"type" json:"type"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
