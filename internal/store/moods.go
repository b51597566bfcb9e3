package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/calmana/calmana-api/internal/models"
)

// Moods is the mood entries collection.
type Moods struct {
	col *mongo.Collection
}

func NewMoods(db *mongo.Database) *Moods {
	return &Moods{col: db.Collection("moods")}
}

func (m *Moods) Insert(ctx context.Context, entry *models.MoodEntry) error {
	_, err := m.col.InsertOne(ctx, entry)
	return err
}

// ListByUser returns the user's mood entries, newest first.
func (m *Moods) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.MoodEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recordedAt", Value: -1}})
	cursor, err := m.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	entries := []models.MoodEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
