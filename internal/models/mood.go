package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MoodHappy   = "happy"
	MoodNeutral = "neutral"
	MoodSad     = "sad"
)

// ValidMood reports whether mood is one of the tracker values.
func ValidMood(mood string) bool {
	return mood == MoodHappy || mood == MoodNeutral || mood == MoodSad
}

type MoodEntry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Mood       string             `bson:"mood" json:"mood"`
	Note       string             `bson:"note,omitempty" json:"note,omitempty"`
	RecordedAt time.Time          `bson:"recordedAt" json:"recordedAt"`
}
