package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/calmana/calmana-api/internal/models"
)

// Accounts is the users collection.
type Accounts struct {
	col *mongo.Collection
}

func NewAccounts(db *mongo.Database) *Accounts {
	return &Accounts{col: db.Collection("users")}
}

// EnsureIndexes creates the unique index on email. Must run before the
// service starts taking traffic; the find-or-create race policy depends
// on the index rejecting the second concurrent insert.
func (a *Accounts) EnsureIndexes(ctx context.Context) error {
	_, err := a.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (a *Accounts) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := a.col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *Accounts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := a.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *Accounts) Insert(ctx context.Context, user *models.User) error {
	_, err := a.col.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	return err
}
