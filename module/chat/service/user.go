package service

import (
	"context"
	"time"

	"EasyChat/module/chat/model"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)


// UserService covers the profile reads and the bootstrap upsert used by
// the login endpoint. Full user CRUD lives in the surrounding system.
type UserService struct {
	db *mongo.Database
}

func NewUserService(db *mongo.Database) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Get(ctx context.Context, userID int64) (*model.User, error) {
	var u model.User
	err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"_id": userID}).Decode(&u)
	if err != nil {
		return nil, errors.Wrapf(err, "load user %d", userID)
	}
	return &u, nil
}

// Upsert creates or refreshes the display profile for a user id.
func (s *UserService) Upsert(ctx context.Context, userID int64, nickname, avatarURL string) error {
	update := bson.M{
		"$set":         bson.M{"nickname": nickname, "avatar_url": avatarURL},
		"$setOnInsert": bson.M{"created_at": time.Now()},
	}
	_, err := s.db.Collection(collUsers).UpdateOne(
		ctx,
		bson.M{"_id": userID},
		update,
		options.Update().SetUpsert(true),
	)
	return errors.Wrapf(err, "upsert user %d", userID)
}

