package service

import (
	"context"

	"EasyChat/module/chat/model"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const collGroupMembers = "group_members"

// GroupMembership answers the two questions fan-out needs: who is in a
// group, and is this sender still a member.
type GroupMembership struct {
	db *mongo.Database
}

func NewGroupMembership(db *mongo.Database) *GroupMembership {
	return &GroupMembership{db: db}
}

// ListMembers returns the current member ids of the group.
func (m *GroupMembership) ListMembers(ctx context.Context, groupID int64) ([]int64, error) {
	cur, err := m.db.Collection(collGroupMembers).Find(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return nil, errors.Wrapf(err, "list members of group %d", groupID)
	}
	var members []model.GroupMember
	if err := cur.All(ctx, &members); err != nil {
		return nil, errors.Wrap(err, "decode group members")
	}
	out := make([]int64, 0, len(members))
	for _, gm := range members {
		out = append(out, gm.UserID)
	}
	return out, nil
}

// IsMember reports whether the user currently belongs to the group.
func (m *GroupMembership) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	err := m.db.Collection(collGroupMembers).
		FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "membership check group %d user %d", groupID, userID)
	}
	return true, nil
}
