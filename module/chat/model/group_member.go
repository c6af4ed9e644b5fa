package model

import "time"

// GroupMember is one user's membership record in one group.
// Unique key: group_id + user_id.
type GroupMember struct {
	GroupID  int64     `bson:"group_id"`
	UserID   int64     `bson:"user_id"`
	Nickname string    `bson:"nickname"` // in-group nickname, may differ from the global one
	IsOwner  bool      `bson:"is_owner"`
	IsAdmin  bool      `bson:"is_admin"`
	JoinTime time.Time `bson:"join_time"`
}
