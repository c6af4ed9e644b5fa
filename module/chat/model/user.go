package model

import "time"

// User holds the profile fields the delivery path needs; full profile
// CRUD lives elsewhere.
type User struct {
	ID        int64     `bson:"_id"`
	Nickname  string    `bson:"nickname"`
	AvatarURL string    `bson:"avatar_url"`
	CreatedAt time.Time `bson:"created_at"`
}
