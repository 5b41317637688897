package models

import "time"

type UserType string

const (
	UserTypeUser  UserType = "user"
	UserTypeAdmin UserType = "admin"
	UserTypeBot   UserType = "bot"
)

// User is keyed by the identity provider's uid. Tokens holds the device
// tokens currently registered to the user; a token lives on one user at most.
type User struct {
	ID          string    `bson:"_id" json:"uid"`
	DisplayName string    `bson:"display_name" json:"displayName"`
	Type        UserType  `bson:"type" json:"type"`
	Tokens      []string  `bson:"tokens" json:"tokens"`
	Channels    []string  `bson:"channels" json:"channels"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

func (User) CollectionName() string { return "users" }
