package models

import (
	"fmt"
	"time"
)

type ChannelType string

const (
	ChannelTypeDirect ChannelType = "direct"
	ChannelTypeGroup  ChannelType = "group"
)

func (t ChannelType) Valid() bool {
	return t == ChannelTypeDirect || t == ChannelTypeGroup
}

type Channel struct {
	ID            string      `bson:"_id" json:"id"`
	Name          string      `bson:"name" json:"name"`
	Type          ChannelType `bson:"type" json:"type"`
	Private       bool        `bson:"private" json:"private"`
	ReadOnly      bool        `bson:"read_only" json:"readOnly"`
	CreatedAt     time.Time   `bson:"created_at" json:"createdAt"`
	LastModified  time.Time   `bson:"last_modified" json:"lastModified"`
	LastMessageID string      `bson:"last_message_id,omitempty" json:"lastMessageId,omitempty"`
}

func (Channel) CollectionName() string { return "channels" }

// Member is the per-user state of one channel. LastSeen is the read cursor:
// every message with a timestamp strictly after it is unread, nil means
// nothing has been read yet.
type Member struct {
	ID         string     `bson:"_id" json:"id"`
	ChannelID  string     `bson:"channel_id" json:"channelId"`
	UserID     string     `bson:"user_id" json:"userId"`
	Type       UserType   `bson:"type" json:"type"`
	Active     bool       `bson:"active" json:"active"`
	LastSeen   *time.Time `bson:"last_seen" json:"lastSeen"`
	LastTyping *time.Time `bson:"last_typing,omitempty" json:"lastTyping,omitempty"`
	JoinedAt   time.Time  `bson:"joined_at" json:"joinedAt"`
}

func (Member) CollectionName() string { return "members" }

func MemberID(channelID, userID string) string {
	return fmt.Sprintf("%s:%s", channelID, userID)
}

// ChannelUnread is one channel's contribution to a badge count.
type ChannelUnread struct {
	ChannelID string `json:"chatId"`
	Unread    int64  `json:"unread"`
}
