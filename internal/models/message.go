package models

import (
	"fmt"
	"time"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVideo MessageType = "video"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo:
		return true
	}
	return false
}

type Attachment struct {
	URL      string `bson:"url" json:"url"`
	MimeType string `bson:"mime_type,omitempty" json:"mimeType,omitempty"`
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
}

// Message timestamps are assigned by the server and order the channel timeline.
type Message struct {
	ID          string       `bson:"_id" json:"id"`
	ChannelID   string       `bson:"channel_id" json:"chatId"`
	Content     string       `bson:"content" json:"content"`
	Type        MessageType  `bson:"type" json:"type"`
	Timestamp   time.Time    `bson:"timestamp" json:"timestamp"`
	UserID      string       `bson:"user_id" json:"userId"`
	Attachments []Attachment `bson:"attachments,omitempty" json:"attachments,omitempty"`
	Mentions    []string     `bson:"mentions,omitempty" json:"mentions,omitempty"`
}

func (Message) CollectionName() string { return "messages" }

// Thread marks that a parent message owns a named reply sequence.
type Thread struct {
	ID        string    `bson:"_id" json:"id"`
	ChannelID string    `bson:"channel_id" json:"chatId"`
	MessageID string    `bson:"message_id" json:"messageId"`
	ThreadID  string    `bson:"thread_id" json:"threadId"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

func (Thread) CollectionName() string { return "threads" }

func ThreadKey(messageID, threadID string) string {
	return fmt.Sprintf("%s:%s", messageID, threadID)
}

type ThreadMessage struct {
	Message   `bson:",inline"`
	MessageID string `bson:"message_id" json:"messageId"`
	ThreadID  string `bson:"thread_id" json:"threadId"`
}

func (ThreadMessage) CollectionName() string { return "thread_messages" }
