package models

import "time"

// MaxMessageLength caps message content after trimming.
const MaxMessageLength = 5000

// Message is a single chat message inside a conversation.
type Message struct {
	ID             int       `db:"id" json:"id"`
	ConversationID int       `db:"conversation_id" json:"conversation_id"`
	SenderID       int       `db:"sender_id" json:"sender_id"`
	Content        string    `db:"content" json:"content"`
	MessageType    string    `db:"message_type" json:"message_type"`
	IsEdited       bool      `db:"is_edited" json:"is_edited"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// MessageWithSender enriches a message with the sender's display fields.
type MessageWithSender struct {
	Message
	SenderName   string `db:"sender_name" json:"sender_name"`
	SenderAvatar string `db:"sender_avatar" json:"sender_avatar"`
}

// Reaction is an emoji reaction, at most one per user per message.
type Reaction struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"message_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReactionWithUser enriches a reaction with the reactor's display fields.
type ReactionWithUser struct {
	Reaction
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	AvatarURL string `db:"avatar_url" json:"avatar_url"`
}

// ConversationEvent is broadcast over the conversation websocket stream.
// ClientRef carries the sender's optimistic-update reference, when supplied,
// so clients can swap their pending entry for the confirmed record.
type ConversationEvent struct {
	Type      string             `json:"type"`
	Message   *MessageWithSender `json:"message,omitempty"`
	MessageID int                `json:"message_id,omitempty"`
	Reaction  *Reaction          `json:"reaction,omitempty"`
	UserID    int                `json:"user_id,omitempty"`
	ClientRef string             `json:"client_ref,omitempty"`
}
