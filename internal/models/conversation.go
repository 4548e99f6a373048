package models

import "time"

// Conversation is a private conversation between exactly two users. The pair
// is stored canonically with user1_id < user2_id, which is what keeps the
// unordered pair unique.
type Conversation struct {
	ID           int       `db:"id" json:"id"`
	User1ID      int       `db:"user1_id" json:"user1_id"`
	User2ID      int       `db:"user2_id" json:"user2_id"`
	User1Deleted bool      `db:"user1_deleted" json:"user1_deleted"`
	User2Deleted bool      `db:"user2_deleted" json:"user2_deleted"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ConversationDetail is a conversation joined with both participants'
// profile fields.
type ConversationDetail struct {
	Conversation
	User1FirstName string `db:"user1_first_name" json:"user1_first_name"`
	User1LastName  string `db:"user1_last_name" json:"user1_last_name"`
	User1AvatarURL string `db:"user1_avatar_url" json:"user1_avatar_url"`
	User2FirstName string `db:"user2_first_name" json:"user2_first_name"`
	User2LastName  string `db:"user2_last_name" json:"user2_last_name"`
	User2AvatarURL string `db:"user2_avatar_url" json:"user2_avatar_url"`
}

// ConversationSummary is the per-user listing view: the other participant's
// identity plus the most recent message, if any.
type ConversationSummary struct {
	ID                   int        `db:"id" json:"id"`
	User1ID              int        `db:"user1_id" json:"user1_id"`
	User2ID              int        `db:"user2_id" json:"user2_id"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
	OtherUserID          int        `db:"other_user_id" json:"other_user_id"`
	OtherUserName        string     `db:"other_user_name" json:"other_user_name"`
	OtherUserAvatar      string     `db:"other_user_avatar" json:"other_user_avatar"`
	LastMessage          *string    `db:"last_message" json:"last_message"`
	LastMessageTimestamp *time.Time `db:"last_message_timestamp" json:"last_message_timestamp"`
}

// IsParticipant reports whether the user is one of the two participants.
func (c Conversation) IsParticipant(userID int) bool {
	return c.User1ID == userID || c.User2ID == userID
}
