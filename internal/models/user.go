package models

import "time"

// User is a platform account. Users are deactivated, never deleted, so
// conversations and messages can keep referencing them.
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	AvatarURL    string    `db:"avatar_url" json:"avatar_url"`
	Gender       string    `db:"gender" json:"gender,omitempty"`
	Age          *int      `db:"age" json:"age,omitempty"`
	Country      string    `db:"country" json:"country,omitempty"`
	Address      string    `db:"address" json:"address,omitempty"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName joins first and last name the way the chat UI shows senders.
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// Preference stores a user's content preferences, one row per user.
type Preference struct {
	UserID       int       `db:"user_id" json:"user_id"`
	Games        string    `db:"games" json:"games"`
	MoviesSeries string    `db:"movies_series" json:"movies_series"`
	Anime        string    `db:"anime" json:"anime"`
	Cartoons     string    `db:"cartoons" json:"cartoons"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
