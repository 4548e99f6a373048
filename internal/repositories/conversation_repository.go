package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"fanverse-service/internal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("user is not a participant")
	ErrSelfConversation     = errors.New("cannot create conversation with yourself")
)

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	Resolve(ctx context.Context, userA int, userB int) (models.Conversation, bool, error)
	GetConversation(ctx context.Context, conversationID int) (models.Conversation, error)
	GetConversationDetail(ctx context.Context, conversationID int) (models.ConversationDetail, error)
	ListForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error)
	SoftDeleteForUser(ctx context.Context, conversationID int, userID int) (bool, error)
	Touch(ctx context.Context, conversationID int) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Resolve returns the single conversation connecting the two users, creating
// it when absent. The pair is stored with the smaller id first; the insert
// tolerates the composite unique constraint so that two concurrent first
// contacts converge on one row. The second return value reports whether this
// call created the row.
func (r *ConversationRepo) Resolve(ctx context.Context, userA int, userB int) (models.Conversation, bool, error) {
	if userA == userB {
		return models.Conversation{}, false, ErrSelfConversation
	}
	user1, user2 := orderedPair(userA, userB)

	const columns = `id, user1_id, user2_id, user1_deleted, user2_deleted, created_at, updated_at`

	var conv models.Conversation
	err := r.db.QueryRowxContext(ctx, `INSERT INTO conversations (user1_id, user2_id) VALUES ($1, $2)
        ON CONFLICT (user1_id, user2_id) DO NOTHING
        RETURNING `+columns, user1, user2).StructScan(&conv)
	if err == nil {
		return conv, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, false, err
	}

	err = r.db.GetContext(ctx, &conv, `SELECT `+columns+` FROM conversations WHERE user1_id=$1 AND user2_id=$2`, user1, user2)
	if err != nil {
		return models.Conversation{}, false, err
	}
	return conv, false, nil
}

// orderedPair returns the two user ids with the smaller first, the order
// the conversations table stores them in. Both argument orders map to the
// same row.
func orderedPair(a, b int) (int, int) {
	if b < a {
		return b, a
	}
	return a, b
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID int) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT id, user1_id, user2_id, user1_deleted, user2_deleted, created_at, updated_at
        FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// GetConversationDetail fetches a conversation with both participants'
// profile fields joined in.
func (r *ConversationRepo) GetConversationDetail(ctx context.Context, conversationID int) (models.ConversationDetail, error) {
	var detail models.ConversationDetail
	err := r.db.GetContext(ctx, &detail, `SELECT
            c.id, c.user1_id, c.user2_id, c.user1_deleted, c.user2_deleted, c.created_at, c.updated_at,
            u1.first_name AS user1_first_name,
            u1.last_name AS user1_last_name,
            u1.avatar_url AS user1_avatar_url,
            u2.first_name AS user2_first_name,
            u2.last_name AS user2_last_name,
            u2.avatar_url AS user2_avatar_url
        FROM conversations c
        JOIN users u1 ON c.user1_id = u1.id
        JOIN users u2 ON c.user2_id = u2.id
        WHERE c.id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ConversationDetail{}, ErrConversationNotFound
	}
	return detail, err
}

// ListForUser returns conversations visible to the user, most recent
// activity first. Conversations the user soft-deleted are filtered at read
// time; the other participant still sees them.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	query := `SELECT
            c.id, c.user1_id, c.user2_id, c.created_at, c.updated_at,
            CASE WHEN c.user1_id = $1 THEN u2.id ELSE u1.id END AS other_user_id,
            CASE WHEN c.user1_id = $1
                THEN CONCAT(COALESCE(u2.first_name, ''), ' ', COALESCE(u2.last_name, ''))
                ELSE CONCAT(COALESCE(u1.first_name, ''), ' ', COALESCE(u1.last_name, ''))
            END AS other_user_name,
            CASE WHEN c.user1_id = $1 THEN COALESCE(u2.avatar_url, '') ELSE COALESCE(u1.avatar_url, '') END AS other_user_avatar,
            lm.content AS last_message,
            lm.created_at AS last_message_timestamp
        FROM conversations c
        JOIN users u1 ON c.user1_id = u1.id
        JOIN users u2 ON c.user2_id = u2.id
        LEFT JOIN LATERAL (
            SELECT m.content, m.created_at
            FROM messages m
            WHERE m.conversation_id = c.id
            ORDER BY m.created_at DESC
            LIMIT 1
        ) lm ON TRUE
        WHERE ((c.user1_id = $1 AND NOT c.user1_deleted)
            OR (c.user2_id = $1 AND NOT c.user2_deleted))
        ORDER BY COALESCE(lm.created_at, c.created_at) DESC`

	var summaries []models.ConversationSummary
	err := r.db.SelectContext(ctx, &summaries, query, userID)
	return summaries, err
}

// SoftDeleteForUser marks the caller's side of the conversation deleted.
// When both sides are marked the row is removed and messages cascade. The
// flag update, re-read and conditional hard delete run in one transaction
// with the row locked, so two concurrent deletes cannot both read stale
// flags. Returns true when the conversation was hard-deleted.
func (r *ConversationRepo) SoftDeleteForUser(ctx context.Context, conversationID int, userID int) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var conv models.Conversation
	err = tx.GetContext(ctx, &conv, `SELECT id, user1_id, user2_id, user1_deleted, user2_deleted, created_at, updated_at
        FROM conversations WHERE id=$1 FOR UPDATE`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrConversationNotFound
	}
	if err != nil {
		return false, err
	}

	var column string
	switch userID {
	case conv.User1ID:
		column = "user1_deleted"
	case conv.User2ID:
		column = "user2_deleted"
	default:
		return false, ErrNotParticipant
	}

	var user1Deleted, user2Deleted bool
	err = tx.QueryRowxContext(ctx, `UPDATE conversations SET `+column+` = TRUE WHERE id=$1
        RETURNING user1_deleted, user2_deleted`, conversationID).Scan(&user1Deleted, &user2Deleted)
	if err != nil {
		return false, err
	}

	removed := user1Deleted && user2Deleted
	if removed {
		if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id=$1`, conversationID); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return removed, nil
}

// Touch bumps the conversation's last-activity timestamp.
func (r *ConversationRepo) Touch(ctx context.Context, conversationID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id=$1`, conversationID)
	return err
}
