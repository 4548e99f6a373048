package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"fanverse-service/internal/models"
)

const pqForeignKeyViolation = "23503"

// ReactionRepository manages emoji reactions on messages.
type ReactionRepository interface {
	Upsert(ctx context.Context, messageID int, userID int, emoji string) (models.Reaction, error)
	Remove(ctx context.Context, messageID int, userID int) error
	ListForMessage(ctx context.Context, messageID int) ([]models.ReactionWithUser, error)
}

// ReactionRepo is a sqlx-backed repository.
type ReactionRepo struct {
	db *sqlx.DB
}

// NewReactionRepo constructs ReactionRepo.
func NewReactionRepo(db *sqlx.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

// Upsert inserts or replaces the user's reaction on a message. The unique
// (message_id, user_id) key guarantees at most one reaction per user per
// message; re-reacting overwrites the emoji and timestamp. Reacting to a
// missing message surfaces as ErrMessageNotFound via the FK violation.
func (r *ReactionRepo) Upsert(ctx context.Context, messageID int, userID int, emoji string) (models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.QueryRowxContext(ctx, `INSERT INTO message_reactions (message_id, user_id, emoji)
        VALUES ($1, $2, $3)
        ON CONFLICT (message_id, user_id)
        DO UPDATE SET emoji = EXCLUDED.emoji, created_at = NOW()
        RETURNING id, message_id, user_id, emoji, created_at`,
		messageID, userID, emoji).StructScan(&reaction)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
		return models.Reaction{}, ErrMessageNotFound
	}
	return reaction, err
}

// Remove deletes the user's reaction if present. Removing a reaction that
// does not exist is not an error.
func (r *ReactionRepo) Remove(ctx context.Context, messageID int, userID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM message_reactions WHERE message_id=$1 AND user_id=$2`, messageID, userID)
	return err
}

// ListForMessage returns all reactions on a message joined with reactor
// display fields.
func (r *ReactionRepo) ListForMessage(ctx context.Context, messageID int) ([]models.ReactionWithUser, error) {
	var reactions []models.ReactionWithUser
	err := r.db.SelectContext(ctx, &reactions, `SELECT
            r.id, r.message_id, r.user_id, r.emoji, r.created_at,
            u.first_name, u.last_name, COALESCE(u.avatar_url, '') AS avatar_url
        FROM message_reactions r
        JOIN users u ON r.user_id = u.id
        WHERE r.message_id = $1`, messageID)
	return reactions, err
}
