package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"fanverse-service/internal/models"
)

// ErrMessageNotFound is returned when a message does not exist or the caller
// is not its sender. The two cases are deliberately indistinguishable so the
// API does not leak message existence to non-owners.
var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for conversation messages.
type MessageRepository interface {
	ListMessages(ctx context.Context, conversationID int, limit int, offset int) ([]models.MessageWithSender, int, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	CreateMessage(ctx context.Context, conversationID int, senderID int, content string, messageType string) (models.Message, error)
	UpdateMessage(ctx context.Context, messageID int, senderID int, content string) (models.MessageWithSender, error)
	DeleteMessage(ctx context.Context, messageID int, senderID int) (models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `m.id, m.conversation_id, m.sender_id, m.content, m.message_type, m.is_edited, m.created_at, m.updated_at`

// ListMessages returns a page of messages ordered oldest first, each joined
// with sender display fields, plus the total count for pagination.
func (r *MessageRepo) ListMessages(ctx context.Context, conversationID int, limit int, offset int) ([]models.MessageWithSender, int, error) {
	query := `SELECT ` + messageColumns + `,
            CONCAT(u.first_name, ' ', u.last_name) AS sender_name,
            COALESCE(u.avatar_url, '') AS sender_avatar
        FROM messages m
        JOIN users u ON m.sender_id = u.id
        WHERE m.conversation_id = $1
        ORDER BY m.created_at ASC
        LIMIT $2 OFFSET $3`

	var msgs []models.MessageWithSender
	if err := r.db.SelectContext(ctx, &msgs, query, conversationID, limit, offset); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM messages WHERE conversation_id=$1`, conversationID); err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT id, conversation_id, sender_id, content, message_type, is_edited, created_at, updated_at
        FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// CreateMessage stores a message in a conversation.
func (r *MessageRepo) CreateMessage(ctx context.Context, conversationID int, senderID int, content string, messageType string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (conversation_id, sender_id, content, message_type)
        VALUES ($1, $2, $3, $4)
        RETURNING id, conversation_id, sender_id, content, message_type, is_edited, created_at, updated_at`,
		conversationID, senderID, content, messageType).StructScan(&msg)
	return msg, err
}

// UpdateMessage edits a message's content. The sender filter is part of the
// statement: a missing message and a sender mismatch both surface as
// ErrMessageNotFound.
func (r *MessageRepo) UpdateMessage(ctx context.Context, messageID int, senderID int, content string) (models.MessageWithSender, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages
        SET content = $1, is_edited = TRUE, updated_at = NOW()
        WHERE id = $2 AND sender_id = $3`, content, messageID, senderID)
	if err != nil {
		return models.MessageWithSender{}, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return models.MessageWithSender{}, err
	}
	if count == 0 {
		return models.MessageWithSender{}, ErrMessageNotFound
	}

	var msg models.MessageWithSender
	err = r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+`,
            CONCAT(u.first_name, ' ', u.last_name) AS sender_name,
            COALESCE(u.avatar_url, '') AS sender_avatar
        FROM messages m
        JOIN users u ON m.sender_id = u.id
        WHERE m.id = $1`, messageID)
	return msg, err
}

// DeleteMessage removes a message. Same combined not-found/forbidden
// semantics as UpdateMessage.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID int, senderID int) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `DELETE FROM messages WHERE id=$1 AND sender_id=$2
        RETURNING id, conversation_id, sender_id, content, message_type, is_edited, created_at, updated_at`,
		messageID, senderID).StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}
