package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fanverse-service/internal/apperrors"
	"fanverse-service/internal/models"
	"fanverse-service/internal/observability"
	"fanverse-service/internal/repositories"
	"fanverse-service/internal/telemetry"
	"fanverse-service/internal/ws"
)

const defaultMessagePageSize = 50

// MessageHandler manages message endpoints.
type MessageHandler struct {
	conversationRepo repositories.ConversationRepository
	messageRepo      repositories.MessageRepository
	userRepo         repositories.UserRepository
	hub              *ws.Hub
	audit            *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(conversationRepo repositories.ConversationRepository, messageRepo repositories.MessageRepository, userRepo repositories.UserRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		hub:              hub,
		audit:            audit,
	}
}

// List returns a page of a conversation's messages, oldest first, with
// sender display info and a pagination envelope. The id path segment is
// the conversation id.
func (h *MessageHandler) List(c *gin.Context) {
	conversationID, ok := intParam(c, "id")
	if !ok {
		respondError(c, apperrors.Validation("Conversation ID is required"))
		return
	}
	limit := intQuery(c, "limit", defaultMessagePageSize)
	offset := intQuery(c, "offset", 0)

	if _, err := h.conversationRepo.GetConversation(c.Request.Context(), conversationID); err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			respondError(c, apperrors.NotFound("Conversation not found"))
			return
		}
		respondError(c, apperrors.Internal("Failed to retrieve messages", err))
		return
	}

	msgs, total, err := h.messageRepo.ListMessages(c.Request.Context(), conversationID, limit, offset)
	if err != nil {
		respondError(c, apperrors.Internal("Failed to retrieve messages", err))
		return
	}
	if msgs == nil {
		msgs = []models.MessageWithSender{}
	}

	respondData(c, http.StatusOK, gin.H{
		"messages": msgs,
		"pagination": gin.H{
			"total":   total,
			"limit":   limit,
			"offset":  offset,
			"hasMore": offset+limit < total,
		},
	})
}

type sendMessageRequest struct {
	ConversationID int    `json:"conversation_id"`
	SenderID       int    `json:"sender_id"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`
	ClientRef      string `json:"client_ref"`
}

// Send validates and stores a new message, bumps the conversation's
// last-activity timestamp, and broadcasts the confirmed record.
func (h *MessageHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body"))
		return
	}

	if req.ConversationID == 0 || req.SenderID == 0 || req.Content == "" {
		respondError(c, apperrors.Validation("Conversation ID, sender ID, and content are required"))
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(c, apperrors.Validation("Message content cannot be empty"))
		return
	}
	if len([]rune(content)) > models.MaxMessageLength {
		respondError(c, apperrors.Validation("Message content is too long (max 5000 characters)"))
		return
	}
	messageType := req.MessageType
	if messageType == "" {
		messageType = "text"
	}

	conv, err := h.conversationRepo.GetConversation(c.Request.Context(), req.ConversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			respondError(c, apperrors.NotFound("Conversation not found"))
			return
		}
		respondError(c, apperrors.Internal("Failed to send message", err))
		return
	}
	if !conv.IsParticipant(req.SenderID) {
		respondError(c, apperrors.Forbidden("You are not a participant in this conversation"))
		return
	}

	sender, err := h.userRepo.GetActiveUser(c.Request.Context(), req.SenderID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			respondError(c, apperrors.NotFound("Sender not found or inactive"))
			return
		}
		respondError(c, apperrors.Internal("Failed to send message", err))
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), req.ConversationID, req.SenderID, content, messageType)
	if err != nil {
		respondError(c, apperrors.Internal("Failed to send message", err))
		return
	}

	if err := h.conversationRepo.Touch(c.Request.Context(), req.ConversationID); err != nil {
		respondError(c, apperrors.Internal("Failed to send message", err))
		return
	}

	enriched := models.MessageWithSender{
		Message:      msg,
		SenderName:   sender.DisplayName(),
		SenderAvatar: sender.AvatarURL,
	}
	h.hub.BroadcastMessage(req.ConversationID, enriched, req.ClientRef)
	observability.IncMessagesSent()
	h.audit.Emit(c.Request.Context(), "message_sent", fmt.Sprintf("message:%d", msg.ID), "", requestIDFromContext(c), userIDFromContext(c))

	response := gin.H{
		"id":             msg.ID,
		"conversationId": msg.ConversationID,
		"senderId":       msg.SenderID,
		"senderName":     sender.DisplayName(),
		"content":        msg.Content,
		"timestamp":      msg.CreatedAt,
	}
	if req.ClientRef != "" {
		response["client_ref"] = req.ClientRef
	}
	respondData(c, http.StatusCreated, response)
}

type editMessageRequest struct {
	Content   string `json:"content"`
	SenderID  int    `json:"sender_id"`
	ClientRef string `json:"client_ref"`
}

// Edit updates a message's content. A missing message and an ownership
// mismatch are surfaced identically so the API never confirms whether a
// message someone else owns exists.
func (h *MessageHandler) Edit(c *gin.Context) {
	messageID, ok := intParam(c, "id")
	if !ok {
		respondError(c, apperrors.Validation("Invalid message ID"))
		return
	}

	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body"))
		return
	}
	if req.Content == "" || req.SenderID == 0 {
		respondError(c, apperrors.Validation("Content and sender ID are required"))
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(c, apperrors.Validation("Message content cannot be empty"))
		return
	}
	if len([]rune(content)) > models.MaxMessageLength {
		respondError(c, apperrors.Validation("Message content is too long (max 5000 characters)"))
		return
	}

	msg, err := h.messageRepo.UpdateMessage(c.Request.Context(), messageID, req.SenderID, content)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			respondError(c, apperrors.NotFound("Message not found or you do not have permission to edit it"))
			return
		}
		respondError(c, apperrors.Internal("Failed to edit message", err))
		return
	}

	h.hub.BroadcastEdit(msg.ConversationID, msg, req.ClientRef)
	h.audit.Emit(c.Request.Context(), "message_edited", fmt.Sprintf("message:%d", msg.ID), "", requestIDFromContext(c), userIDFromContext(c))
	respondData(c, http.StatusOK, editedMessage{MessageWithSender: msg, ClientRef: req.ClientRef})
}

// editedMessage is the edit response payload. The pending ref comes back
// alongside the confirmed record so the caller can retire its local copy.
type editedMessage struct {
	models.MessageWithSender
	ClientRef string `json:"client_ref,omitempty"`
}

type deleteMessageRequest struct {
	SenderID  int    `json:"sender_id"`
	ClientRef string `json:"client_ref"`
}

// Delete removes a message. Same combined not-found/forbidden semantics as
// Edit.
func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, ok := intParam(c, "id")
	if !ok {
		respondError(c, apperrors.Validation("Invalid message ID"))
		return
	}

	var req deleteMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SenderID == 0 {
		respondError(c, apperrors.Validation("Sender ID is required"))
		return
	}

	msg, err := h.messageRepo.DeleteMessage(c.Request.Context(), messageID, req.SenderID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			respondError(c, apperrors.NotFound("Message not found or you do not have permission to delete it"))
			return
		}
		respondError(c, apperrors.Internal("Failed to delete message", err))
		return
	}

	h.hub.BroadcastDeletion(msg.ConversationID, msg.ID, req.ClientRef)
	h.audit.Emit(c.Request.Context(), "message_deleted", fmt.Sprintf("message:%d", msg.ID), "", requestIDFromContext(c), userIDFromContext(c))

	body := gin.H{"success": true, "message": "Message deleted successfully"}
	if req.ClientRef != "" {
		body["client_ref"] = req.ClientRef
	}
	c.JSON(http.StatusOK, body)
}
