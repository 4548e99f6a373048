package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"fanverse-service/internal/apperrors"
	"fanverse-service/internal/models"
	"fanverse-service/internal/observability"
	"fanverse-service/internal/repositories"
	"fanverse-service/internal/telemetry"
	"fanverse-service/internal/ws"
)

// ReactionHandler manages emoji reactions on messages.
type ReactionHandler struct {
	reactionRepo repositories.ReactionRepository
	messageRepo  repositories.MessageRepository
	hub          *ws.Hub
	audit        *telemetry.AuditEmitter
}

// NewReactionHandler builds a ReactionHandler.
func NewReactionHandler(reactionRepo repositories.ReactionRepository, messageRepo repositories.MessageRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *ReactionHandler {
	return &ReactionHandler{
		reactionRepo: reactionRepo,
		messageRepo:  messageRepo,
		hub:          hub,
		audit:        audit,
	}
}

type reactRequest struct {
	UserID    int    `json:"userId"`
	Emoji     string `json:"emoji"`
	ClientRef string `json:"client_ref"`
}

// React adds or replaces the user's reaction on a message. The unique
// (message_id, user_id) key means re-reacting with a different emoji
// overwrites rather than stacks.
func (h *ReactionHandler) React(c *gin.Context) {
	messageID, ok := intParam(c, "id")
	if !ok {
		respondError(c, apperrors.Validation("Invalid message ID"))
		return
	}

	var req reactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body"))
		return
	}
	if req.UserID == 0 || req.Emoji == "" {
		respondError(c, apperrors.Validation("userId and emoji are required"))
		return
	}

	reaction, err := h.reactionRepo.Upsert(c.Request.Context(), messageID, req.UserID, req.Emoji)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			respondError(c, apperrors.NotFound("Message not found"))
			return
		}
		respondError(c, apperrors.Internal("Failed to react to message", err))
		return
	}

	if msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID); err == nil {
		h.hub.BroadcastReaction(msg.ConversationID, reaction, req.ClientRef)
	}
	observability.IncReaction("upsert")
	h.audit.Emit(c.Request.Context(), "reaction_added", fmt.Sprintf("message:%d", messageID), reaction.Emoji, requestIDFromContext(c), userIDFromContext(c))

	respondData(c, http.StatusOK, reaction)
}

// Remove deletes the user's reaction. Removing a reaction that is not there
// still succeeds.
func (h *ReactionHandler) Remove(c *gin.Context) {
	messageID, ok := intParam(c, "id")
	if !ok {
		respondError(c, apperrors.Validation("Invalid message ID"))
		return
	}
	userID, ok := intParam(c, "userId")
	if !ok {
		respondError(c, apperrors.Validation("Invalid user ID"))
		return
	}

	if err := h.reactionRepo.Remove(c.Request.Context(), messageID, userID); err != nil {
		respondError(c, apperrors.Internal("Failed to remove reaction", err))
		return
	}

	if msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID); err == nil {
		h.hub.BroadcastReactionRemoval(msg.ConversationID, messageID, userID, "")
	}
	observability.IncReaction("remove")
	h.audit.Emit(c.Request.Context(), "reaction_removed", fmt.Sprintf("message:%d", messageID), "", requestIDFromContext(c), userIDFromContext(c))

	respondOK(c, "Reaction removed")
}

// List returns all reactions on a message with reactor display info.
func (h *ReactionHandler) List(c *gin.Context) {
	messageID, ok := intParam(c, "id")
	if !ok {
		respondError(c, apperrors.Validation("Invalid message ID"))
		return
	}

	reactions, err := h.reactionRepo.ListForMessage(c.Request.Context(), messageID)
	if err != nil {
		respondError(c, apperrors.Internal("Failed to get reactions", err))
		return
	}
	if reactions == nil {
		reactions = []models.ReactionWithUser{}
	}
	respondData(c, http.StatusOK, reactions)
}
