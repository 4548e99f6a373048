package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fanverse-service/internal/apperrors"
	"fanverse-service/internal/models"
	"fanverse-service/internal/repositories"
	"fanverse-service/internal/telemetry"
)

// ConversationHandler manages conversation endpoints.
type ConversationHandler struct {
	conversationRepo repositories.ConversationRepository
	userRepo         repositories.UserRepository
	audit            *telemetry.AuditEmitter
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(conversationRepo repositories.ConversationRepository, userRepo repositories.UserRepository, audit *telemetry.AuditEmitter) *ConversationHandler {
	return &ConversationHandler{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		audit:            audit,
	}
}

type resolveConversationRequest struct {
	User1ID      int   `json:"user1_id"`
	User2ID      int   `json:"user2_id"`
	Participants []int `json:"participants"`
}

func (r resolveConversationRequest) pair() (int, int) {
	if len(r.Participants) == 2 {
		return r.Participants[0], r.Participants[1]
	}
	return r.User1ID, r.User2ID
}

// Resolve returns the single conversation between two users, creating it on
// first contact.
func (h *ConversationHandler) Resolve(c *gin.Context) {
	var req resolveConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body"))
		return
	}

	userA, userB := req.pair()
	if userA == 0 || userB == 0 {
		respondError(c, apperrors.Validation("Both user1_id and user2_id are required"))
		return
	}
	if userA == userB {
		respondError(c, apperrors.Validation("Cannot create conversation with yourself"))
		return
	}

	activeCount, err := h.userRepo.CountActive(c.Request.Context(), userA, userB)
	if err != nil {
		respondError(c, apperrors.Internal("Failed to create or retrieve conversation", err))
		return
	}
	if activeCount != 2 {
		respondError(c, apperrors.NotFound("One or both users not found or inactive"))
		return
	}

	conv, isNew, err := h.conversationRepo.Resolve(c.Request.Context(), userA, userB)
	if err != nil {
		respondError(c, apperrors.Internal("Failed to create or retrieve conversation", err))
		return
	}

	detail, err := h.conversationRepo.GetConversationDetail(c.Request.Context(), conv.ID)
	if err != nil {
		respondError(c, apperrors.Internal("Failed to create or retrieve conversation", err))
		return
	}

	if isNew {
		h.audit.Emit(c.Request.Context(), "conversation_created", fmt.Sprintf("conversation:%d", conv.ID), "", requestIDFromContext(c), userIDFromContext(c))
	}

	type conversationResponse struct {
		models.ConversationDetail
		Participants []int `json:"participants"`
	}
	respondData(c, http.StatusOK, gin.H{
		"conversation": conversationResponse{
			ConversationDetail: detail,
			Participants:       []int{conv.User1ID, conv.User2ID},
		},
		"isNew": isNew,
	})
}

// GetDispatch routes GET /conversations/:userId and
// GET /conversations/detail/:conversationId. The two share a prefix the
// router cannot split between a static segment and a wildcard, so the
// split happens here.
func (h *ConversationHandler) GetDispatch(c *gin.Context) {
	parts := strings.Split(strings.Trim(c.Param("rest"), "/"), "/")
	switch {
	case len(parts) == 2 && parts[0] == "detail":
		c.Params = append(c.Params, gin.Param{Key: "conversationId", Value: parts[1]})
		h.Detail(c)
	case len(parts) == 1 && parts[0] != "":
		c.Params = append(c.Params, gin.Param{Key: "userId", Value: parts[0]})
		h.ListForUser(c)
	default:
		respondError(c, apperrors.NotFound("Endpoint not found"))
	}
}

// ListForUser returns the conversations visible to a user, excluding the
// ones that user soft-deleted.
func (h *ConversationHandler) ListForUser(c *gin.Context) {
	userID, ok := intParam(c, "userId")
	if !ok {
		respondError(c, apperrors.Validation("Invalid user ID"))
		return
	}

	summaries, err := h.conversationRepo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, apperrors.Internal("Failed to retrieve conversations", err))
		return
	}
	if summaries == nil {
		summaries = []models.ConversationSummary{}
	}
	respondData(c, http.StatusOK, summaries)
}

// Detail fetches one conversation with both participants' profile fields.
func (h *ConversationHandler) Detail(c *gin.Context) {
	conversationID, ok := intParam(c, "conversationId")
	if !ok {
		respondError(c, apperrors.Validation("Conversation ID is required"))
		return
	}

	detail, err := h.conversationRepo.GetConversationDetail(c.Request.Context(), conversationID)
	if errors.Is(err, repositories.ErrConversationNotFound) {
		respondError(c, apperrors.NotFound("Conversation not found"))
		return
	}
	if err != nil {
		respondError(c, apperrors.Internal("Failed to retrieve conversation", err))
		return
	}
	respondData(c, http.StatusOK, detail)
}

// DeleteParticipant marks the caller's side of the conversation deleted.
// Once both sides are marked, the row and its messages are gone for good.
func (h *ConversationHandler) DeleteParticipant(c *gin.Context) {
	conversationID, ok := intParam(c, "id")
	if !ok {
		respondError(c, apperrors.Validation("Invalid conversation ID"))
		return
	}
	userID, ok := intParam(c, "userId")
	if !ok {
		respondError(c, apperrors.Validation("Invalid user ID"))
		return
	}

	removed, err := h.conversationRepo.SoftDeleteForUser(c.Request.Context(), conversationID, userID)
	switch {
	case errors.Is(err, repositories.ErrConversationNotFound):
		respondError(c, apperrors.NotFound("Conversation not found"))
		return
	case errors.Is(err, repositories.ErrNotParticipant):
		respondError(c, apperrors.Forbidden("User not part of this conversation"))
		return
	case err != nil:
		respondError(c, apperrors.Internal("Failed to delete user from conversation", err))
		return
	}

	action := "conversation_soft_deleted"
	if removed {
		action = "conversation_hard_deleted"
	}
	h.audit.Emit(c.Request.Context(), action, fmt.Sprintf("conversation:%d", conversationID), "", requestIDFromContext(c), userIDFromContext(c))

	respondData(c, http.StatusOK, gin.H{"removed": removed})
}
