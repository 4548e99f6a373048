package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fanverse-service/internal/apperrors"
	"fanverse-service/internal/auth"
	"fanverse-service/internal/models"
	"fanverse-service/internal/repositories"
)

const defaultUserPageSize = 50

// UserHandler serves the user directory.
type UserHandler struct {
	userRepo repositories.UserRepository
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// List returns active users, optionally filtered by a search term matching
// username, email or name.
func (h *UserHandler) List(c *gin.Context) {
	search := c.Query("search")
	limit := intQuery(c, "limit", defaultUserPageSize)
	offset := intQuery(c, "offset", 0)

	users, total, err := h.userRepo.ListUsers(c.Request.Context(), search, limit, offset)
	if err != nil {
		respondError(c, apperrors.Internal("Failed to retrieve users", err))
		return
	}
	if users == nil {
		users = []models.User{}
	}

	respondData(c, http.StatusOK, gin.H{
		"users": users,
		"pagination": gin.H{
			"total":   total,
			"limit":   limit,
			"offset":  offset,
			"hasMore": offset+limit < total,
		},
	})
}

// Get fetches one active user by id.
func (h *UserHandler) Get(c *gin.Context) {
	userID, ok := intParam(c, "userId")
	if !ok {
		respondError(c, apperrors.Validation("User ID is required"))
		return
	}

	user, err := h.userRepo.GetActiveUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			respondError(c, apperrors.NotFound("User not found"))
			return
		}
		respondError(c, apperrors.Internal("Failed to retrieve user", err))
		return
	}
	respondData(c, http.StatusOK, user)
}

type createUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url"`
}

// Create inserts a new user. Duplicate username or email is a conflict.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body"))
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondError(c, apperrors.Validation("Username, email, and password are required"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, apperrors.Internal("Failed to create user", err))
		return
	}

	user, err := h.userRepo.CreateUser(c.Request.Context(), repositories.CreateUserParams{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		AvatarURL:    req.AvatarURL,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserExists) {
			respondError(c, apperrors.Conflict("User with this username or email already exists"))
			return
		}
		respondError(c, apperrors.Internal("Failed to create user", err))
		return
	}
	respondData(c, http.StatusCreated, user)
}
