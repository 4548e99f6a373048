package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"fanverse-service/internal/apperrors"
	"fanverse-service/internal/auth"
	"fanverse-service/internal/repositories"
	"fanverse-service/internal/telemetry"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	userRepo       repositories.UserRepository
	preferenceRepo repositories.PreferenceRepository
	tokens         *auth.Manager
	audit          *telemetry.AuditEmitter
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(userRepo repositories.UserRepository, preferenceRepo repositories.PreferenceRepository, tokens *auth.Manager, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{
		userRepo:       userRepo,
		preferenceRepo: preferenceRepo,
		tokens:         tokens,
		audit:          audit,
	}
}

type registerRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Gender    string `json:"gender"`
	Age       *int   `json:"age"`
	Country   string `json:"country"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
}

// Register creates an account. The username defaults to the email when the
// signup form does not collect one.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(c, apperrors.Validation("Email and password are required"))
		return
	}
	username := req.Username
	if username == "" {
		username = req.Email
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, apperrors.Internal("Registration failed", err))
		return
	}

	user, err := h.userRepo.CreateUser(c.Request.Context(), repositories.CreateUserParams{
		Username:     username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Gender:       req.Gender,
		Age:          req.Age,
		Country:      req.Country,
		Address:      req.Address,
		Phone:        req.Phone,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserExists) {
			respondError(c, apperrors.Conflict("User with this username or email already exists"))
			return
		}
		respondError(c, apperrors.Internal("Registration failed", err))
		return
	}

	h.audit.Emit(c.Request.Context(), "user_registered", fmt.Sprintf("user:%d", user.ID), "", requestIDFromContext(c), nil)
	respondData(c, http.StatusCreated, gin.H{"userId": user.ID})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues an access token. Missing users and
// wrong passwords both come back as invalid credentials.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(c, apperrors.Validation("Email and password are required"))
		return
	}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			respondError(c, apperrors.Unauthorized("Invalid credentials"))
			return
		}
		respondError(c, apperrors.Internal("Login failed", err))
		return
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		respondError(c, apperrors.Unauthorized("Invalid credentials"))
		return
	}

	hasPreferences, err := h.preferenceRepo.ExistsForUser(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, apperrors.Internal("Login failed", err))
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		respondError(c, apperrors.Internal("Login failed", err))
		return
	}

	userID := int64(user.ID)
	h.audit.Emit(c.Request.Context(), "user_logged_in", fmt.Sprintf("user:%d", user.ID), "", requestIDFromContext(c), &userID)

	respondData(c, http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":             user.ID,
			"email":          user.Email,
			"hasPreferences": hasPreferences,
		},
	})
}
