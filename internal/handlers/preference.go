package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fanverse-service/internal/apperrors"
	"fanverse-service/internal/models"
	"fanverse-service/internal/repositories"
)

// PreferenceHandler serves per-user content preferences.
type PreferenceHandler struct {
	preferenceRepo repositories.PreferenceRepository
}

// NewPreferenceHandler builds a PreferenceHandler.
func NewPreferenceHandler(preferenceRepo repositories.PreferenceRepository) *PreferenceHandler {
	return &PreferenceHandler{preferenceRepo: preferenceRepo}
}

type savePreferencesRequest struct {
	UserID      int `json:"userId"`
	Preferences struct {
		Games        string `json:"games"`
		MoviesSeries string `json:"movies_series"`
		Anime        string `json:"anime"`
		Cartoons     string `json:"cartoons"`
	} `json:"preferences"`
}

// Save upserts the user's preferences.
func (h *PreferenceHandler) Save(c *gin.Context) {
	var req savePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("invalid request body"))
		return
	}
	if req.UserID == 0 {
		respondError(c, apperrors.Validation("userId is required"))
		return
	}

	saved, err := h.preferenceRepo.Save(c.Request.Context(), models.Preference{
		UserID:       req.UserID,
		Games:        req.Preferences.Games,
		MoviesSeries: req.Preferences.MoviesSeries,
		Anime:        req.Preferences.Anime,
		Cartoons:     req.Preferences.Cartoons,
	})
	if err != nil {
		respondError(c, apperrors.Internal("Failed to save preferences", err))
		return
	}
	respondData(c, http.StatusOK, saved)
}

// Get fetches the user's preferences.
func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, ok := intParam(c, "userId")
	if !ok {
		respondError(c, apperrors.Validation("Invalid user ID"))
		return
	}

	pref, err := h.preferenceRepo.GetForUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrPreferencesNotFound) {
			respondError(c, apperrors.NotFound("Preferences not found"))
			return
		}
		respondError(c, apperrors.Internal("Failed to get preferences", err))
		return
	}
	respondData(c, http.StatusOK, pref)
}
