package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"fanverse-service/internal/models"
)

var ErrPreferencesNotFound = errors.New("preferences not found")

// PreferenceRepository stores per-user content preferences.
type PreferenceRepository interface {
	Save(ctx context.Context, pref models.Preference) (models.Preference, error)
	GetForUser(ctx context.Context, userID int) (models.Preference, error)
	ExistsForUser(ctx context.Context, userID int) (bool, error)
}

// PreferenceRepo is a sqlx implementation of PreferenceRepository.
type PreferenceRepo struct {
	db *sqlx.DB
}

// NewPreferenceRepo constructs a PreferenceRepo.
func NewPreferenceRepo(db *sqlx.DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// Save upserts the user's preferences.
func (r *PreferenceRepo) Save(ctx context.Context, pref models.Preference) (models.Preference, error) {
	var saved models.Preference
	err := r.db.QueryRowxContext(ctx, `INSERT INTO preferences (user_id, games, movies_series, anime, cartoons)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id)
        DO UPDATE SET games = EXCLUDED.games, movies_series = EXCLUDED.movies_series,
            anime = EXCLUDED.anime, cartoons = EXCLUDED.cartoons, updated_at = NOW()
        RETURNING user_id, games, movies_series, anime, cartoons, created_at, updated_at`,
		pref.UserID, pref.Games, pref.MoviesSeries, pref.Anime, pref.Cartoons).StructScan(&saved)
	return saved, err
}

// GetForUser fetches the user's preferences.
func (r *PreferenceRepo) GetForUser(ctx context.Context, userID int) (models.Preference, error) {
	var pref models.Preference
	err := r.db.GetContext(ctx, &pref, `SELECT user_id, games, movies_series, anime, cartoons, created_at, updated_at
        FROM preferences WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Preference{}, ErrPreferencesNotFound
	}
	return pref, err
}

// ExistsForUser reports whether the user has saved preferences.
func (r *PreferenceRepo) ExistsForUser(ctx context.Context, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM preferences WHERE user_id=$1)`, userID)
	return exists, err
}
