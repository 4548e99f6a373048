package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"fanverse-service/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

const pqUniqueViolation = "23505"

// CreateUserParams carries the fields accepted at registration.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	AvatarURL    string
	Gender       string
	Age          *int
	Country      string
	Address      string
	Phone        string
}

// UserRepository abstracts user persistence.
type UserRepository interface {
	GetActiveUser(ctx context.Context, userID int) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	CountActive(ctx context.Context, userA int, userB int) (int, error)
	ListUsers(ctx context.Context, search string, limit int, offset int) ([]models.User, int, error)
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, avatar_url,
    gender, age, country, address, phone, is_active, created_at, updated_at`

// GetActiveUser fetches an active user by id. Inactive users are treated as
// missing.
func (r *UserRepo) GetActiveUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1 AND is_active = TRUE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByEmail fetches a user by email regardless of active flag. Used by
// login, which reports invalid credentials rather than missing users.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// CountActive reports how many of the two user ids belong to active users.
func (r *UserRepo) CountActive(ctx context.Context, userA int, userB int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE id IN ($1, $2) AND is_active = TRUE`, userA, userB)
	return count, err
}

// ListUsers returns active users matching the search term, with the total
// count for pagination. An empty search matches everyone.
func (r *UserRepo) ListUsers(ctx context.Context, search string, limit int, offset int) ([]models.User, int, error) {
	where := `WHERE is_active = TRUE`
	args := []interface{}{}
	if search != "" {
		where += ` AND (username ILIKE $1 OR email ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1
            OR CONCAT(first_name, ' ', last_name) ILIKE $1)`
		args = append(args, "%"+search+"%")
	}

	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY username ASC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)+1, len(args)+2)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, append(args, limit, offset)...); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users `+where, args...); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// CreateUser inserts a new user. A duplicate username or email surfaces as
// ErrUserExists via the unique constraint.
func (r *UserRepo) CreateUser(ctx context.Context, params CreateUserParams) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `INSERT INTO users
        (username, email, password_hash, first_name, last_name, avatar_url, gender, age, country, address, phone)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING `+userColumns,
		params.Username, params.Email, params.PasswordHash, params.FirstName, params.LastName,
		params.AvatarURL, params.Gender, params.Age, params.Country, params.Address, params.Phone).
		StructScan(&user)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return models.User{}, ErrUserExists
	}
	return user, err
}
