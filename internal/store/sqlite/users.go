package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/platefulapp/plateful-server/internal/domain"
	"github.com/platefulapp/plateful-server/internal/store"
)

// userRow mirrors the users table. Emails are stored twice: verbatim for
// display and lowercased for the case-insensitive uniqueness constraint.
type userRow struct {
	id                 string
	createdAt          string
	updatedAt          string
	email              string
	emailLower         string
	name               string
	passwordHash       string
	isActive           int
	isStaff            int
	isSuperuser        int
	verificationToken  sql.NullString
	verificationSentAt sql.NullString
	lastLoginAt        sql.NullString
}

const userColumns = `id, created_at, updated_at, email, email_lower, name,
	password_hash, is_active, is_staff, is_superuser,
	verification_token, verification_sent_at, last_login_at`

func (r *userRow) scan(s interface{ Scan(dest ...any) error }) error {
	return s.Scan(&r.id, &r.createdAt, &r.updatedAt, &r.email, &r.emailLower,
		&r.name, &r.passwordHash, &r.isActive, &r.isStaff, &r.isSuperuser,
		&r.verificationToken, &r.verificationSentAt, &r.lastLoginAt)
}

func (r *userRow) toDomain() (*domain.User, error) {
	u := &domain.User{
		Email:        r.email,
		Name:         r.name,
		PasswordHash: r.passwordHash,
		IsActive:     r.isActive != 0,
		IsStaff:      r.isStaff != 0,
		IsSuperuser:  r.isSuperuser != 0,
	}
	u.ID = r.id

	var err error
	if u.CreatedAt, err = parseTime(r.createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(r.updatedAt); err != nil {
		return nil, err
	}
	if r.verificationToken.Valid {
		token := r.verificationToken.String
		u.VerificationToken = &token
	}
	if u.VerificationSentAt, err = parseNullableTime(r.verificationSentAt); err != nil {
		return nil, err
	}
	if u.LastLoginAt, err = parseNullableTime(r.lastLoginAt); err != nil {
		return nil, err
	}
	return u, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// queryUser runs a single-row user query and maps the sentinel errors.
func (s *Store) queryUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var row userRow
	err := row.scan(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// CreateUser inserts a new user.
// Returns store.ErrAlreadyExists if the email is already registered.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		user.Email,
		emailKey(user.Email),
		user.Name,
		user.PasswordHash,
		boolToInt(user.IsActive),
		boolToInt(user.IsStaff),
		boolToInt(user.IsSuperuser),
		nullableString(user.VerificationToken),
		nullTimeString(user.VerificationSentAt),
		nullTimeString(user.LastLoginAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by case-insensitive email match.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.queryUser(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_lower = ?`, emailKey(email))
}

// GetUserByVerificationToken retrieves an inactive user by exact token match.
// Returns store.ErrNotFound if no inactive user carries the token.
func (s *Store) GetUserByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	return s.queryUser(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE verification_token = ? AND is_active = 0`, token)
}

// UpdateUser performs a full row update on an existing user.
// Returns store.ErrNotFound if the user does not exist, and
// store.ErrAlreadyExists if an email change collides with another account.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			created_at = ?, updated_at = ?,
			email = ?, email_lower = ?, name = ?, password_hash = ?,
			is_active = ?, is_staff = ?, is_superuser = ?,
			verification_token = ?, verification_sent_at = ?, last_login_at = ?
		WHERE id = ?`,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		user.Email,
		emailKey(user.Email),
		user.Name,
		user.PasswordHash,
		boolToInt(user.IsActive),
		boolToInt(user.IsStaff),
		boolToInt(user.IsSuperuser),
		nullableString(user.VerificationToken),
		nullTimeString(user.VerificationSentAt),
		nullTimeString(user.LastLoginAt),
		user.ID,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// DeleteUser removes a user. Recipes, their association rows, and sessions
// cascade via foreign keys. Catalog usage counts are not adjusted here; the
// advisory counters drift only for this administrative path.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// DeleteExpiredUnverifiedUsers removes inactive users whose verification
// email was sent before the cutoff, or never sent at all.
// Returns the number of users deleted.
func (s *Store) DeleteExpiredUnverifiedUsers(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM users
		WHERE is_active = 0 AND is_staff = 0
		  AND (verification_sent_at IS NULL OR verification_sent_at < ?)`,
		formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// requireRowsAffected maps a zero-row write onto store.ErrNotFound.
func requireRowsAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
