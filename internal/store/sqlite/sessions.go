package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/platefulapp/plateful-server/internal/domain"
	"github.com/platefulapp/plateful-server/internal/store"
)

const sessionColumns = `id, user_id, token_id, ip_address, user_agent,
	created_at, expires_at, last_seen_at`

// sessionRow mirrors the sessions table; timestamps stay as text until
// toDomain parses them.
type sessionRow struct {
	id         string
	userID     string
	tokenID    string
	ipAddress  string
	userAgent  string
	createdAt  string
	expiresAt  string
	lastSeenAt string
}

func (r *sessionRow) scan(s interface{ Scan(dest ...any) error }) error {
	return s.Scan(&r.id, &r.userID, &r.tokenID, &r.ipAddress, &r.userAgent,
		&r.createdAt, &r.expiresAt, &r.lastSeenAt)
}

func (r *sessionRow) toDomain() (*domain.Session, error) {
	sess := &domain.Session{
		ID:        r.id,
		UserID:    r.userID,
		TokenID:   r.tokenID,
		IPAddress: r.ipAddress,
		UserAgent: r.userAgent,
	}

	var err error
	if sess.CreatedAt, err = parseTime(r.createdAt); err != nil {
		return nil, err
	}
	if sess.ExpiresAt, err = parseTime(r.expiresAt); err != nil {
		return nil, err
	}
	if sess.LastSeenAt, err = parseTime(r.lastSeenAt); err != nil {
		return nil, err
	}
	return sess, nil
}

// CreateSession inserts a new session.
// Returns store.ErrAlreadyExists if the session ID or token ID collides.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.TokenID,
		session.IPAddress,
		session.UserAgent,
		formatTime(session.CreatedAt),
		formatTime(session.ExpiresAt),
		formatTime(session.LastSeenAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetSessionByTokenID retrieves a session by the access token's jti claim.
// Returns store.ErrNotFound if no session carries the token.
func (s *Store) GetSessionByTokenID(ctx context.Context, tokenID string) (*domain.Session, error) {
	var row sessionRow
	err := row.scan(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token_id = ?`, tokenID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// DeleteSession removes a session by ID.
// Returns store.ErrNotFound if the session does not exist.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// DeleteExpiredSessions removes all sessions past their expiry.
// Returns the number of sessions deleted.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, formatTime(time.Now()))
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// TouchSession updates the session's last seen timestamp.
// Missing sessions are ignored; liveness tracking is best effort.
func (s *Store) TouchSession(ctx context.Context, id string, seenAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = ? WHERE id = ?`,
		formatTime(seenAt), id)
	return err
}
