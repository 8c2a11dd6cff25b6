package domain

import "time"

// Session represents an active login. The access token's jti is bound to
// TokenID so logout (deleting the session row) revokes the token before it
// expires on its own.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TokenID    string    `json:"-"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// Touch updates the session's last seen timestamp.
func (s *Session) Touch() {
	s.LastSeenAt = time.Now()
}

// IsExpired checks if the session has passed its expiration time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
