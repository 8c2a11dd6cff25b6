package domain

import "time"

// VerificationTokenTTL is how long an email verification token stays valid.
// Accounts that never verify within this window are eligible for deletion.
const VerificationTokenTTL = time.Hour

// User represents an account in the system.
// Regular users are created inactive with a verification token and become
// active once they verify their email. Staff and superuser accounts are
// created active and never carry a token.
type User struct {
	Model
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	IsActive     bool   `json:"is_active"`
	IsStaff      bool   `json:"is_staff"`
	IsSuperuser  bool   `json:"is_superuser"`

	// VerificationToken is the opaque single-use activation token.
	// Nil once the account is verified (or for staff accounts).
	VerificationToken  *string    `json:"-"`
	VerificationSentAt *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// IsVerificationExpired reports whether the user's verification window has
// closed. A missing sent timestamp counts as expired.
func (u *User) IsVerificationExpired() bool {
	if u.VerificationSentAt == nil {
		return true
	}
	return time.Since(*u.VerificationSentAt) > VerificationTokenTTL
}

// MarkVerified activates the account and clears the verification token.
func (u *User) MarkVerified() {
	u.IsActive = true
	u.VerificationToken = nil
	u.VerificationSentAt = nil
	u.Touch()
}

// SetVerificationToken assigns a fresh token and stamps the send time.
func (u *User) SetVerificationToken(token string) {
	now := time.Now()
	u.VerificationToken = &token
	u.VerificationSentAt = &now
	u.Touch()
}

// CanModerate reports whether the user may manage shared catalog entities
// (tags) and other users' recipes.
func (u *User) CanModerate() bool {
	return u.IsSuperuser
}
