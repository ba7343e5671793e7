package domain

import (
	"strings"
	"time"
)

type User struct {
	ID               string     `db:"id" bson:"_id" json:"id"`
	Email            string     `db:"email" bson:"email" json:"email"`
	PasswordHash     string     `db:"password_hash" bson:"password_hash" json:"-"`
	ResetToken       *string    `db:"reset_token" bson:"reset_token" json:"-"`
	ResetTokenExpiry *time.Time `db:"reset_token_expiry" bson:"reset_token_expiry" json:"-"`
	CreatedAt        time.Time  `db:"created_at" bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" bson:"updated_at" json:"updated_at"`
}

// NormalizeEmail returns the canonical form emails are stored and looked up by.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) HasPendingReset() bool {
	return u.ResetToken != nil && u.ResetTokenExpiry != nil
}

// ResetExpired reports whether the pending reset can no longer be used at now.
// The expiry instant itself is still valid.
func (u *User) ResetExpired(now time.Time) bool {
	if !u.HasPendingReset() {
		return true
	}
	return now.After(*u.ResetTokenExpiry)
}

func (u *User) SetReset(token string, expiresAt time.Time) {
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiresAt
}

func (u *User) ClearReset() {
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
}

// Clone returns a deep copy so callers never share the optional reset fields.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.ResetToken != nil {
		token := *u.ResetToken
		clone.ResetToken = &token
	}
	if u.ResetTokenExpiry != nil {
		expiry := *u.ResetTokenExpiry
		clone.ResetTokenExpiry = &expiry
	}
	return &clone
}
