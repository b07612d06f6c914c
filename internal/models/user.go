package models

import "time"

// User represents a parent account, provisioned implicitly the first time an
// email address requests a one-time passcode.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// OTPChallenge represents a pending one-time passcode sent to an email
// address. The code itself is never stored, only a bcrypt hash of it.
type OTPChallenge struct {
	ID        int64
	Email     string
	CodeHash  string
	CreatedAt time.Time
	ExpiresAt time.Time
	Consumed  bool
}

// IsExpired checks if the challenge has expired
func (c *OTPChallenge) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
