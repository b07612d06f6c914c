package repository

import (
	"database/sql"
	"fmt"
	"time"

	"attune/internal/database"
	"attune/internal/models"
)

// ChallengeRepository handles database operations for OTP challenges
type ChallengeRepository struct {
	db *database.DB
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db *database.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// CreateChallenge stores a new challenge after invalidating any prior
// unconsumed ones for the same email. Only one challenge per email is active
// at a time.
func (r *ChallengeRepository) CreateChallenge(email, codeHash string, expiresAt time.Time) (*models.OTPChallenge, error) {
	if err := r.InvalidateChallenges(email); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO otp_challenges (email, code_hash, created_at, expires_at, consumed)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, email, codeHash, now, expiresAt.UTC(), false)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	return &models.OTPChallenge{
		ID:        id,
		Email:     email,
		CodeHash:  codeHash,
		CreatedAt: now,
		ExpiresAt: expiresAt.UTC(),
	}, nil
}

// GetActiveChallenge retrieves the latest unconsumed challenge for an email,
// or nil if there is none. Expiry is checked by the caller.
func (r *ChallengeRepository) GetActiveChallenge(email string) (*models.OTPChallenge, error) {
	query := `
		SELECT id, email, code_hash, created_at, expires_at, consumed
		FROM otp_challenges
		WHERE email = ? AND consumed = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	challenge := &models.OTPChallenge{}
	err := r.db.QueryRow(query, email, false).Scan(
		&challenge.ID,
		&challenge.Email,
		&challenge.CodeHash,
		&challenge.CreatedAt,
		&challenge.ExpiresAt,
		&challenge.Consumed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return challenge, nil
}

// ConsumeChallenge marks a challenge as used. Returns false if the challenge
// was already consumed, which makes codes single-use even under concurrent
// verify attempts.
func (r *ChallengeRepository) ConsumeChallenge(id int64) (bool, error) {
	query := `
		UPDATE otp_challenges
		SET consumed = ?
		WHERE id = ? AND consumed = ?
	`
	result, err := r.db.Exec(query, true, id, false)
	if err != nil {
		return false, fmt.Errorf("failed to consume challenge: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to consume challenge: %w", err)
	}
	return affected == 1, nil
}

// InvalidateChallenges marks all unconsumed challenges for an email as
// consumed. Issuing a new code always revokes the previous one.
func (r *ChallengeRepository) InvalidateChallenges(email string) error {
	query := `
		UPDATE otp_challenges
		SET consumed = ?
		WHERE email = ? AND consumed = ?
	`
	if _, err := r.db.Exec(query, true, email, false); err != nil {
		return fmt.Errorf("failed to invalidate challenges: %w", err)
	}
	return nil
}

// DeleteExpiredChallenges removes challenges past their expiry
func (r *ChallengeRepository) DeleteExpiredChallenges() error {
	query := "DELETE FROM otp_challenges WHERE expires_at < ?"
	if _, err := r.db.Exec(query, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to delete expired challenges: %w", err)
	}
	return nil
}
