package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"attune/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Users      []UserBackup    `json:"users"`
	Checkins   []CheckinBackup `json:"checkins"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CheckinBackup represents a check-in record for backup
type CheckinBackup struct {
	ID              int64     `json:"id"`
	OwnerUserID     *string   `json:"owner_user_id"`
	ChildEmail      string    `json:"child_email"`
	ChildName       *string   `json:"child_name"`
	Goal            *string   `json:"goal"`
	Activity        *string   `json:"activity"`
	CompletionScore int       `json:"completion_score"`
	MoodScore       int       `json:"mood_score"`
	SleepHours      *float64  `json:"sleep_hours"`
	Notes           *string   `json:"notes"`
	CheckinDate     string    `json:"checkin_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes a complete backup of users and check-ins to a JSON file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:    "1",
		ExportedAt: time.Now().UTC(),
	}

	if err := s.exportUsers(backup); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportCheckins(backup); err != nil {
		return fmt.Errorf("failed to export checkins: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	log.Printf("Export complete: %d users, %d checkins -> %s",
		len(backup.Users), len(backup.Checkins), outputPath)
	return nil
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	rows, err := s.db.Query("SELECT id, email, created_at FROM users ORDER BY created_at ASC")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.CreatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportCheckins(backup *BackupData) error {
	query := `
		SELECT id, owner_user_id, child_email, child_name, goal, activity,
		       completion_score, mood_score, sleep_hours, notes, checkin_date, created_at
		FROM checkins
		ORDER BY id ASC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c CheckinBackup
		var owner, childName, goal, activity, notes sql.NullString
		var sleepHours sql.NullFloat64

		err := rows.Scan(&c.ID, &owner, &c.ChildEmail, &childName, &goal, &activity,
			&c.CompletionScore, &c.MoodScore, &sleepHours, &notes, &c.CheckinDate, &c.CreatedAt)
		if err != nil {
			return err
		}

		c.OwnerUserID = nullableString(owner)
		c.ChildName = nullableString(childName)
		c.Goal = nullableString(goal)
		c.Activity = nullableString(activity)
		c.Notes = nullableString(notes)
		if sleepHours.Valid {
			c.SleepHours = &sleepHours.Float64
		}

		backup.Checkins = append(backup.Checkins, c)
	}
	return rows.Err()
}

// Import restores users and check-ins from a backup file. With clear set,
// existing rows are removed first; otherwise rows are appended (check-in IDs
// are reassigned, user rows are skipped on conflict).
func (s *BackupService) Import(inputPath string, clear bool) error {
	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	var backup BackupData
	if err := json.Unmarshal(content, &backup); err != nil {
		return fmt.Errorf("failed to parse backup file: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if clear {
		log.Println("Clearing existing data...")
		if _, err := tx.Exec("DELETE FROM checkins"); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to clear checkins: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM users"); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to clear users: %w", err)
		}
	}

	for _, u := range backup.Users {
		var count int
		if err := tx.QueryRow("SELECT COUNT(*) FROM users WHERE id = ?", u.ID).Scan(&count); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to check user %s: %w", u.ID, err)
		}
		if count > 0 {
			continue
		}
		_, err := tx.Exec("INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)",
			u.ID, u.Email, u.CreatedAt)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to import user %s: %w", u.Email, err)
		}
	}

	for _, c := range backup.Checkins {
		query := `
			INSERT INTO checkins
				(owner_user_id, child_email, child_name, goal, activity,
				 completion_score, mood_score, sleep_hours, notes, checkin_date, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := tx.Exec(query, c.OwnerUserID, c.ChildEmail, c.ChildName, c.Goal, c.Activity,
			c.CompletionScore, c.MoodScore, c.SleepHours, c.Notes, c.CheckinDate, c.CreatedAt)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to import checkin %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	log.Printf("Import complete: %d users, %d checkins", len(backup.Users), len(backup.Checkins))
	return nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	s := ns.String
	return &s
}
