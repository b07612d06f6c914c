package repository

import (
	"database/sql"
	"fmt"
	"time"

	"attune/internal/database"
	"attune/internal/models"
)

// CheckinRepository handles database operations for check-in records
type CheckinRepository struct {
	db *database.DB
}

// NewCheckinRepository creates a new check-in repository
func NewCheckinRepository(db *database.DB) *CheckinRepository {
	return &CheckinRepository{db: db}
}

// CreateCheckin inserts a new record and fills in its ID and creation time.
// Records are immutable after this point.
func (r *CheckinRepository) CreateCheckin(record *models.CheckinRecord) error {
	return insertCheckin(r.db, record)
}

// CreateCheckinBatch inserts all records in a single transaction, in order.
// Either every row lands or none do.
func (r *CheckinRepository) CreateCheckinBatch(records []*models.CheckinRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, record := range records {
		if err := insertCheckin(tx, record); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

func insertCheckin(q database.DBTX, record *models.CheckinRecord) error {
	record.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO checkins
			(owner_user_id, child_email, child_name, goal, activity,
			 completion_score, mood_score, sleep_hours, notes, checkin_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := q.ExecReturningID(query,
		record.OwnerUserID,
		record.ChildEmail,
		record.ChildName,
		record.Goal,
		record.Activity,
		record.CompletionScore,
		record.MoodScore,
		record.SleepHours,
		record.Notes,
		record.CheckinDate,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create checkin: %w", err)
	}

	record.ID = id
	return nil
}

// ListCheckins returns the records visible under the given scope, restricted
// to one child and optionally filtered by goal and an inclusive date range.
// Results are in stable chronological order: checkin_date, then created_at,
// then id.
func (r *CheckinRepository) ListCheckins(scope models.Scope, filter models.CheckinFilter) ([]models.CheckinRecord, error) {
	query := `
		SELECT id, owner_user_id, child_email, child_name, goal, activity,
		       completion_score, mood_score, sleep_hours, notes, checkin_date, created_at
		FROM checkins
		WHERE child_email = ?
	`
	args := []interface{}{filter.ChildEmail}

	if scope.Public {
		query += " AND owner_user_id IS NULL"
	} else {
		query += " AND owner_user_id = ?"
		args = append(args, scope.UserID)
	}

	if filter.Goal != "" {
		query += " AND goal = ?"
		args = append(args, filter.Goal)
	}
	if filter.Since != "" {
		query += " AND checkin_date >= ?"
		args = append(args, filter.Since)
	}
	if filter.Until != "" {
		query += " AND checkin_date <= ?"
		args = append(args, filter.Until)
	}

	query += " ORDER BY checkin_date ASC, created_at ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkins: %w", err)
	}
	defer rows.Close()

	var records []models.CheckinRecord
	for rows.Next() {
		var record models.CheckinRecord
		var owner sql.NullString
		var childName, goal, activity, notes sql.NullString
		var sleepHours sql.NullFloat64

		err := rows.Scan(
			&record.ID,
			&owner,
			&record.ChildEmail,
			&childName,
			&goal,
			&activity,
			&record.CompletionScore,
			&record.MoodScore,
			&sleepHours,
			&notes,
			&record.CheckinDate,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkin: %w", err)
		}

		if owner.Valid {
			record.OwnerUserID = &owner.String
		}
		record.ChildName = childName.String
		record.Goal = goal.String
		record.Activity = activity.String
		if sleepHours.Valid {
			record.SleepHours = &sleepHours.Float64
		}
		if notes.Valid {
			record.Notes = &notes.String
		}

		records = append(records, record)
	}

	return records, rows.Err()
}
