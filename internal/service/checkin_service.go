package service

import (
	"strings"
	"time"

	"attune/internal/models"
	"attune/internal/repository"
	"attune/internal/validation"
)

// CheckinInput carries an unvalidated check-in submission. The score fields
// are interface{} so that malformed values (strings, fractions) survive JSON
// decoding and can be rejected with a field-specific message.
type CheckinInput struct {
	ChildEmail      string      `json:"childEmail"`
	ChildName       string      `json:"childName"`
	Goal            string      `json:"goal"`
	Activity        string      `json:"activity"`
	CompletionScore interface{} `json:"completionScore"`
	MoodScore       interface{} `json:"moodScore"`
	SleepHours      *float64    `json:"sleepHours"`
	Notes           *string     `json:"notes"`
	CheckinDate     string      `json:"checkinDate"`
}

// CheckinService validates submissions and reads check-in history, always
// within the scope produced by the authorization gate.
type CheckinService struct {
	checkinRepo *repository.CheckinRepository
}

// NewCheckinService creates a new check-in service
func NewCheckinService(checkinRepo *repository.CheckinRepository) *CheckinService {
	return &CheckinService{checkinRepo: checkinRepo}
}

// CreateCheckin validates the input, stamps the owner from the caller's
// scope, and stores the record. CheckinDate defaults to today.
func (s *CheckinService) CreateCheckin(scope models.Scope, input CheckinInput) (*models.CheckinRecord, error) {
	record, err := s.buildRecord(scope, input)
	if err != nil {
		return nil, err
	}
	if err := s.checkinRepo.CreateCheckin(record); err != nil {
		return nil, err
	}
	return record, nil
}

// CreateCheckinBatch validates every submission before inserting any of
// them, then writes the whole batch in one transaction.
func (s *CheckinService) CreateCheckinBatch(scope models.Scope, inputs []CheckinInput) ([]*models.CheckinRecord, error) {
	records := make([]*models.CheckinRecord, 0, len(inputs))
	for _, input := range inputs {
		record, err := s.buildRecord(scope, input)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := s.checkinRepo.CreateCheckinBatch(records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *CheckinService) buildRecord(scope models.Scope, input CheckinInput) (*models.CheckinRecord, error) {
	childEmail := strings.TrimSpace(input.ChildEmail)
	if childEmail == "" {
		return nil, validation.ValidationError{Field: "childEmail", Message: "childEmail is required"}
	}

	completionScore, err := validation.ValidateScore("completionScore", input.CompletionScore)
	if err != nil {
		return nil, err
	}
	moodScore, err := validation.ValidateScore("moodScore", input.MoodScore)
	if err != nil {
		return nil, err
	}

	if input.SleepHours != nil {
		if err := validation.ValidateSleepHours(*input.SleepHours); err != nil {
			return nil, err
		}
	}

	checkinDate := input.CheckinDate
	if checkinDate == "" {
		checkinDate = time.Now().Format("2006-01-02")
	} else if err := validation.ValidateDate("checkinDate", checkinDate); err != nil {
		return nil, err
	}

	return &models.CheckinRecord{
		OwnerUserID:     scope.OwnerID(),
		ChildEmail:      childEmail,
		ChildName:       strings.TrimSpace(input.ChildName),
		Goal:            strings.TrimSpace(input.Goal),
		Activity:        strings.TrimSpace(input.Activity),
		CompletionScore: completionScore,
		MoodScore:       moodScore,
		SleepHours:      input.SleepHours,
		Notes:           input.Notes,
		CheckinDate:     checkinDate,
	}, nil
}

// ListCheckins returns the caller's visible records for one child. The child
// email is mandatory: a listing across all children is never produced, even
// for an authenticated owner. An inverted since/until range yields an empty
// result rather than an error.
func (s *CheckinService) ListCheckins(scope models.Scope, filter models.CheckinFilter) ([]models.CheckinRecord, error) {
	if strings.TrimSpace(filter.ChildEmail) == "" {
		return nil, validation.ValidationError{Field: "childEmail", Message: "childEmail is required"}
	}
	if filter.Since != "" {
		if err := validation.ValidateDate("since", filter.Since); err != nil {
			return nil, err
		}
	}
	if filter.Until != "" {
		if err := validation.ValidateDate("until", filter.Until); err != nil {
			return nil, err
		}
	}

	records, err := s.checkinRepo.ListCheckins(scope, filter)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.CheckinRecord{}
	}
	return records, nil
}
