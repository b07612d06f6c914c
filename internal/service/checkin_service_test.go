package service

import (
	"errors"
	"testing"

	"attune/internal/models"
	"attune/internal/repository"
	"attune/internal/validation"
)

func newTestCheckinService(t *testing.T) *CheckinService {
	t.Helper()
	return NewCheckinService(repository.NewCheckinRepository(setupTestDB(t)))
}

func validInput() CheckinInput {
	return CheckinInput{
		ChildEmail:      "kid@example.com",
		ChildName:       "Sam",
		Goal:            "reading",
		Activity:        "finished a chapter",
		CompletionScore: float64(4),
		MoodScore:       float64(5),
		CheckinDate:     "2025-06-10",
	}
}

func TestCreateCheckinValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	svc := newTestCheckinService(t)
	scope := models.Scope{Public: true}

	tests := []struct {
		name      string
		mutate    func(*CheckinInput)
		wantField string
	}{
		{
			name:      "missing child email",
			mutate:    func(in *CheckinInput) { in.ChildEmail = "" },
			wantField: "childEmail",
		},
		{
			name:      "completion score out of range",
			mutate:    func(in *CheckinInput) { in.CompletionScore = float64(6) },
			wantField: "completionScore",
		},
		{
			name:      "completion score zero",
			mutate:    func(in *CheckinInput) { in.CompletionScore = float64(0) },
			wantField: "completionScore",
		},
		{
			name:      "mood score not a number",
			mutate:    func(in *CheckinInput) { in.MoodScore = "abc" },
			wantField: "moodScore",
		},
		{
			name:      "mood score fractional",
			mutate:    func(in *CheckinInput) { in.MoodScore = 3.5 },
			wantField: "moodScore",
		},
		{
			name: "sleep hours out of range",
			mutate: func(in *CheckinInput) {
				hours := 30.0
				in.SleepHours = &hours
			},
			wantField: "sleepHours",
		},
		{
			name:      "bad date",
			mutate:    func(in *CheckinInput) { in.CheckinDate = "June 10th" },
			wantField: "checkinDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)

			_, err := svc.CreateCheckin(scope, input)
			var validationErr validation.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if validationErr.Field != tt.wantField {
				t.Errorf("Expected field %s, got %s", tt.wantField, validationErr.Field)
			}
		})
	}
}

func TestCreateAndListCheckins(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	svc := newTestCheckinService(t)
	scope := models.Scope{Public: true}

	record, err := svc.CreateCheckin(scope, validInput())
	if err != nil {
		t.Fatalf("CreateCheckin failed: %v", err)
	}
	if record.ID == 0 {
		t.Error("Expected a non-zero record ID")
	}
	if record.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}

	records, err := svc.ListCheckins(scope, models.CheckinFilter{ChildEmail: "kid@example.com"})
	if err != nil {
		t.Fatalf("ListCheckins failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.ChildEmail != "kid@example.com" || got.Goal != "reading" || got.CompletionScore != 4 || got.MoodScore != 5 {
		t.Errorf("Round-tripped record does not match input: %+v", got)
	}
}

func TestListCheckinsRequiresChildEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	svc := newTestCheckinService(t)

	_, err := svc.ListCheckins(models.Scope{Public: true}, models.CheckinFilter{})
	var validationErr validation.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if validationErr.Field != "childEmail" {
		t.Errorf("Expected field childEmail, got %s", validationErr.Field)
	}
}

func TestListCheckinsChronologicalOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	svc := newTestCheckinService(t)
	scope := models.Scope{Public: true}

	// Insert out of order; listing sorts by date regardless
	dates := []string{"2025-06-12", "2025-06-10", "2025-06-11"}
	for _, date := range dates {
		input := validInput()
		input.CheckinDate = date
		if _, err := svc.CreateCheckin(scope, input); err != nil {
			t.Fatalf("CreateCheckin failed: %v", err)
		}
	}

	records, err := svc.ListCheckins(scope, models.CheckinFilter{ChildEmail: "kid@example.com"})
	if err != nil {
		t.Fatalf("ListCheckins failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	want := []string{"2025-06-10", "2025-06-11", "2025-06-12"}
	for i, record := range records {
		if record.CheckinDate != want[i] {
			t.Errorf("Record %d: expected date %s, got %s", i, want[i], record.CheckinDate)
		}
	}
}

func TestListCheckinsScoping(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t)
	svc := NewCheckinService(repository.NewCheckinRepository(db))
	users := repository.NewUserRepository(db)

	owner, err := users.CreateUser("parent@example.com")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	other, err := users.CreateUser("other@example.com")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	ownerScope := models.Scope{UserID: owner.ID}
	otherScope := models.Scope{UserID: other.ID}
	publicScope := models.Scope{Public: true}

	for _, scope := range []models.Scope{ownerScope, publicScope} {
		if _, err := svc.CreateCheckin(scope, validInput()); err != nil {
			t.Fatalf("CreateCheckin failed: %v", err)
		}
	}

	filter := models.CheckinFilter{ChildEmail: "kid@example.com"}

	// The owner sees only their own record
	records, err := svc.ListCheckins(ownerScope, filter)
	if err != nil {
		t.Fatalf("ListCheckins failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected owner to see 1 record, got %d", len(records))
	}
	if records[0].OwnerUserID == nil || *records[0].OwnerUserID != owner.ID {
		t.Errorf("Expected owner-scoped record, got owner %v", records[0].OwnerUserID)
	}

	// Public scope sees only ownerless records
	records, err = svc.ListCheckins(publicScope, filter)
	if err != nil {
		t.Fatalf("ListCheckins failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected public scope to see 1 record, got %d", len(records))
	}
	if records[0].OwnerUserID != nil {
		t.Errorf("Expected ownerless record, got owner %v", records[0].OwnerUserID)
	}

	// A different user sees nothing
	records, err = svc.ListCheckins(otherScope, filter)
	if err != nil {
		t.Fatalf("ListCheckins failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected other user to see 0 records, got %d", len(records))
	}
}

func TestListCheckinsFilters(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	svc := newTestCheckinService(t)
	scope := models.Scope{Public: true}

	entries := []struct {
		goal string
		date string
	}{
		{"reading", "2025-06-01"},
		{"reading", "2025-06-15"},
		{"exercise", "2025-06-10"},
	}
	for _, entry := range entries {
		input := validInput()
		input.Goal = entry.goal
		input.CheckinDate = entry.date
		if _, err := svc.CreateCheckin(scope, input); err != nil {
			t.Fatalf("CreateCheckin failed: %v", err)
		}
	}

	records, err := svc.ListCheckins(scope, models.CheckinFilter{
		ChildEmail: "kid@example.com",
		Goal:       "reading",
	})
	if err != nil {
		t.Fatalf("ListCheckins failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 reading records, got %d", len(records))
	}

	records, err = svc.ListCheckins(scope, models.CheckinFilter{
		ChildEmail: "kid@example.com",
		Since:      "2025-06-05",
		Until:      "2025-06-12",
	})
	if err != nil {
		t.Fatalf("ListCheckins failed: %v", err)
	}
	if len(records) != 1 || records[0].CheckinDate != "2025-06-10" {
		t.Errorf("Expected the single mid-range record, got %+v", records)
	}

	// Inverted range is empty, not an error
	records, err = svc.ListCheckins(scope, models.CheckinFilter{
		ChildEmail: "kid@example.com",
		Since:      "2025-06-20",
		Until:      "2025-06-01",
	})
	if err != nil {
		t.Fatalf("ListCheckins failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty result for inverted range, got %d records", len(records))
	}
}

func TestCheckinDateDefaultsToToday(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	svc := newTestCheckinService(t)

	input := validInput()
	input.CheckinDate = ""
	record, err := svc.CreateCheckin(models.Scope{Public: true}, input)
	if err != nil {
		t.Fatalf("CreateCheckin failed: %v", err)
	}
	if record.CheckinDate == "" {
		t.Error("Expected CheckinDate to default to today")
	}
}

func TestCreateCheckinBatch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	svc := newTestCheckinService(t)
	scope := models.Scope{Public: true}

	inputs := []CheckinInput{validInput(), validInput(), validInput()}
	records, err := svc.CreateCheckinBatch(scope, inputs)
	if err != nil {
		t.Fatalf("CreateCheckinBatch failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	listed, err := svc.ListCheckins(scope, models.CheckinFilter{ChildEmail: "kid@example.com"})
	if err != nil {
		t.Fatalf("ListCheckins failed: %v", err)
	}
	if len(listed) != 3 {
		t.Errorf("Expected 3 stored records, got %d", len(listed))
	}
}

func TestCreateCheckinBatchRejectsAllOnOneBadRow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	svc := newTestCheckinService(t)
	scope := models.Scope{Public: true}

	bad := validInput()
	bad.MoodScore = "abc"

	_, err := svc.CreateCheckinBatch(scope, []CheckinInput{validInput(), bad})
	var validationErr validation.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}

	listed, err := svc.ListCheckins(scope, models.CheckinFilter{ChildEmail: "kid@example.com"})
	if err != nil {
		t.Fatalf("ListCheckins failed: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("Expected no records after rejected batch, got %d", len(listed))
	}
}
