package models

import "time"

// CheckinRecord represents a single daily check-in for a child. Records are
// immutable once created; there is no update or delete path.
type CheckinRecord struct {
	ID              int64    `json:"id"`
	OwnerUserID     *string  `json:"ownerUserId"`
	ChildEmail      string   `json:"childEmail"`
	ChildName       string   `json:"childName,omitempty"`
	Goal            string   `json:"goal,omitempty"`
	Activity        string   `json:"activity,omitempty"`
	CompletionScore int      `json:"completionScore"`
	MoodScore       int      `json:"moodScore"`
	SleepHours      *float64 `json:"sleepHours"`
	Notes           *string  `json:"notes"`
	// CheckinDate is a calendar date in YYYY-MM-DD form, independent of
	// the timestamp the row was written at.
	CheckinDate string    `json:"checkinDate"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Scope is the row-level filter produced by the authorization gate. Either
// UserID is set (authenticated caller, sees only their own records) or Public
// is true (anonymous deployment mode, sees only ownerless records).
type Scope struct {
	UserID string
	Public bool
}

// OwnerID returns the owner to stamp onto new records: the caller's user ID,
// or nil in public mode.
func (s Scope) OwnerID() *string {
	if s.Public {
		return nil
	}
	id := s.UserID
	return &id
}

// CheckinFilter holds the query filters for listing check-ins. ChildEmail is
// always required; the rest are optional.
type CheckinFilter struct {
	ChildEmail string
	Goal       string
	Since      string // inclusive YYYY-MM-DD lower bound
	Until      string // inclusive YYYY-MM-DD upper bound
}
