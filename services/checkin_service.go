package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sweatcircle/sweatcircle/models"
)

var (
	// ErrUserNotFound means the submitting user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrGroupNotFound means the attributed group does not exist.
	ErrGroupNotFound = errors.New("group not found")
)

// DuplicateCheckInError reports a same-day resubmission together with the
// record that already exists, so callers can render "already done today".
type DuplicateCheckInError struct {
	Existing *models.CheckIn
}

func (e *DuplicateCheckInError) Error() string {
	return "already checked in today"
}

// SubmitInput carries one check-in submission. Now is the submission instant
// and defaults to time.Now() when zero.
type SubmitInput struct {
	UserID       uint
	GroupID      *uint
	Status       string
	ExerciseType string
	StartTime    string
	EndTime      string
	Notes        string
	Now          time.Time
}

// SubmitResult is the persisted record plus the post-increment counters.
// GroupCheckInCount is nil when the check-in had no group.
type SubmitResult struct {
	Record            models.CheckIn
	UserCheckInCount  int
	GroupCheckInCount *int
}

// CheckInService orchestrates the only multi-entity state transition in the
// system: ledger insert plus counter increments, committed as one unit.
type CheckInService struct {
	db       *gorm.DB
	counters *CounterStore
	ledger   *Ledger
}

// NewCheckInService wires the service with its counter store and ledger on a
// shared connection.
func NewCheckInService(db *gorm.DB) *CheckInService {
	return &CheckInService{
		db:       db,
		counters: NewCounterStore(db),
		ledger:   NewLedger(db),
	}
}

// Counters exposes the underlying counter store for read paths.
func (s *CheckInService) Counters() *CounterStore { return s.counters }

// Ledger exposes the underlying ledger for read paths.
func (s *CheckInService) Ledger() *Ledger { return s.ledger }

// Submit records a check-in for the user's current calendar day. Validation
// short-circuits before any write; the ledger insert and both counter
// increments then commit or roll back together. A same-day duplicate yields
// *DuplicateCheckInError with the existing record and leaves all counters
// untouched.
func (s *CheckInService) Submit(input SubmitInput) (*SubmitResult, error) {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	status := input.Status
	if status == "" {
		status = models.CheckInCompleted
	}

	var user models.User
	if err := s.db.First(&user, input.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.GroupID != nil {
		var group models.Group
		if err := s.db.First(&group, *input.GroupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrGroupNotFound
			}
			return nil, err
		}
	}

	if existing, err := s.ledger.FindByDay(input.UserID, now); err == nil {
		return nil, &DuplicateCheckInError{Existing: existing}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record := models.CheckIn{
		UserID:       input.UserID,
		GroupID:      input.GroupID,
		Date:         now,
		Status:       status,
		ExerciseType: input.ExerciseType,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		Notes:        input.Notes,
	}

	result := SubmitResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.applyCheckIn(tx, &record, &result)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyCheckedIn) {
			// Lost the race to a concurrent submission; report its record.
			if existing, findErr := s.ledger.FindByDay(input.UserID, now); findErr == nil {
				return nil, &DuplicateCheckInError{Existing: existing}
			}
			return nil, &DuplicateCheckInError{}
		}
		return nil, err
	}
	return &result, nil
}

// applyCheckIn is the transactional core: insert the ledger row, then advance
// the user counter and, when attributed, the group counter. Completed
// check-ins increment by 1, skipped by 0. Any failure aborts the whole unit.
func (s *CheckInService) applyCheckIn(tx *gorm.DB, record *models.CheckIn, result *SubmitResult) error {
	if err := s.ledger.Insert(tx, record); err != nil {
		return err
	}

	delta := 0
	if record.Completed() {
		delta = 1
	}

	userCount, err := s.counters.IncrementUser(tx, record.UserID, delta)
	if err != nil {
		return err
	}

	var groupCount *int
	if record.GroupID != nil {
		count, err := s.counters.IncrementGroup(tx, *record.GroupID, delta)
		if err != nil {
			return err
		}
		groupCount = &count
	}

	result.Record = *record
	result.UserCheckInCount = userCount
	result.GroupCheckInCount = groupCount
	return nil
}
