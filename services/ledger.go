package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sweatcircle/sweatcircle/models"
	"github.com/sweatcircle/sweatcircle/utils"
)

// ErrAlreadyCheckedIn is returned when a user already has a check-in on the
// calendar day of the attempted insert. It is an expected, user-facing
// condition, not a fault.
var ErrAlreadyCheckedIn = errors.New("already checked in today")

// Ledger is the append-only store of check-in events. At most one record may
// exist per (user, calendar day); the pre-check catches the common case and
// the (user_id, check_day) unique index closes the race between two
// concurrent submissions.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a Ledger on the given connection.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// HasCheckedInToday reports whether the user already has a record on the
// calendar day containing asOf.
func (l *Ledger) HasCheckedInToday(userID uint, asOf time.Time) (bool, error) {
	_, err := l.FindByDay(userID, asOf)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// FindByDay returns the user's record for the calendar day containing asOf.
func (l *Ledger) FindByDay(userID uint, asOf time.Time) (*models.CheckIn, error) {
	start, end := utils.DayBounds(asOf)
	var record models.CheckIn
	err := l.db.Where("user_id = ? AND date BETWEEN ? AND ?", userID, start, end).
		Order("created_at DESC").First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Insert persists a check-in record, stamping CheckDay from the record's Date.
// Returns ErrAlreadyCheckedIn when the day-uniqueness index rejects the row.
func (l *Ledger) Insert(tx *gorm.DB, record *models.CheckIn) error {
	if tx == nil {
		tx = l.db
	}
	record.CheckDay = utils.DayStart(record.Date)
	if err := tx.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyCheckedIn
		}
		return err
	}
	return nil
}

// ListByUser returns all of a user's check-ins, newest first. The query is
// restartable; no cursor state is retained.
func (l *Ledger) ListByUser(userID uint) ([]models.CheckIn, error) {
	var records []models.CheckIn
	err := l.db.Where("user_id = ?", userID).Order("date DESC").Find(&records).Error
	return records, err
}

// ListByRange returns the user's check-ins with date in [start, end],
// oldest first, for the weekly report views.
func (l *Ledger) ListByRange(userID uint, start, end time.Time) ([]models.CheckIn, error) {
	var records []models.CheckIn
	err := l.db.Where("user_id = ? AND date BETWEEN ? AND ?", userID, start, end).
		Order("date ASC").Find(&records).Error
	return records, err
}

// CountCompletedSince counts the user's completed check-ins dated on or after
// start. Used for the weekly and monthly figures on the personal ranking view.
func (l *Ledger) CountCompletedSince(userID uint, start time.Time) (int64, error) {
	var count int64
	err := l.db.Model(&models.CheckIn{}).
		Where("user_id = ? AND date >= ? AND status = ?", userID, start, models.CheckInCompleted).
		Count(&count).Error
	return count, err
}

// CompletedDays returns the distinct calendar days (newest first) on which the
// user completed a check-in, capped at limit. Feeds the streak computation.
func (l *Ledger) CompletedDays(userID uint, limit int) ([]time.Time, error) {
	var days []time.Time
	err := l.db.Model(&models.CheckIn{}).
		Where("user_id = ? AND status = ?", userID, models.CheckInCompleted).
		Order("check_day DESC").Limit(limit).
		Distinct().Pluck("check_day", &days).Error
	return days, err
}

// ActiveUsersOn counts distinct users with a check-in on the calendar day
// containing asOf.
func (l *Ledger) ActiveUsersOn(asOf time.Time) (int64, error) {
	start, end := utils.DayBounds(asOf)
	var count int64
	err := l.db.Model(&models.CheckIn{}).
		Where("date BETWEEN ? AND ?", start, end).
		Distinct("user_id").Count(&count).Error
	return count, err
}

// ChecksOn counts all check-ins on the calendar day containing asOf.
func (l *Ledger) ChecksOn(asOf time.Time) (int64, error) {
	start, end := utils.DayBounds(asOf)
	var count int64
	err := l.db.Model(&models.CheckIn{}).
		Where("date BETWEEN ? AND ?", start, end).Count(&count).Error
	return count, err
}
