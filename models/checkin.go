package models

import "time"

// Check-in status values. Only completed check-ins advance the counters.
const (
	CheckInCompleted = "completed"
	CheckInSkipped   = "skipped"
)

// CheckIn is one daily check-in event. Date is the submission instant; CheckDay
// is the local calendar day truncated to midnight. The unique index on
// (user_id, check_day) enforces one check-in per user per day at the storage
// layer, so two racing submissions cannot both commit.
type CheckIn struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index;index:idx_checkins_user_day,unique" json:"userId"`
	GroupID      *uint     `gorm:"index" json:"groupId"`
	Date         time.Time `gorm:"not null;index" json:"date"`
	CheckDay     time.Time `gorm:"type:date;not null;index:idx_checkins_user_day,unique" json:"-"`
	Status       string    `gorm:"size:16;not null;default:'completed'" json:"status"`
	ExerciseType string    `gorm:"size:64" json:"exerciseType"`
	StartTime    string    `gorm:"size:16" json:"startTime"`
	EndTime      string    `gorm:"size:16" json:"endTime"`
	Notes        string    `gorm:"size:512" json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Completed reports whether this check-in counts toward the counters.
func (c *CheckIn) Completed() bool {
	return c.Status == CheckInCompleted
}
