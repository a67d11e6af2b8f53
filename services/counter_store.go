package services

import (
	"gorm.io/gorm"

	"github.com/sweatcircle/sweatcircle/models"
)

// CounterStore mutates the per-user and per-group check-in counters. Every
// increment is a single relative UPDATE at the storage layer, never a
// read-modify-write in application code, so concurrent increments to the same
// counter cannot lose updates.
type CounterStore struct {
	db *gorm.DB
}

// NewCounterStore creates a CounterStore on the given connection.
func NewCounterStore(db *gorm.DB) *CounterStore {
	return &CounterStore{db: db}
}

// IncrementUser adds delta to a user's counter and returns the new value.
// Returns gorm.ErrRecordNotFound when the user does not exist.
func (s *CounterStore) IncrementUser(tx *gorm.DB, userID uint, delta int) (int, error) {
	if tx == nil {
		tx = s.db
	}
	if delta != 0 {
		res := tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("check_in_count", gorm.Expr("check_in_count + ?", delta))
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, gorm.ErrRecordNotFound
		}
	}
	return s.userCount(tx, userID)
}

// IncrementGroup adds delta to a group's counter and returns the new value.
func (s *CounterStore) IncrementGroup(tx *gorm.DB, groupID uint, delta int) (int, error) {
	if tx == nil {
		tx = s.db
	}
	if delta != 0 {
		res := tx.Model(&models.Group{}).Where("id = ?", groupID).
			UpdateColumn("check_in_count", gorm.Expr("check_in_count + ?", delta))
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, gorm.ErrRecordNotFound
		}
	}
	return s.groupCount(tx, groupID)
}

// UserCount returns a user's current counter value.
func (s *CounterStore) UserCount(userID uint) (int, error) {
	return s.userCount(s.db, userID)
}

// GroupCount returns a group's current counter value.
func (s *CounterStore) GroupCount(groupID uint) (int, error) {
	return s.groupCount(s.db, groupID)
}

func (s *CounterStore) userCount(tx *gorm.DB, userID uint) (int, error) {
	var user models.User
	if err := tx.Select("id", "check_in_count").First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.CheckInCount, nil
}

func (s *CounterStore) groupCount(tx *gorm.DB, groupID uint) (int, error) {
	var group models.Group
	if err := tx.Select("id", "check_in_count").First(&group, groupID).Error; err != nil {
		return 0, err
	}
	return group.CheckInCount, nil
}
