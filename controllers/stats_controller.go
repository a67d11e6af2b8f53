package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sweatcircle/sweatcircle/models"
	"github.com/sweatcircle/sweatcircle/services"
	"github.com/sweatcircle/sweatcircle/utils"
)

// StatsController provides aggregate statistics such as counts and daily activity.
type StatsController struct {
	db     *gorm.DB
	ledger *services.Ledger
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db, ledger: services.NewLedger(db)}
}

// GetStats returns aggregate statistics for the whole service.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var userCount int64
	var groupCount int64
	var checkCount int64

	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		// Fallback to 0 instead of failing the whole endpoint
		userCount = 0
	}

	if err := s.db.Model(&models.Group{}).Count(&groupCount).Error; err != nil {
		groupCount = 0
	}

	if err := s.db.Model(&models.CheckIn{}).Count(&checkCount).Error; err != nil {
		checkCount = 0
	}

	now := time.Now()
	todayChecks, err := s.ledger.ChecksOn(now)
	if err != nil {
		todayChecks = 0
	}
	todayActive, err := s.ledger.ActiveUsersOn(now)
	if err != nil {
		todayActive = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":         userCount,
		"group_count":        groupCount,
		"checkin_count":      checkCount,
		"today_checkins":     todayChecks,
		"daily_active_count": todayActive,
	})
}
