package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sweatcircle/sweatcircle/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A second pooled connection would see its own empty in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Group{}, &models.GroupMember{}, &models.CheckIn{}))
	return db
}

func createUser(t *testing.T, db *gorm.DB, nickname string) models.User {
	t.Helper()
	user := models.User{Nickname: nickname, PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createGroup(t *testing.T, db *gorm.DB, name string, creatorID uint) models.Group {
	t.Helper()
	group := models.Group{Name: name, CreatorID: creatorID}
	require.NoError(t, db.Create(&group).Error)
	require.NoError(t, db.Create(&models.GroupMember{GroupID: group.ID, UserID: creatorID}).Error)
	return group
}

func TestSubmitRecordsCheckInAndCounter(t *testing.T) {
	db := newTestDB(t)
	svc := NewCheckInService(db)
	user := createUser(t, db, "晨跑者")

	result, err := svc.Submit(SubmitInput{
		UserID:       user.ID,
		ExerciseType: "跑步",
		StartTime:    "07:00",
		EndTime:      "07:45",
		Notes:        "5km",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.UserCheckInCount)
	assert.Nil(t, result.GroupCheckInCount)
	assert.Equal(t, models.CheckInCompleted, result.Record.Status)

	count, err := svc.Counters().UserCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSubmitSameDayDuplicateRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewCheckInService(db)
	user := createUser(t, db, "夜跑者")

	first, err := svc.Submit(SubmitInput{UserID: user.ID, ExerciseType: "游泳"})
	require.NoError(t, err)

	_, err = svc.Submit(SubmitInput{UserID: user.ID, ExerciseType: "瑜伽"})
	var dup *DuplicateCheckInError
	require.ErrorAs(t, err, &dup)
	require.NotNil(t, dup.Existing)
	assert.Equal(t, first.Record.ID, dup.Existing.ID)
	assert.Equal(t, "游泳", dup.Existing.ExerciseType)

	// The rejection must leave the counter and the ledger untouched.
	count, err := svc.Counters().UserCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var total int64
	require.NoError(t, db.Model(&models.CheckIn{}).Where("user_id = ?", user.ID).Count(&total).Error)
	assert.EqualValues(t, 1, total)
}

func TestSubmitSkippedDoesNotAdvanceCounter(t *testing.T) {
	db := newTestDB(t)
	svc := NewCheckInService(db)
	user := createUser(t, db, "偷懒的人")

	result, err := svc.Submit(SubmitInput{UserID: user.ID, Status: models.CheckInSkipped})
	require.NoError(t, err)
	assert.Equal(t, 0, result.UserCheckInCount)

	// A skipped day still occupies the day slot.
	_, err = svc.Submit(SubmitInput{UserID: user.ID})
	var dup *DuplicateCheckInError
	assert.ErrorAs(t, err, &dup)
}

func TestSubmitAcrossDayBoundary(t *testing.T) {
	db := newTestDB(t)
	svc := NewCheckInService(db)
	user := createUser(t, db, "守夜人")

	lateNight := time.Date(2026, 8, 10, 23, 59, 59, 0, time.Local)
	justAfterMidnight := time.Date(2026, 8, 11, 0, 0, 0, 0, time.Local)

	_, err := svc.Submit(SubmitInput{UserID: user.ID, Now: lateNight})
	require.NoError(t, err)

	// The first instant of the next calendar day is a fresh slot.
	result, err := svc.Submit(SubmitInput{UserID: user.ID, Now: justAfterMidnight})
	require.NoError(t, err)
	assert.Equal(t, 2, result.UserCheckInCount)
}

func TestSubmitCounterMatchesLedgerOverTime(t *testing.T) {
	db := newTestDB(t)
	svc := NewCheckInService(db)
	user := createUser(t, db, "长期主义者")

	base := time.Date(2026, 7, 1, 8, 0, 0, 0, time.Local)
	completed := 0
	for i := 0; i < 10; i++ {
		status := models.CheckInCompleted
		if i%3 == 2 {
			status = models.CheckInSkipped
		} else {
			completed++
		}
		_, err := svc.Submit(SubmitInput{UserID: user.ID, Status: status, Now: base.AddDate(0, 0, i)})
		require.NoError(t, err)
	}

	count, err := svc.Counters().UserCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, completed, count)

	since, err := svc.Ledger().CountCompletedSince(user.ID, base)
	require.NoError(t, err)
	assert.EqualValues(t, completed, since)
}

func TestSubmitGroupAttribution(t *testing.T) {
	db := newTestDB(t)
	svc := NewCheckInService(db)
	alice := createUser(t, db, "早起鸟")
	bob := createUser(t, db, "跟练员")
	group := createGroup(t, db, "晨练小队", alice.ID)
	require.NoError(t, db.Create(&models.GroupMember{GroupID: group.ID, UserID: bob.ID}).Error)

	r1, err := svc.Submit(SubmitInput{UserID: alice.ID, GroupID: &group.ID})
	require.NoError(t, err)
	require.NotNil(t, r1.GroupCheckInCount)
	assert.Equal(t, 1, *r1.GroupCheckInCount)

	r2, err := svc.Submit(SubmitInput{UserID: bob.ID, GroupID: &group.ID})
	require.NoError(t, err)
	require.NotNil(t, r2.GroupCheckInCount)
	assert.Equal(t, 2, *r2.GroupCheckInCount)
	assert.Equal(t, 1, r2.UserCheckInCount)
}

func TestSubmitUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewCheckInService(db)

	_, err := svc.Submit(SubmitInput{UserID: 9999})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSubmitUnknownGroup(t *testing.T) {
	db := newTestDB(t)
	svc := NewCheckInService(db)
	user := createUser(t, db, "迷路的人")

	missing := uint(4242)
	_, err := svc.Submit(SubmitInput{UserID: user.ID, GroupID: &missing})
	assert.ErrorIs(t, err, ErrGroupNotFound)

	var total int64
	require.NoError(t, db.Model(&models.CheckIn{}).Count(&total).Error)
	assert.EqualValues(t, 0, total)
}

func TestApplyCheckInRollsBackAsUnit(t *testing.T) {
	db := newTestDB(t)
	svc := NewCheckInService(db)
	user := createUser(t, db, "试探者")

	// A dangling group id makes the group increment fail after the ledger
	// insert and user increment already ran inside the transaction.
	missing := uint(7777)
	record := models.CheckIn{
		UserID:  user.ID,
		GroupID: &missing,
		Date:    time.Now(),
		Status:  models.CheckInCompleted,
	}
	result := SubmitResult{}
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.applyCheckIn(tx, &record, &result)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	var total int64
	require.NoError(t, db.Model(&models.CheckIn{}).Count(&total).Error)
	assert.EqualValues(t, 0, total, "ledger insert must roll back")

	count, err := svc.Counters().UserCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "user counter must roll back")
}

func TestLedgerCompletedDaysAndListByRange(t *testing.T) {
	db := newTestDB(t)
	svc := NewCheckInService(db)
	user := createUser(t, db, "记录员")

	base := time.Date(2026, 8, 3, 9, 0, 0, 0, time.Local) // a Monday
	for i := 0; i < 3; i++ {
		_, err := svc.Submit(SubmitInput{UserID: user.ID, Now: base.AddDate(0, 0, i)})
		require.NoError(t, err)
	}

	days, err := svc.Ledger().CompletedDays(user.ID, 10)
	require.NoError(t, err)
	assert.Len(t, days, 3)

	records, err := svc.Ledger().ListByRange(user.ID, base.AddDate(0, 0, -1), base.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
