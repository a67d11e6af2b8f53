package controllers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sweatcircle/sweatcircle/models"
	"github.com/sweatcircle/sweatcircle/services"
	"github.com/sweatcircle/sweatcircle/utils"
)

// CheckInController exposes check-in submission and the check-in history and
// report views.
type CheckInController struct {
	db      *gorm.DB
	service *services.CheckInService
}

// NewCheckInController creates a controller backed by a CheckInService.
func NewCheckInController(db *gorm.DB) *CheckInController {
	return &CheckInController{db: db, service: services.NewCheckInService(db)}
}

var weekDayNames = []string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}
var sundayFirstDayNames = []string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}
var dateParamPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Submit records today's check-in for a user, optionally attributed to a
// group. A same-day duplicate answers 400 with the existing record's summary.
func (c *CheckInController) Submit(ctx *gin.Context) {
	var req struct {
		UserID       uint   `json:"userId" binding:"required"`
		GroupID      any    `json:"groupId"`
		Status       string `json:"status"`
		ExerciseType string `json:"exerciseType"`
		StartTime    string `json:"startTime"`
		EndTime      string `json:"endTime"`
		Notes        string `json:"notes"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid request payload")
		return
	}

	status := req.Status
	if status == "" {
		status = models.CheckInCompleted
	}
	if status != models.CheckInCompleted && status != models.CheckInSkipped {
		utils.Error(ctx, http.StatusBadRequest, 40032, "status must be completed or skipped")
		return
	}

	result, err := c.service.Submit(services.SubmitInput{
		UserID:       req.UserID,
		GroupID:      coerceGroupID(req.GroupID),
		Status:       status,
		ExerciseType: utils.Sanitize(req.ExerciseType),
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Notes:        utils.Sanitize(req.Notes),
	})
	if err != nil {
		var dup *services.DuplicateCheckInError
		switch {
		case errors.As(err, &dup):
			data := gin.H{}
			if dup.Existing != nil {
				data = gin.H{
					"checkId":      dup.Existing.ID,
					"status":       dup.Existing.Status,
					"exerciseType": dup.Existing.ExerciseType,
					"startTime":    dup.Existing.StartTime,
					"endTime":      dup.Existing.EndTime,
				}
			}
			utils.Respond(ctx, http.StatusBadRequest, 40030, "今天已经打卡过了", data)
		case errors.Is(err, services.ErrUserNotFound):
			utils.Error(ctx, http.StatusNotFound, 40404, "用户不存在")
		case errors.Is(err, services.ErrGroupNotFound):
			utils.Error(ctx, http.StatusNotFound, 40405, "群组不存在")
		default:
			utils.Sugar.Errorf("check-in submit failed: %v", err)
			utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to record check-in")
		}
		return
	}

	// Counters changed; ranking caches are stale.
	utils.InvalidateByPrefix("cache:ranking:")
	if result.GroupCheckInCount != nil {
		utils.InvalidateByPrefix("cache:groups:")
	}

	record := result.Record
	utils.Respond(ctx, http.StatusOK, 0, "打卡成功", gin.H{
		"checkId":           record.ID,
		"userId":            record.UserID,
		"groupId":           record.GroupID,
		"date":              record.Date,
		"status":            record.Status,
		"exerciseType":      record.ExerciseType,
		"startTime":         record.StartTime,
		"endTime":           record.EndTime,
		"notes":             record.Notes,
		"userCheckInCount":  result.UserCheckInCount,
		"groupCheckInCount": result.GroupCheckInCount,
	})
}

// coerceGroupID preserves the observed leniency of the original API: empty or
// malformed group ids mean "no group" rather than an error.
func coerceGroupID(raw any) *uint {
	switch v := raw.(type) {
	case float64:
		if v > 0 {
			id := uint(v)
			return &id
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			id := uint(n)
			return &id
		}
	}
	return nil
}

// ListChecks returns all of a user's check-ins, newest first.
func (c *CheckInController) ListChecks(ctx *gin.Context) {
	userID, ok := c.requireUser(ctx)
	if !ok {
		return
	}

	records, err := c.service.Ledger().ListByUser(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to list check-ins")
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, r := range records {
		items = append(items, gin.H{
			"id":     r.ID,
			"date":   r.Date,
			"status": r.Status,
			"notes":  r.Notes,
		})
	}
	utils.Success(ctx, items)
}

// Today returns the user's check-in (if any) for the current day plus day and
// user context for the client's home card.
func (c *CheckInController) Today(ctx *gin.Context) {
	userID, ok := c.requireUser(ctx)
	if !ok {
		return
	}

	now := time.Now()
	record, err := c.service.Ledger().FindByDay(userID, now)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load today's check-in")
		return
	}

	var user models.User
	if err := c.db.Select("id", "nickname", "check_in_count").First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load user")
		return
	}

	todayInfo := gin.H{
		"date":    now.Format("2006-01-02"),
		"dayName": sundayFirstDayNames[int(now.Weekday())],
	}
	userInfo := gin.H{"id": user.ID, "nickname": user.Nickname, "checkInCount": user.CheckInCount}

	if record == nil {
		utils.Respond(ctx, http.StatusOK, 0, "今日尚未打卡", gin.H{
			"hasCheckedIn": false,
			"todayInfo":    todayInfo,
			"userInfo":     userInfo,
			"checkInData":  nil,
		})
		return
	}

	utils.Respond(ctx, http.StatusOK, 0, "获取今日打卡信息成功", gin.H{
		"hasCheckedIn": true,
		"todayInfo":    todayInfo,
		"userInfo":     userInfo,
		"checkInData":  c.checkInDetail(record),
	})
}

// TodayStatus is the lightweight has-checked-in probe the client polls.
func (c *CheckInController) TodayStatus(ctx *gin.Context) {
	userID, err := parseUintParam(ctx, "userId")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40033, "invalid user id")
		return
	}

	checked, lookupErr := c.service.Ledger().HasCheckedInToday(userID, time.Now())
	if lookupErr != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to check status")
		return
	}

	message := "今日未打卡"
	if checked {
		message = "今日已打卡"
	}
	utils.Respond(ctx, http.StatusOK, 0, message, gin.H{
		"userId":       userID,
		"date":         time.Now().Format("2006-01-02"),
		"hasCheckedIn": checked,
	})
}

// ByDate returns the user's check-in records for a specific YYYY-MM-DD day.
func (c *CheckInController) ByDate(ctx *gin.Context) {
	userID, ok := c.requireUser(ctx)
	if !ok {
		return
	}

	dateStr := ctx.Param("date")
	if !dateParamPattern.MatchString(dateStr) {
		utils.Error(ctx, http.StatusBadRequest, 40034, "日期格式错误，请使用 YYYY-MM-DD 格式")
		return
	}
	day, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40034, "无效的日期")
		return
	}

	start, end := utils.DayBounds(day)
	records, err := c.service.Ledger().ListByRange(userID, start, end)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to load check-ins")
		return
	}

	details := make([]gin.H, 0, len(records))
	for i := range records {
		details = append(details, c.checkInDetail(&records[i]))
	}

	dateInfo := gin.H{
		"date":    dateStr,
		"dayName": sundayFirstDayNames[int(day.Weekday())],
		"isToday": utils.SameDay(day, time.Now()),
	}

	payload := gin.H{
		"hasCheckedIn":   len(details) > 0,
		"dateInfo":       dateInfo,
		"checkInRecords": details,
		"totalRecords":   len(details),
	}
	if len(details) > 0 {
		payload["primaryCheckIn"] = details[len(details)-1]
	} else {
		payload["primaryCheckIn"] = nil
	}
	utils.Success(ctx, payload)
}

// LastWeek returns the previous Monday-to-Sunday report.
func (c *CheckInController) LastWeek(ctx *gin.Context) {
	c.weekReport(ctx, -1)
}

// Week returns the report for an arbitrary week offset (0 = this week,
// -1 = last week).
func (c *CheckInController) Week(ctx *gin.Context) {
	offset := -1
	if v := ctx.Query("weekOffset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	c.weekReport(ctx, offset)
}

func (c *CheckInController) weekReport(ctx *gin.Context, offset int) {
	userID, ok := c.requireUser(ctx)
	if !ok {
		return
	}

	weekStart, weekEnd := utils.WeekBounds(time.Now(), offset)
	records, err := c.service.Ledger().ListByRange(userID, weekStart, weekEnd)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to load week data")
		return
	}

	byDay := make(map[string]*models.CheckIn, len(records))
	for i := range records {
		byDay[records[i].Date.In(time.Local).Format("2006-01-02")] = &records[i]
	}

	dailyData := make([]gin.H, 0, 7)
	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		key := day.Format("2006-01-02")
		entry := gin.H{
			"date":         key,
			"dayName":      weekDayNames[i],
			"hasCheckedIn": false,
			"checkInData":  nil,
		}
		if r, found := byDay[key]; found {
			entry["hasCheckedIn"] = true
			entry["checkInData"] = c.checkInDetail(r)
		}
		dailyData = append(dailyData, entry)
	}

	completed, skipped := 0, 0
	exerciseTypeStats := map[string]int{}
	for _, r := range records {
		switch r.Status {
		case models.CheckInCompleted:
			completed++
		case models.CheckInSkipped:
			skipped++
		}
		if r.ExerciseType != "" {
			exerciseTypeStats[r.ExerciseType]++
		}
	}

	utils.Success(ctx, gin.H{
		"userId":     userID,
		"weekOffset": offset,
		"weekPeriod": gin.H{
			"start": weekStart.Format("2006-01-02"),
			"end":   weekEnd.Format("2006-01-02"),
		},
		"statistics": gin.H{
			"totalDays":         7,
			"checkedInDays":     len(records),
			"completedDays":     completed,
			"skippedDays":       skipped,
			"checkInRate":       strconv.FormatFloat(float64(len(records))/7*100, 'f', 1, 64) + "%",
			"exerciseTypeStats": exerciseTypeStats,
		},
		"dailyData": dailyData,
	})
}

// checkInDetail renders one record, including the derived exercise duration
// when both start and end times parse.
func (c *CheckInController) checkInDetail(r *models.CheckIn) gin.H {
	detail := gin.H{
		"id":           r.ID,
		"userId":       r.UserID,
		"groupId":      r.GroupID,
		"date":         r.Date,
		"status":       r.Status,
		"exerciseType": r.ExerciseType,
		"startTime":    r.StartTime,
		"endTime":      r.EndTime,
		"notes":        r.Notes,
		"checkInTime":  r.Date,
		"createdAt":    r.CreatedAt,
	}
	if d := exerciseDuration(r.StartTime, r.EndTime); d != nil {
		detail["duration"] = d
	}
	return detail
}

func exerciseDuration(startStr, endStr string) gin.H {
	if startStr == "" || endStr == "" {
		return nil
	}
	start, err1 := time.Parse("15:04", startStr)
	end, err2 := time.Parse("15:04", endStr)
	if err1 != nil || err2 != nil || !end.After(start) {
		return nil
	}
	total := int(end.Sub(start).Minutes())
	hours, minutes := total/60, total%60
	formatted := strconv.Itoa(minutes) + "分钟"
	if hours > 0 {
		formatted = strconv.Itoa(hours) + "小时" + formatted
	}
	return gin.H{
		"hours":        hours,
		"minutes":      minutes,
		"totalMinutes": total,
		"formatted":    formatted,
	}
}

// requireUser parses the :userId path param and answers 404 when the user
// does not exist.
func (c *CheckInController) requireUser(ctx *gin.Context) (uint, bool) {
	userID, err := parseUintParam(ctx, "userId")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40033, "invalid user id")
		return 0, false
	}
	var user models.User
	if err := c.db.Select("id").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "用户不存在")
			return 0, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to load user")
		return 0, false
	}
	return userID, true
}

func parseUintParam(ctx *gin.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}
