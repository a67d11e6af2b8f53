package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sweatcircle/sweatcircle/models"
)

func checkinRouter(db *gorm.DB) *gin.Engine {
	c := NewCheckInController(db)
	r := gin.New()
	r.POST("/checkin", c.Submit)
	r.GET("/checks/:userId", c.ListChecks)
	r.GET("/checks/:userId/today", c.Today)
	r.GET("/checks/:userId/today/status", c.TodayStatus)
	r.GET("/checks/:userId/date/:date", c.ByDate)
	r.GET("/checks/:userId/week", c.Week)
	return r
}

func TestSubmitEndpoint(t *testing.T) {
	db := newTestDB(t)
	r := checkinRouter(db)
	user := createUser(t, db, "跑步达人")

	w := doJSON(t, r, "POST", "/checkin", gin.H{
		"userId":       user.ID,
		"exerciseType": "跑步",
		"startTime":    "07:00",
		"endTime":      "08:00",
		"notes":        "morning run",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	code, data := decodeResponse(t, w)
	assert.Equal(t, 0, code)
	assert.Equal(t, float64(1), data["userCheckInCount"])
	assert.Equal(t, models.CheckInCompleted, data["status"])
	assert.Nil(t, data["groupCheckInCount"])
}

func TestSubmitEndpointDuplicate(t *testing.T) {
	db := newTestDB(t)
	r := checkinRouter(db)
	user := createUser(t, db, "重复打卡者")

	w := doJSON(t, r, "POST", "/checkin", gin.H{"userId": user.ID, "exerciseType": "游泳"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "POST", "/checkin", gin.H{"userId": user.ID, "exerciseType": "瑜伽"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	code, data := decodeResponse(t, w)
	assert.Equal(t, 40030, code)
	assert.Equal(t, "游泳", data["exerciseType"])
}

func TestSubmitEndpointUnknownUser(t *testing.T) {
	db := newTestDB(t)
	r := checkinRouter(db)

	w := doJSON(t, r, "POST", "/checkin", gin.H{"userId": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)
	code, _ := decodeResponse(t, w)
	assert.Equal(t, 40404, code)
}

func TestSubmitEndpointMalformedGroupIgnored(t *testing.T) {
	db := newTestDB(t)
	r := checkinRouter(db)
	user := createUser(t, db, "无群之人")

	// A malformed group id degrades to a personal check-in.
	w := doJSON(t, r, "POST", "/checkin", gin.H{"userId": user.ID, "groupId": "not-a-number"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, data := decodeResponse(t, w)
	assert.Nil(t, data["groupId"])
	assert.Nil(t, data["groupCheckInCount"])
}

func TestSubmitEndpointUnknownGroup(t *testing.T) {
	db := newTestDB(t)
	r := checkinRouter(db)
	user := createUser(t, db, "找群之人")

	w := doJSON(t, r, "POST", "/checkin", gin.H{"userId": user.ID, "groupId": 4242})
	assert.Equal(t, http.StatusNotFound, w.Code)
	code, _ := decodeResponse(t, w)
	assert.Equal(t, 40405, code)
}

func TestSubmitEndpointInvalidStatus(t *testing.T) {
	db := newTestDB(t)
	r := checkinRouter(db)
	user := createUser(t, db, "状态错误")

	w := doJSON(t, r, "POST", "/checkin", gin.H{"userId": user.ID, "status": "paused"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTodayStatusEndpoint(t *testing.T) {
	db := newTestDB(t)
	r := checkinRouter(db)
	user := createUser(t, db, "状态查询者")

	w := doJSON(t, r, "GET", "/checks/1/today/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeResponse(t, w)
	assert.Equal(t, false, data["hasCheckedIn"])

	doJSON(t, r, "POST", "/checkin", gin.H{"userId": user.ID})

	w = doJSON(t, r, "GET", "/checks/1/today/status", nil)
	_, data = decodeResponse(t, w)
	assert.Equal(t, true, data["hasCheckedIn"])
}

func TestTodayEndpoint(t *testing.T) {
	db := newTestDB(t)
	r := checkinRouter(db)
	user := createUser(t, db, "今日打卡")

	w := doJSON(t, r, "GET", "/checks/1/today", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeResponse(t, w)
	assert.Equal(t, false, data["hasCheckedIn"])
	assert.Nil(t, data["checkInData"])

	doJSON(t, r, "POST", "/checkin", gin.H{"userId": user.ID, "startTime": "20:00", "endTime": "21:30"})

	w = doJSON(t, r, "GET", "/checks/1/today", nil)
	_, data = decodeResponse(t, w)
	assert.Equal(t, true, data["hasCheckedIn"])
	detail, ok := data["checkInData"].(map[string]interface{})
	require.True(t, ok)
	duration, ok := detail["duration"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(90), duration["totalMinutes"])
}

func TestByDateEndpointValidation(t *testing.T) {
	db := newTestDB(t)
	r := checkinRouter(db)
	createUser(t, db, "日期查询者")

	w := doJSON(t, r, "GET", "/checks/1/date/2026-8-9", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	today := time.Now().Format("2006-01-02")
	w = doJSON(t, r, "GET", "/checks/1/date/"+today, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeResponse(t, w)
	assert.Equal(t, false, data["hasCheckedIn"])
	assert.Equal(t, true, data["dateInfo"].(map[string]interface{})["isToday"])
}

func TestWeekEndpoint(t *testing.T) {
	db := newTestDB(t)
	r := checkinRouter(db)
	user := createUser(t, db, "周报读者")

	doJSON(t, r, "POST", "/checkin", gin.H{"userId": user.ID, "exerciseType": "骑行"})

	w := doJSON(t, r, "GET", "/checks/1/week?weekOffset=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decodeResponse(t, w)

	daily, ok := data["dailyData"].([]interface{})
	require.True(t, ok)
	assert.Len(t, daily, 7)

	stats := data["statistics"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["checkedInDays"])
	assert.Equal(t, float64(1), stats["completedDays"])
	assert.Equal(t, "14.3%", stats["checkInRate"])
}
