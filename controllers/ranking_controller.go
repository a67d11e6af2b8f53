package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sweatcircle/sweatcircle/config"
	"github.com/sweatcircle/sweatcircle/models"
	"github.com/sweatcircle/sweatcircle/services"
	"github.com/sweatcircle/sweatcircle/utils"
)

// RankingController serves the user and group leaderboards. Ordering is done
// in process over counter snapshots so the database never needs session
// variables, and hot lists are cached in Redis.
type RankingController struct {
	db     *gorm.DB
	ledger *services.Ledger
}

// NewRankingController creates a new RankingController instance.
func NewRankingController(db *gorm.DB) *RankingController {
	return &RankingController{db: db, ledger: services.NewLedger(db)}
}

func rankingCacheTTL() time.Duration {
	return time.Duration(config.Get().RankingCacheTTLSec) * time.Second
}

func (r *RankingController) userEntries() ([]utils.RankEntry, error) {
	var users []models.User
	if err := r.db.Select("id", "nickname", "check_in_count", "created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	entries := make([]utils.RankEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, utils.RankEntry{
			ID:        u.ID,
			Name:      u.Nickname,
			Count:     u.CheckInCount,
			CreatedAt: u.CreatedAt,
		})
	}
	return entries, nil
}

func (r *RankingController) groupEntries() ([]utils.RankEntry, error) {
	var groups []models.Group
	if err := r.db.Select("id", "name", "check_in_count", "created_at").Find(&groups).Error; err != nil {
		return nil, err
	}
	entries := make([]utils.RankEntry, 0, len(groups))
	for _, g := range groups {
		entries = append(entries, utils.RankEntry{
			ID:        g.ID,
			Name:      g.Name,
			Count:     g.CheckInCount,
			CreatedAt: g.CreatedAt,
		})
	}
	return entries, nil
}

// Users returns the full user leaderboard.
func (r *RankingController) Users(ctx *gin.Context) {
	cacheKey := "cache:ranking:users"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	entries, err := r.userEntries()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load ranking")
		return
	}

	ranked := utils.Rank(entries)
	items := make([]gin.H, 0, len(ranked))
	for _, e := range ranked {
		items = append(items, gin.H{
			"rank":         e.Rank,
			"id":           e.ID,
			"nickname":     e.Name,
			"checkInCount": e.Count,
			"createdAt":    e.CreatedAt,
		})
	}

	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: items}
	utils.CacheSetJSON(cacheKey, wrapper, rankingCacheTTL())
	utils.Success(ctx, items)
}

// UsersTop50 returns the top 50 users with badges and board statistics.
func (r *RankingController) UsersTop50(ctx *gin.Context) {
	cacheKey := "cache:ranking:users:top50"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	entries, err := r.userEntries()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load ranking")
		return
	}

	top := utils.TopN(entries, 50)
	items := make([]gin.H, 0, len(top))
	maxCount := 0
	totalCount := 0
	for _, e := range top {
		if e.Count > maxCount {
			maxCount = e.Count
		}
		totalCount += e.Count
		items = append(items, gin.H{
			"rank":         e.Rank,
			"id":           e.ID,
			"nickname":     e.Name,
			"checkInCount": e.Count,
			"rankLevel":    utils.UserRankLevel(e.Rank),
		})
	}

	avg := 0.0
	if len(top) > 0 {
		avg = float64(totalCount) / float64(len(top))
	}
	activeToday, err := r.ledger.ActiveUsersOn(time.Now())
	if err != nil {
		activeToday = 0
	}

	data := gin.H{
		"rankings": items,
		"statistics": gin.H{
			"totalUsers":       len(items),
			"maxCheckInCount":  maxCount,
			"avgCheckInCount":  fmt.Sprintf("%.1f", avg),
			"todayActiveUsers": activeToday,
		},
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: data}
	utils.CacheSetJSON(cacheKey, wrapper, rankingCacheTTL())
	utils.Success(ctx, data)
}

// UserDetail returns one user's position: rank, percentile, neighbors, a
// window of nearby users, period statistics, and earned achievements.
func (r *RankingController) UserDetail(ctx *gin.Context) {
	userID, err := parseUintParam(ctx, "userId")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid user id")
		return
	}

	var user models.User
	if err := r.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "用户不存在")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load user")
		return
	}

	entries, err := r.userEntries()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load ranking")
		return
	}
	ranked := utils.Rank(entries)

	idx := -1
	for i, e := range ranked {
		if e.ID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		utils.Error(ctx, http.StatusNotFound, 40404, "用户不存在")
		return
	}
	me := ranked[idx]
	total := len(ranked)
	percentile := utils.Percentile(me.Rank, total)

	var previous, next gin.H
	if idx > 0 {
		p := ranked[idx-1]
		previous = gin.H{"rank": p.Rank, "nickname": p.Name, "checkInCount": p.Count, "gap": p.Count - me.Count}
	}
	if idx < total-1 {
		n := ranked[idx+1]
		next = gin.H{"rank": n.Rank, "nickname": n.Name, "checkInCount": n.Count, "lead": me.Count - n.Count}
	}

	lo := idx - 5
	if lo < 0 {
		lo = 0
	}
	hi := idx + 6
	if hi > total {
		hi = total
	}
	nearby := make([]gin.H, 0, hi-lo)
	for _, e := range ranked[lo:hi] {
		nearby = append(nearby, gin.H{
			"rank":         e.Rank,
			"id":           e.ID,
			"nickname":     e.Name,
			"checkInCount": e.Count,
			"isSelf":       e.ID == userID,
		})
	}

	now := time.Now()
	weekStart, _ := utils.WeekBounds(now, 0)
	thisWeek, err := r.ledger.CountCompletedSince(userID, weekStart)
	if err != nil {
		thisWeek = 0
	}
	thisMonth, err := r.ledger.CountCompletedSince(userID, utils.MonthStart(now))
	if err != nil {
		thisMonth = 0
	}

	// 366 days is enough history to measure any streak worth bragging about.
	days, err := r.ledger.CompletedDays(userID, 366)
	if err != nil {
		days = nil
	}
	streak := utils.ConsecutiveDays(days, now)

	utils.Success(ctx, gin.H{
		"user": gin.H{
			"id":           user.ID,
			"nickname":     user.Nickname,
			"checkInCount": user.CheckInCount,
		},
		"rank":       me.Rank,
		"totalUsers": total,
		"percentile": percentile,
		"rankLevel":  utils.UserRankLevel(me.Rank),
		"previous":   previous,
		"next":       next,
		"nearby":     nearby,
		"statistics": gin.H{
			"thisWeek":        thisWeek,
			"thisMonth":       thisMonth,
			"consecutiveDays": streak,
		},
		"achievements": utils.Achievements(user.CheckInCount, me.Rank, percentile),
	})
}

// Groups returns the full group leaderboard with member counts.
func (r *RankingController) Groups(ctx *gin.Context) {
	cacheKey := "cache:ranking:groups"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	entries, err := r.groupEntries()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to load ranking")
		return
	}
	memberCounts, err := r.memberCounts()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to load members")
		return
	}

	ranked := utils.Rank(entries)
	items := make([]gin.H, 0, len(ranked))
	for _, e := range ranked {
		items = append(items, gin.H{
			"rank":         e.Rank,
			"id":           e.ID,
			"name":         e.Name,
			"checkInCount": e.Count,
			"memberCount":  memberCounts[e.ID],
			"createdAt":    e.CreatedAt,
		})
	}

	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: items}
	utils.CacheSetJSON(cacheKey, wrapper, rankingCacheTTL())
	utils.Success(ctx, items)
}

// GroupsTop50 returns the top 50 groups with badges.
func (r *RankingController) GroupsTop50(ctx *gin.Context) {
	cacheKey := "cache:ranking:groups:top50"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	entries, err := r.groupEntries()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to load ranking")
		return
	}
	memberCounts, err := r.memberCounts()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to load members")
		return
	}

	top := utils.TopN(entries, 50)
	items := make([]gin.H, 0, len(top))
	maxCount := 0
	for _, e := range top {
		if e.Count > maxCount {
			maxCount = e.Count
		}
		avgPerMember := "0.0"
		if members := memberCounts[e.ID]; members > 0 {
			avgPerMember = fmt.Sprintf("%.1f", float64(e.Count)/float64(members))
		}
		items = append(items, gin.H{
			"rank":         e.Rank,
			"id":           e.ID,
			"name":         e.Name,
			"checkInCount": e.Count,
			"memberCount":  memberCounts[e.ID],
			"avgPerMember": avgPerMember,
			"rankLevel":    utils.GroupRankLevel(e.Rank),
		})
	}

	data := gin.H{
		"rankings": items,
		"statistics": gin.H{
			"totalGroups":     len(items),
			"maxCheckInCount": maxCount,
		},
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: data}
	utils.CacheSetJSON(cacheKey, wrapper, rankingCacheTTL())
	utils.Success(ctx, data)
}

// Overview returns the head of both leaderboards in one call for dashboards.
// The limit query defaults to 10 and caps at 50.
func (r *RankingController) Overview(ctx *gin.Context) {
	limit := 10
	if raw := ctx.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 50 {
		limit = 50
	}

	cacheKey := fmt.Sprintf("cache:ranking:overview:%d", limit)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	userEntries, err := r.userEntries()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to load ranking")
		return
	}
	groupEntries, err := r.groupEntries()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to load ranking")
		return
	}

	topUsers := make([]gin.H, 0, limit)
	for _, e := range utils.TopN(userEntries, limit) {
		topUsers = append(topUsers, gin.H{
			"rank":         e.Rank,
			"id":           e.ID,
			"nickname":     e.Name,
			"checkInCount": e.Count,
		})
	}
	topGroups := make([]gin.H, 0, limit)
	for _, e := range utils.TopN(groupEntries, limit) {
		topGroups = append(topGroups, gin.H{
			"rank":         e.Rank,
			"id":           e.ID,
			"name":         e.Name,
			"checkInCount": e.Count,
		})
	}

	activeToday, err := r.ledger.ActiveUsersOn(time.Now())
	if err != nil {
		activeToday = 0
	}

	data := gin.H{
		"users":  topUsers,
		"groups": topGroups,
		"limit":  limit,
		"statistics": gin.H{
			"todayActiveUsers": activeToday,
		},
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: data}
	utils.CacheSetJSON(cacheKey, wrapper, rankingCacheTTL())
	utils.Success(ctx, data)
}

func (r *RankingController) memberCounts() (map[uint]int64, error) {
	var rows []struct {
		GroupID uint
		Total   int64
	}
	err := r.db.Model(&models.GroupMember{}).
		Select("group_id", "COUNT(*) AS total").
		Group("group_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.GroupID] = row.Total
	}
	return counts, nil
}
