package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sweatcircle/sweatcircle/models"
	"github.com/sweatcircle/sweatcircle/utils"
)

// GroupController manages group lifecycle and membership.
type GroupController struct {
	db *gorm.DB
}

// NewGroupController creates a new GroupController instance.
func NewGroupController(db *gorm.DB) *GroupController {
	return &GroupController{db: db}
}

// Create makes a new group with the creator as first member plus any listed
// members, all inserted in one transaction.
func (g *GroupController) Create(ctx *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		CreatorID uint   `json:"creatorId" binding:"required"`
		MemberIDs []uint `json:"memberIds"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid request payload")
		return
	}

	name := utils.Sanitize(req.Name)
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40042, "请输入群组名称")
		return
	}

	var creator models.User
	if err := g.db.First(&creator, req.CreatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40440, "创建者不存在")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load creator")
		return
	}

	var existing models.Group
	if err := g.db.Where("name = ?", name).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusBadRequest, 40043, "群组名称已存在")
		return
	}

	group := models.Group{Name: name, CreatorID: req.CreatorID}
	err := g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		members := []models.GroupMember{{GroupID: group.ID, UserID: req.CreatorID}}
		for _, memberID := range utils.UniqueUint(req.MemberIDs) {
			if memberID == req.CreatorID || memberID == 0 {
				continue
			}
			members = append(members, models.GroupMember{GroupID: group.ID, UserID: memberID})
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusBadRequest, 40043, "群组名称已存在")
			return
		}
		utils.Sugar.Errorf("group create failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to create group")
		return
	}

	utils.InvalidateByPrefix("cache:groups:")

	summary, err := g.groupSummary(group.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load group")
		return
	}
	utils.Respond(ctx, http.StatusOK, 0, "群组创建成功", summary)
}

// List returns all groups with member summaries, newest first.
func (g *GroupController) List(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes("cache:groups:list"); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var groups []models.Group
	if err := g.db.Order("created_at DESC").Find(&groups).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to list groups")
		return
	}

	summaries, err := g.summarize(groups)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load members")
		return
	}

	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: summaries}
	utils.CacheSetJSON("cache:groups:list", wrapper, 5*time.Minute)
	utils.Success(ctx, summaries)
}

// Search finds groups by name substring.
func (g *GroupController) Search(ctx *gin.Context) {
	name := strings.TrimSpace(ctx.Query("name"))
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40042, "请输入群组名称")
		return
	}

	var groups []models.Group
	if err := g.db.Where("name LIKE ?", "%"+name+"%").Order("created_at DESC").Find(&groups).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to search groups")
		return
	}

	items := make([]gin.H, 0, len(groups))
	for _, grp := range groups {
		var memberCount int64
		if err := g.db.Model(&models.GroupMember{}).Where("group_id = ?", grp.ID).Count(&memberCount).Error; err != nil {
			memberCount = 0
		}
		items = append(items, gin.H{
			"id":          grp.ID,
			"name":        grp.Name,
			"creator":     grp.CreatorID,
			"memberCount": memberCount,
			"createdAt":   grp.CreatedAt,
		})
	}
	utils.Success(ctx, items)
}

// ByCreator returns all groups owned by a user.
func (g *GroupController) ByCreator(ctx *gin.Context) {
	creatorID, err := parseUintParam(ctx, "creatorId")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40044, "invalid creator id")
		return
	}
	var creator models.User
	if err := g.db.Select("id").First(&creator, creatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40440, "创建者不存在")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to load creator")
		return
	}

	var groups []models.Group
	if err := g.db.Where("creator_id = ?", creatorID).Order("created_at DESC").Find(&groups).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to list groups")
		return
	}
	g.respondSummaries(ctx, groups)
}

// ByMember returns all groups a user belongs to.
func (g *GroupController) ByMember(ctx *gin.Context) {
	memberID, err := parseUintParam(ctx, "memberId")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40044, "invalid member id")
		return
	}

	var groups []models.Group
	err = g.db.Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", memberID).
		Find(&groups).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to list groups")
		return
	}
	g.respondSummaries(ctx, groups)
}

// NotJoined returns the groups a user has not joined yet.
func (g *GroupController) NotJoined(ctx *gin.Context) {
	userID, err := parseUintParam(ctx, "userId")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40044, "invalid user id")
		return
	}

	var groups []models.Group
	err = g.db.Where("id NOT IN (?)",
		g.db.Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", userID),
	).Find(&groups).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to list groups")
		return
	}
	g.respondSummaries(ctx, groups)
}

// Join adds a user to a group; already-joined answers 400.
func (g *GroupController) Join(ctx *gin.Context) {
	groupID, err := parseUintParam(ctx, "groupId")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40045, "invalid group id")
		return
	}
	var req struct {
		UserID uint `json:"userId" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid request payload")
		return
	}

	var user models.User
	if err := g.db.Select("id").First(&user, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "用户不存在")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50047, "failed to load user")
		return
	}
	var group models.Group
	if err := g.db.First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40441, "群组不存在")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50047, "failed to load group")
		return
	}

	member := models.GroupMember{GroupID: groupID, UserID: req.UserID}
	if err := g.db.Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusBadRequest, 40046, "用户已在群组中")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50047, "failed to join group")
		return
	}

	utils.InvalidateByPrefix("cache:groups:")

	summary, err := g.groupSummary(groupID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50047, "failed to load group")
		return
	}
	utils.Respond(ctx, http.StatusOK, 0, "加入群组成功", summary)
}

// RemoveMember removes a member; creator-only. Removing the creator promotes
// the longest-standing remaining member, and a sole-member group refuses the
// removal.
func (g *GroupController) RemoveMember(ctx *gin.Context) {
	groupID, err := parseUintParam(ctx, "groupId")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40045, "invalid group id")
		return
	}
	var req struct {
		UserID   uint `json:"userId" binding:"required"`
		MemberID uint `json:"memberId" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid request payload")
		return
	}

	var group models.Group
	if err := g.db.First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40441, "群组不存在")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50048, "failed to load group")
		return
	}
	if group.CreatorID != req.UserID {
		utils.Error(ctx, http.StatusForbidden, 40340, "只有群主可以删除群组成员")
		return
	}

	var membership models.GroupMember
	if err := g.db.Where("group_id = ? AND user_id = ?", groupID, req.MemberID).First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40442, "群组成员不存在")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50048, "failed to load membership")
		return
	}

	err = g.db.Transaction(func(tx *gorm.DB) error {
		if group.CreatorID == req.MemberID {
			var successor models.GroupMember
			err := tx.Where("group_id = ? AND user_id != ?", groupID, req.MemberID).
				Order("created_at ASC").First(&successor).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errSoleMember
			}
			if err != nil {
				return err
			}
			if err := tx.Model(&models.Group{}).Where("id = ?", groupID).
				Update("creator_id", successor.UserID).Error; err != nil {
				return err
			}
		}
		return tx.Where("group_id = ? AND user_id = ?", groupID, req.MemberID).
			Delete(&models.GroupMember{}).Error
	})
	if err != nil {
		if errors.Is(err, errSoleMember) {
			utils.Error(ctx, http.StatusBadRequest, 40047, "群组中只有群主一名成员，无法删除")
			return
		}
		utils.Sugar.Errorf("remove member failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50048, "failed to remove member")
		return
	}

	utils.InvalidateByPrefix("cache:groups:")

	summary, err := g.groupSummary(groupID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50048, "failed to load group")
		return
	}
	utils.Respond(ctx, http.StatusOK, 0, "群组成员删除成功", summary)
}

var errSoleMember = errors.New("group has no other members")

// TransferOwner hands the group to another member; creator-only.
func (g *GroupController) TransferOwner(ctx *gin.Context) {
	groupID, err := parseUintParam(ctx, "groupId")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40045, "invalid group id")
		return
	}
	var req struct {
		CurrentOwnerID uint `json:"currentOwnerId" binding:"required"`
		NewOwnerID     uint `json:"newOwnerId" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid request payload")
		return
	}

	var group models.Group
	if err := g.db.First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40441, "群组不存在")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50049, "failed to load group")
		return
	}
	if group.CreatorID != req.CurrentOwnerID {
		utils.Error(ctx, http.StatusForbidden, 40341, "只有群主可以转让群组所有权")
		return
	}

	var membership models.GroupMember
	if err := g.db.Where("group_id = ? AND user_id = ?", groupID, req.NewOwnerID).First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40443, "指定的新群主不是群组成员")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50049, "failed to load membership")
		return
	}

	if err := g.db.Model(&models.Group{}).Where("id = ?", groupID).
		Update("creator_id", req.NewOwnerID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50049, "failed to transfer ownership")
		return
	}

	utils.InvalidateByPrefix("cache:groups:")

	utils.Respond(ctx, http.StatusOK, 0, "群主转让成功", gin.H{
		"groupId":    groupID,
		"newCreator": req.NewOwnerID,
	})
}

// memberSummary is one member entry in a group summary. The client reads the
// mongo-era "_id" key, kept for compatibility.
type memberSummary struct {
	ID           uint   `json:"_id"`
	Nickname     string `json:"nickname"`
	CheckInCount int    `json:"checkInCount"`
}

// summarize renders groups with their member lists using one membership query.
func (g *GroupController) summarize(groups []models.Group) ([]gin.H, error) {
	ids := make([]uint, 0, len(groups))
	for _, grp := range groups {
		ids = append(ids, grp.ID)
	}

	membersByGroup := map[uint][]memberSummary{}
	if len(ids) > 0 {
		var rows []struct {
			GroupID      uint
			UserID       uint
			Nickname     string
			CheckInCount int
		}
		err := g.db.Model(&models.GroupMember{}).
			Select("group_members.group_id", "users.id AS user_id", "users.nickname", "users.check_in_count").
			Joins("JOIN users ON users.id = group_members.user_id").
			Where("group_members.group_id IN ?", ids).
			Order("group_members.created_at ASC").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			membersByGroup[row.GroupID] = append(membersByGroup[row.GroupID], memberSummary{
				ID:           row.UserID,
				Nickname:     row.Nickname,
				CheckInCount: row.CheckInCount,
			})
		}
	}

	out := make([]gin.H, 0, len(groups))
	for _, grp := range groups {
		members := membersByGroup[grp.ID]
		if members == nil {
			members = []memberSummary{}
		}
		out = append(out, gin.H{
			"id":           grp.ID,
			"name":         grp.Name,
			"creator":      grp.CreatorID,
			"members":      members,
			"checkInCount": grp.CheckInCount,
			"createdAt":    grp.CreatedAt,
		})
	}
	return out, nil
}

func (g *GroupController) respondSummaries(ctx *gin.Context, groups []models.Group) {
	summaries, err := g.summarize(groups)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load members")
		return
	}
	utils.Success(ctx, summaries)
}

func (g *GroupController) groupSummary(groupID uint) (gin.H, error) {
	var group models.Group
	if err := g.db.First(&group, groupID).Error; err != nil {
		return nil, err
	}
	summaries, err := g.summarize([]models.Group{group})
	if err != nil {
		return nil, err
	}
	return summaries[0], nil
}
