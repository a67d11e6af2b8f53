package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sweatcircle/sweatcircle/middleware"
	"github.com/sweatcircle/sweatcircle/models"
	"github.com/sweatcircle/sweatcircle/utils"
)

const tokenDuration = 7 * 24 * time.Hour

// AuthController handles nickname login and session endpoints.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Login authenticates by nickname and password. An unknown nickname is
// auto-registered on the spot, which is how the mini-program client expects
// first contact to work; passwords are only ever stored as bcrypt hashes.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Nickname string `json:"nickname" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	nickname := utils.Sanitize(req.Nickname)
	if l := len([]rune(nickname)); l < 2 || l > 15 {
		utils.Error(ctx, http.StatusBadRequest, 40002, "昵称长度需为2-15个字符")
		return
	}

	var user models.User
	err := a.db.Where("nickname = ?", nickname).First(&user).Error
	switch {
	case err == nil:
		if !utils.CheckPassword(user.PasswordHash, req.Password) {
			utils.Error(ctx, http.StatusUnauthorized, 40120, "用户名和密码无法匹配~")
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, hashErr := utils.HashPassword(req.Password)
		if hashErr != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to hash password")
			return
		}
		user = models.User{Nickname: nickname, PasswordHash: hash}
		if createErr := a.db.Create(&user).Error; createErr != nil {
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				// Raced another first login for the same nickname.
				utils.Error(ctx, http.StatusConflict, 40910, "昵称已被占用")
				return
			}
			utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to create user")
			return
		}
		utils.Sugar.Infof("auto-registered user %s (id=%d)", user.Nickname, user.ID)
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load user")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Nickname, tokenDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to issue token")
		return
	}

	utils.Respond(ctx, http.StatusOK, 0, "登录成功", gin.H{
		"id":       user.ID,
		"nickname": user.Nickname,
		"token":    token,
	})
}

// Logout revokes the presented token until its natural expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	tokenString := bearerToken(ctx)
	if tokenString == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	expiresAt := time.Now().Add(tokenDuration)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(tokenString, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's profile including the counter.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "用户不存在")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load user")
		return
	}

	utils.Success(ctx, gin.H{
		"id":           user.ID,
		"nickname":     user.Nickname,
		"checkInCount": user.CheckInCount,
		"created_at":   user.CreatedAt,
	})
}

func bearerToken(ctx *gin.Context) string {
	authHeader := ctx.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(authHeader) > len(prefix) && authHeader[:len(prefix)] == prefix {
		return authHeader[len(prefix):]
	}
	return ""
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}
