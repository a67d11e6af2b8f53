package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sweatcircle/sweatcircle/models"
	"github.com/sweatcircle/sweatcircle/utils"
)

func authRouter(db *gorm.DB) *gin.Engine {
	a := NewAuthController(db)
	r := gin.New()
	r.POST("/auth/login", a.Login)
	return r
}

func TestLoginAutoRegisters(t *testing.T) {
	db := newTestDB(t)
	r := authRouter(db)

	w := doJSON(t, r, "POST", "/auth/login", gin.H{"nickname": "新用户", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	code, data := decodeResponse(t, w)
	assert.Equal(t, 0, code)
	assert.Equal(t, "新用户", data["nickname"])
	assert.NotEmpty(t, data["token"])

	var user models.User
	require.NoError(t, db.Where("nickname = ?", "新用户").First(&user).Error)
	assert.NotEqual(t, "secret123", user.PasswordHash, "password must be stored hashed")
	assert.True(t, utils.CheckPassword(user.PasswordHash, "secret123"))
}

func TestLoginExistingUser(t *testing.T) {
	db := newTestDB(t)
	r := authRouter(db)

	w := doJSON(t, r, "POST", "/auth/login", gin.H{"nickname": "回头客", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "POST", "/auth/login", gin.H{"nickname": "回头客", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "second login must not create another user")
}

func TestLoginWrongPassword(t *testing.T) {
	db := newTestDB(t)
	r := authRouter(db)

	w := doJSON(t, r, "POST", "/auth/login", gin.H{"nickname": "健忘者", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "POST", "/auth/login", gin.H{"nickname": "健忘者", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	code, _ := decodeResponse(t, w)
	assert.Equal(t, 40120, code)
}

func TestLoginNicknameValidation(t *testing.T) {
	db := newTestDB(t)
	r := authRouter(db)

	w := doJSON(t, r, "POST", "/auth/login", gin.H{"nickname": "短", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "POST", "/auth/login", gin.H{"nickname": "正常昵称", "password": "12345"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "password under 6 chars rejected by binding")

	// Markup is stripped before the length check.
	w = doJSON(t, r, "POST", "/auth/login", gin.H{"nickname": "<b></b>", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
