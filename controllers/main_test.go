package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sweatcircle/sweatcircle/config"
	"github.com/sweatcircle/sweatcircle/models"
	"github.com/sweatcircle/sweatcircle/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "controller-test-secret")
	gin.SetMode(gin.TestMode)
	if err := utils.InitLogger(config.Load()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

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

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) (int, map[string]interface{}) {
	t.Helper()
	var resp struct {
		Code    int                    `json:"code"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp.Code, resp.Data
}

func decodeListData(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	var resp struct {
		Data []interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp.Data
}
