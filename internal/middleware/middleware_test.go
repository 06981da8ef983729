package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/memory"
	"unicarpool/internal/utils"
	apperrors "unicarpool/pkg/errors"
	"unicarpool/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "middleware-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func tokenFor(t *testing.T, userID primitive.ObjectID) string {
	t.Helper()
	token, err := utils.GenerateAccessToken(userID, "B00123456", testSecret, time.Hour)
	require.NoError(t, err)
	return token.Token
}

func TestAuthRequired(t *testing.T) {
	userID := primitive.NewObjectID()

	router := gin.New()
	router.GET("/me", AuthRequired(testSecret), func(c *gin.Context) {
		id, ok := GetUserID(c)
		require.True(t, ok)
		c.String(http.StatusOK, id.Hex())
	})

	cases := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", status: http.StatusUnauthorized},
		{name: "valid header", header: "Bearer " + tokenFor(t, userID), status: http.StatusOK},
		{name: "query fallback", query: "?token=" + tokenFor(t, userID), status: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, userID.Hex(), w.Body.String())
			} else {
				assert.Equal(t, apperrors.CodeUnauthorized, errorCode(t, w))
			}
		})
	}
}

func TestAuthRequiredRejectsOtherSecret(t *testing.T) {
	token, err := utils.GenerateAccessToken(primitive.NewObjectID(), "B00123456", "another-secret", time.Hour)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", AuthRequired(testSecret), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleRequiredFollowsPersistedActiveRole(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	both := &models.User{
		BannerID:    "B00000001",
		SchoolEmail: "both@dal.ca",
		Roles:       []models.Role{models.RoleRider, models.RoleDriver},
		ActiveRole:  models.RoleRider,
	}
	riderOnly := &models.User{
		BannerID:    "B00000002",
		SchoolEmail: "rider@dal.ca",
		Roles:       []models.Role{models.RoleRider},
		ActiveRole:  models.RoleRider,
	}
	require.NoError(t, users.Create(ctx, both))
	require.NoError(t, users.Create(ctx, riderOnly))

	router := gin.New()
	router.GET("/driver", AuthRequired(testSecret), RoleRequired(models.RoleDriver, users), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	call := func(user *models.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/driver", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, user.ID))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := call(riderOnly)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.CodeRoleNotHeld, errorCode(t, w))

	w = call(both)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperrors.CodeRoleNotActive, errorCode(t, w))

	require.NoError(t, users.UpdateRoles(ctx, both.ID, both.Roles, models.RoleDriver))
	assert.Equal(t, http.StatusOK, call(both).Code)

	w = call(&models.User{ID: primitive.NewObjectID()})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, logger.RequestIDFromContext(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "trace-42")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "trace-42", w.Header().Get("X-Request-ID"))
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(2, logger.NewNop())
	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	limiter.Cleanup(time.Now().Add(time.Hour))
	assert.Empty(t, limiter.visitors)
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RecoveryMiddleware(logger.NewNop()))
	router.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.CodeInternal, errorCode(t, w))
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestCORSMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware([]string{"https://carpool.dal.ca"}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://carpool.dal.ca")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://carpool.dal.ca", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
