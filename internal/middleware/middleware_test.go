package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/pkg/apperrors"
	"github.com/admissions/portal/internal/pkg/auth"
	"github.com/admissions/portal/internal/pkg/filestorage"
	"github.com/admissions/portal/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "middleware-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: time.Hour,
		TokenIssuer:     "admissions.test",
	})
}

func tokenFor(t *testing.T, j *auth.JWTService, id int64, role models.RoleType) string {
	t.Helper()
	pair, err := j.GenerateTokenPair(&models.User{ID: id, Email: "u@example.com", RoleType: role})
	require.NoError(t, err)
	return pair.AccessToken
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestJWTAuthAndRoles(t *testing.T) {
	j := newJWT()
	mw := NewAuthMiddleware(j)

	r := gin.New()
	r.GET("/me", mw.JWTAuth(), func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": actor.UserID, "role": actor.Role})
	})
	r.GET("/admin", mw.JWTAuth(), mw.RolesRequired(models.RoleAdmin, models.RoleCounsellor), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		path     string
		header   string
		wantCode int
		wantErr  dto.ErrorCode
	}{
		{"missing header", "/me", "", http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"garbage token", "/me", "Bearer not.a.jwt", http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{"bearer student", "/me", "Bearer " + tokenFor(t, j, 7, models.RoleStudent), http.StatusOK, ""},
		{"raw token", "/me", tokenFor(t, j, 7, models.RoleStudent), http.StatusOK, ""},
		{"student on admin route", "/admin", "Bearer " + tokenFor(t, j, 7, models.RoleStudent), http.StatusForbidden, dto.ErrorCodeForbidden},
		{"counsellor on admin route", "/admin", "Bearer " + tokenFor(t, j, 8, models.RoleCounsellor), http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeError(t, rec).Error.Code)
			}
		})
	}
}

func TestJWTAuth_QueryToken(t *testing.T) {
	j := newJWT()
	r := gin.New()
	r.GET("/me", NewAuthMiddleware(j).JWTAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me?token="+tokenFor(t, j, 3, models.RoleAdmin), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  dto.ErrorCode
		wantMsg  string
	}{
		{"not found", fmt.Errorf("load: %w", apperrors.ErrApplicationNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Application not found"},
		{"forbidden with message", apperrors.NewForbiddenError("only the applicant can modify this application"), http.StatusForbidden, dto.ErrorCodeForbidden, "only the applicant can modify this application"},
		{"invalid state", apperrors.NewInvalidStateError("application is SUBMITTED"), http.StatusBadRequest, dto.ErrorCodeInvalidState, "application is SUBMITTED"},
		{"invalid transition", apperrors.NewInvalidTransitionError("DRAFT", "ACCEPTED"), http.StatusBadRequest, dto.ErrorCodeInvalidTransition, "cannot move application from DRAFT to ACCEPTED"},
		{"too large", apperrors.ErrFileTooLarge, http.StatusRequestEntityTooLarge, dto.ErrorCodeFileTooLarge, "File too large"},
		{"duplicate email", apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists"},
		{"bad credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
		{"disabled", apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeAccountDisabled, "Account is disabled"},
		{"expired link", filestorage.ErrLinkExpired, http.StatusForbidden, dto.ErrorCodeLinkInvalid, "Download link expired"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			body := decodeError(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantErr, body.Error.Code)
			assert.Equal(t, tt.wantMsg, body.Error.Message)
		})
	}
}

func TestHandleAPIError_ProfileIncomplete(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	HandleAPIError(c, fmt.Errorf("submit: %w", apperrors.NewProfileIncompleteError(60, 80, []string{"passportNumber"})))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body dto.ProfileIncompleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.True(t, body.RequiresProfileCompletion)
	assert.Equal(t, []string{apperrors.ReasonProfileIncomplete}, body.BlockingReasons)
	assert.Equal(t, dto.ErrorCodeProfileIncomplete, body.Error.Code)
	assert.Equal(t, 60, body.ProfileCompletion.Score)
	assert.Equal(t, 80, body.ProfileCompletion.Threshold)
	assert.Equal(t, []string{"passportNumber"}, body.ProfileCompletion.MissingFields)
}

func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter()
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "k", 2, time.Minute))
	assert.True(t, l.Allow(ctx, "k", 2, time.Minute))
	assert.False(t, l.Allow(ctx, "k", 2, time.Minute))
	assert.True(t, l.Allow(ctx, "other", 2, time.Minute))

	now = now.Add(61 * time.Second)
	assert.True(t, l.Allow(ctx, "k", 2, time.Minute))
}

func TestRedisLimiter_NilClientAllows(t *testing.T) {
	l := NewRedisLimiter(nil, zerolog.Nop())
	assert.Nil(t, l)
	assert.True(t, l.Allow(context.Background(), "k", 1, time.Minute))
}

func TestRateLimitMiddleware(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	rule := RateLimitRule{Scope: "submit", Limit: 1, Window: time.Minute}
	r.POST("/submit", RateLimit(NewMemoryLimiter(), rule, m), func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/submit", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/submit", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	assert.Equal(t, dto.ErrorCodeRateLimited, decodeError(t, second).Error.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("submit")))
}

func TestRequestMetricsAndLogger(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()), RequestMetrics(m))
	r.GET("/schools/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schools/4", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestParseIDParam(t *testing.T) {
	r := gin.New()
	r.GET("/applications/:id", func(c *gin.Context) {
		id, ok := ParseIDParam(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	ok := httptest.NewRecorder()
	r.ServeHTTP(ok, httptest.NewRequest(http.MethodGet, "/applications/12", nil))
	assert.Equal(t, http.StatusOK, ok.Code)

	bad := httptest.NewRecorder()
	r.ServeHTTP(bad, httptest.NewRequest(http.MethodGet, "/applications/abc", nil))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, dto.ErrorCodeInvalidRequest, decodeError(t, bad).Error.Code)
}
