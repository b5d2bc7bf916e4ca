package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"clinicore/internal/auth"
	apperrors "clinicore/internal/errors"
	"clinicore/internal/model"
)

// stubLoader serves principals from a fixed map.
type stubLoader struct {
	users map[uint]*model.User
}

func (s *stubLoader) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

func newGatedEcho(t *testing.T, loader *stubLoader) *echo.Echo {
	t.Helper()
	e := echo.New()
	group := e.Group("/admin",
		Authenticate("access-secret"),
		RequireRoles(loader, model.RoleAdmin),
	)
	group.GET("/ping", func(c echo.Context) error {
		principal, ok := Principal(c)
		assert.True(t, ok)
		assert.Equal(t, model.RoleAdmin, principal.Role)
		return c.String(http.StatusOK, "pong")
	})
	return e
}

func TestRequireRoles(t *testing.T) {
	jwtService := auth.NewJWTService("access-secret", "refresh-secret")
	loader := &stubLoader{users: map[uint]*model.User{
		1: {ID: 1, Email: "admin@example.com", Role: model.RoleAdmin},
		2: {ID: 2, Email: "patient@example.com", Role: model.RolePatient},
	}}
	e := newGatedEcho(t, loader)

	adminToken, err := jwtService.GenerateAccessToken(1, "admin@example.com")
	assert.NoError(t, err)
	patientToken, err := jwtService.GenerateAccessToken(2, "patient@example.com")
	assert.NoError(t, err)
	deletedToken, err := jwtService.GenerateAccessToken(99, "gone@example.com")
	assert.NoError(t, err)

	tests := []struct {
		name         string
		authHeader   string
		expectedCode int
	}{
		{"admin is allowed", "Bearer " + adminToken, http.StatusOK},
		{"patient is forbidden", "Bearer " + patientToken, http.StatusForbidden},
		{"deleted subject is unauthorized", "Bearer " + deletedToken, http.StatusUnauthorized},
		{"garbage token is unauthorized", "Bearer not-a-token", http.StatusUnauthorized},
		{"missing token is unauthorized", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
			if tt.authHeader != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.authHeader)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.expectedCode, rec.Code)
		})
	}
}

func TestRequireRoles_WrongSecretIsRejected(t *testing.T) {
	foreign := auth.NewJWTService("other-secret", "refresh-secret")
	loader := &stubLoader{users: map[uint]*model.User{
		1: {ID: 1, Email: "admin@example.com", Role: model.RoleAdmin},
	}}
	e := newGatedEcho(t, loader)

	token, err := foreign.GenerateAccessToken(1, "admin@example.com")
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
