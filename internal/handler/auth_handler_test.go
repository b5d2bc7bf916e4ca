package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "clinicore/internal/errors"
	"clinicore/internal/model"
)

// MockAuthService is a mock implementation of service.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, name, email, password, passwordConfirm string) (*model.User, string, string, error) {
	args := m.Called(ctx, name, email, password, passwordConfirm)
	var user *model.User
	if args.Get(0) != nil {
		user = args.Get(0).(*model.User)
	}
	return user, args.String(1), args.String(2), args.Error(3)
}

func (m *MockAuthService) ValidateCredentials(ctx context.Context, email, password string) (*model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, user *model.User) (string, string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func newAuthEcho(svc *MockAuthService) *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}
	h := NewAuthHandler(svc)
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)
	return e
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		setupMock    func(*MockAuthService)
		expectedCode int
	}{
		{
			name: "valid credentials",
			body: `{"email":"alice@example.com","password":"secret1"}`,
			setupMock: func(m *MockAuthService) {
				user := &model.User{ID: 7, Email: "alice@example.com", Role: model.RolePatient}
				m.On("ValidateCredentials", mock.Anything, "alice@example.com", "secret1").Return(user, nil)
				m.On("Login", mock.Anything, user).Return("access", "refresh", nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "unknown email folds into 401",
			body: `{"email":"ghost@example.com","password":"secret1"}`,
			setupMock: func(m *MockAuthService) {
				m.On("ValidateCredentials", mock.Anything, "ghost@example.com", "secret1").Return(nil, apperrors.ErrUserNotFound)
			},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name: "wrong password is 401",
			body: `{"email":"alice@example.com","password":"wrong1"}`,
			setupMock: func(m *MockAuthService) {
				m.On("ValidateCredentials", mock.Anything, "alice@example.com", "wrong1").Return(nil, nil)
			},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "malformed email is 400",
			body:         `{"email":"not-an-email","password":"secret1"}`,
			setupMock:    func(m *MockAuthService) {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockAuthService)
			tt.setupMock(mockSvc)
			e := newAuthEcho(mockSvc)

			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.expectedCode == http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"access_token":"access"`)
				assert.Contains(t, rec.Body.String(), `"id":7`)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		setupMock    func(*MockAuthService)
		expectedCode int
	}{
		{
			name: "created",
			body: `{"name":"Alice","email":"alice@example.com","password":"secret1","password_confirm":"secret1"}`,
			setupMock: func(m *MockAuthService) {
				user := &model.User{ID: 1, Name: "Alice", Email: "alice@example.com", Role: model.RolePatient}
				m.On("Register", mock.Anything, "Alice", "alice@example.com", "secret1", "secret1").Return(user, "access", "refresh", nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "duplicate email is 409",
			body: `{"name":"Alice","email":"alice@example.com","password":"secret1","password_confirm":"secret1"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Register", mock.Anything, "Alice", "alice@example.com", "secret1", "secret1").Return(nil, "", "", apperrors.ErrEmailTaken)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name: "confirmation mismatch is 400",
			body: `{"name":"Alice","email":"alice@example.com","password":"secret1","password_confirm":"secret2"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Register", mock.Anything, "Alice", "alice@example.com", "secret1", "secret2").Return(nil, "", "", apperrors.ErrPasswordMismatch)
			},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockAuthService)
			tt.setupMock(mockSvc)
			e := newAuthEcho(mockSvc)

			req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.expectedCode == http.StatusCreated {
				assert.Contains(t, rec.Body.String(), `"email":"alice@example.com"`)
				assert.NotContains(t, rec.Body.String(), "password")
			}
			mockSvc.AssertExpectations(t)
		})
	}
}
