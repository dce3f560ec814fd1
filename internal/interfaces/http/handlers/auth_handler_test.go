package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"payportal.backend/internal/domain/entities"
	domainerrors "payportal.backend/internal/domain/errors"
	"payportal.backend/internal/interfaces/http/middleware"
)

var testCookies = SessionCookieOptions{
	Secure: true,
	TTL:    time.Hour,
	CSRF:   middleware.CSRFOptions{Secure: true, SameSite: http.SameSiteStrictMode, MaxAge: time.Hour},
}

func newAuthRouter(svc AuthService, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(svc, testCookies)
	r := gin.New()
	r.POST("/api/register", h.Register)
	r.POST("/api/login", h.Login)
	r.POST("/api/logout", withUser(userID, entities.RoleCustomer), h.Logout)
	r.GET("/api/me", withUser(userID, entities.RoleCustomer), h.Me)
	r.GET("/api/me-anon", h.Me)
	return r
}

func TestAuthHandler_Register(t *testing.T) {
	userID := uuid.New()
	svc := authServiceStub{
		registerFn: func(_ context.Context, in *entities.RegisterInput) (*entities.UserSummary, error) {
			if in.Username == "taken" {
				return nil, domainerrors.Conflict("An account with these details already exists")
			}
			if in.Username == "bad" {
				return nil, domainerrors.Validation([]domainerrors.FieldError{{Field: "username", Message: "invalid"}})
			}
			return &entities.UserSummary{ID: userID, Username: in.Username, Role: entities.RoleCustomer}, nil
		},
	}
	r := newAuthRouter(svc, userID)

	w := doJSON(r, http.MethodPost, "/api/register", `{"username":"jdoe","password":"x"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"jdoe"`)
	assert.NotContains(t, w.Body.String(), "password")

	w = doJSON(r, http.MethodPost, "/api/register", `{"username":"taken"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "CONFLICT")

	w = doJSON(r, http.MethodPost, "/api/register", `{"username":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"fields"`)

	w = doJSON(r, http.MethodPost, "/api/register", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "BAD_REQUEST")
}

func TestAuthHandler_Login(t *testing.T) {
	userID := uuid.New()
	expires := time.Now().Add(time.Hour)
	svc := authServiceStub{
		loginFn: func(_ context.Context, in *entities.LoginInput) (*entities.Session, error) {
			if in.Password != "right" {
				return nil, domainerrors.Authentication("Invalid credentials")
			}
			return &entities.Session{
				Token:     "signed.jwt.token",
				TokenID:   "jti-1",
				ExpiresAt: expires,
				User:      &entities.UserSummary{ID: userID, Username: in.Username, Role: entities.RoleCustomer},
			}, nil
		},
	}
	r := newAuthRouter(svc, userID)

	w := doJSON(r, http.MethodPost, "/api/login", `{"username":"jdoe","password":"right","accountNumber":"12345678"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "signed.jwt.token")
	assert.Contains(t, w.Body.String(), "Login successful")

	session := findCookie(w, middleware.SessionCookieName)
	require.NotNil(t, session)
	assert.Equal(t, "signed.jwt.token", session.Value)
	assert.True(t, session.HttpOnly)
	assert.True(t, session.Secure)
	assert.Equal(t, http.SameSiteStrictMode, session.SameSite)
	assert.Equal(t, 3600, session.MaxAge)
	assert.Equal(t, "/", session.Path)

	csrf := findCookie(w, middleware.CSRFCookieName)
	require.NotNil(t, csrf)
	assert.False(t, csrf.HttpOnly)
	assert.Equal(t, csrf.Value, w.Header().Get(middleware.CSRFHeader))

	w = doJSON(r, http.MethodPost, "/api/login", `{"username":"jdoe","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, findCookie(w, middleware.SessionCookieName))
	assert.Contains(t, w.Body.String(), "Invalid credentials")

	w = doJSON(r, http.MethodPost, "/api/login", ``)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	userID := uuid.New()
	var revoked string
	svc := authServiceStub{
		logoutFn: func(_ context.Context, tokenID string, expiresAt time.Time) error {
			revoked = tokenID
			assert.True(t, expiresAt.After(time.Now()))
			return nil
		},
	}
	w := doJSON(newAuthRouter(svc, userID), http.MethodPost, "/api/logout", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jti-1", revoked)
	session := findCookie(w, middleware.SessionCookieName)
	require.NotNil(t, session)
	assert.True(t, session.MaxAge < 0)
	csrf := findCookie(w, middleware.CSRFCookieName)
	require.NotNil(t, csrf)
	assert.True(t, csrf.MaxAge < 0)
}

func TestAuthHandler_LogoutRevokeFailure(t *testing.T) {
	svc := authServiceStub{
		logoutFn: func(context.Context, string, time.Time) error {
			return domainerrors.InternalError(errors.New("redis down"))
		},
	}
	w := doJSON(newAuthRouter(svc, uuid.New()), http.MethodPost, "/api/logout", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "redis down")
	assert.NotNil(t, findCookie(w, middleware.SessionCookieName))
}

func TestAuthHandler_Me(t *testing.T) {
	userID := uuid.New()
	svc := authServiceStub{
		getUserByIDFn: func(_ context.Context, id uuid.UUID) (*entities.UserSummary, error) {
			if id != userID {
				return nil, domainerrors.NotFound("User not found")
			}
			return &entities.UserSummary{ID: id, Username: "jdoe", Role: entities.RoleCustomer}, nil
		},
	}
	r := newAuthRouter(svc, userID)

	w := doJSON(r, http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())

	w = doJSON(r, http.MethodGet, "/api/me-anon", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCSRFTokenHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/csrf-token", middleware.IssueCSRFToken(testCookies.CSRF), CSRFToken)

	w := doJSON(r, http.MethodGet, "/api/csrf-token", "")
	require.Equal(t, http.StatusOK, w.Code)
	cookie := findCookie(w, middleware.CSRFCookieName)
	require.NotNil(t, cookie)
	assert.Contains(t, w.Body.String(), `"csrfToken":"`+cookie.Value+`"`)
	assert.Contains(t, w.Body.String(), "CSRF token generated successfully")
}
