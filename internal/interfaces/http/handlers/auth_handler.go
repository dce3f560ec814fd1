package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"payportal.backend/internal/domain/entities"
	domainerrors "payportal.backend/internal/domain/errors"
	"payportal.backend/internal/interfaces/http/middleware"
	"payportal.backend/internal/interfaces/http/response"
	"payportal.backend/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, input *entities.RegisterInput) (*entities.UserSummary, error)
	Login(ctx context.Context, input *entities.LoginInput) (*entities.Session, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*entities.UserSummary, error)
}

// SessionCookieOptions controls the authToken cookie and the CSRF cookie
// rotated at login.
type SessionCookieOptions struct {
	Secure bool
	TTL    time.Duration
	CSRF   middleware.CSRFOptions
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authUsecase AuthService
	cookies     SessionCookieOptions
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUsecase AuthService, cookies SessionCookieOptions) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		cookies:     cookies,
	}
}

// Register handles customer registration
// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var input entities.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid request body"))
		return
	}

	user, err := h.authUsecase.Register(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login handles user login. The session token is only ever sent as a cookie.
// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input entities.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid request body"))
		return
	}

	session, err := h.authUsecase.Login(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookieName, session.Token, int(h.cookies.TTL.Seconds()), "/", "", h.cookies.Secure, true)

	csrfToken, err := middleware.RotateCSRFToken(c, h.cookies.CSRF)
	if err != nil {
		// the previous CSRF cookie stays valid
		logger.Warn(c.Request.Context(), "Failed to rotate CSRF token at login", zap.Error(err))
		csrfToken = middleware.CSRFToken(c)
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":   "Login successful",
		"user":      session.User,
		"expiresAt": session.ExpiresAt,
		"csrfToken": csrfToken,
	})
}

// Logout revokes the current session and clears both cookies
// POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.cookies.Secure, true)
	middleware.ClearCSRFCookie(c, h.cookies.CSRF)

	if tokenID, expiresAt, ok := middleware.GetSessionToken(c); ok {
		if err := h.authUsecase.Logout(c.Request.Context(), tokenID, expiresAt); err != nil {
			response.Error(c, err)
			return
		}
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Logout successful"})
}

// Me returns the authenticated user
// GET /api/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Authentication("Authentication required"))
		return
	}

	user, err := h.authUsecase.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}
