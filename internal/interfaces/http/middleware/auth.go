package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"payportal.backend/internal/domain/entities"
	domainerrors "payportal.backend/internal/domain/errors"
	"payportal.backend/internal/interfaces/http/response"
	"payportal.backend/pkg/jwt"
	"payportal.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// SessionCookieName carries the signed session token
	SessionCookieName = "authToken"
	// UserIDKey is the context key for user ID
	UserIDKey = "userId"
	// UsernameKey is the context key for username
	UsernameKey = "username"
	// UserRoleKey is the context key for user role
	UserRoleKey = "userRole"
	// TokenIDKey is the context key for the session token id
	TokenIDKey = "tokenId"
	// TokenExpiresAtKey is the context key for the session expiry
	TokenExpiresAtKey = "tokenExpiresAt"
)

// RevocationChecker reports whether a session token id was logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SessionOptions tunes SessionAuth.
type SessionOptions struct {
	// AllowBearer accepts "Authorization: Bearer" when no cookie is present.
	AllowBearer bool
	// Revocations is optional; nil means tokens are valid until expiry.
	Revocations RevocationChecker
}

// SessionAuth verifies the session token and stores its claims in the context
func SessionAuth(jwtService *jwt.JWTService, opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := sessionToken(c, opts.AllowBearer)
		if tokenString == "" {
			response.Abort(c, domainerrors.Authentication("Authentication required"))
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			logger.Debug(c.Request.Context(), "Session rejected",
				zap.String("path", c.Request.URL.Path), zap.Error(err))
			if errors.Is(err, jwt.ErrExpiredToken) {
				response.Abort(c, domainerrors.TokenExpired())
				return
			}
			response.Abort(c, domainerrors.TokenInvalid("Invalid session"))
			return
		}

		userID, _ := claims.UserID()
		role, ok := entities.ParseRole(claims.Role)
		if !ok {
			response.Abort(c, domainerrors.TokenInvalid("Invalid session"))
			return
		}

		if opts.Revocations != nil {
			revoked, err := opts.Revocations.IsRevoked(c.Request.Context(), claims.ID)
			switch {
			case err != nil:
				logger.Warn(c.Request.Context(), "Revocation check failed; accepting token", zap.Error(err))
			case revoked:
				response.Abort(c, domainerrors.TokenInvalid("Session has been logged out"))
				return
			}
		}

		var expiresAt time.Time
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}

		c.Set(UserIDKey, userID)
		c.Set(UsernameKey, claims.Username)
		c.Set(UserRoleKey, role)
		c.Set(TokenIDKey, claims.ID)
		c.Set(TokenExpiresAtKey, expiresAt)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), userID.String()))

		c.Next()
	}
}

func sessionToken(c *gin.Context, allowBearer bool) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	if !allowBearer {
		return ""
	}
	authHeader := c.GetHeader(AuthorizationHeader)
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
}

// GetUserID gets the user ID from context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := userID.(uuid.UUID)
	return id, ok
}

// GetUsername gets the username from context
func GetUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get(UsernameKey)
	if !exists {
		return "", false
	}
	s, ok := username.(string)
	return s, ok
}

// GetUserRole gets the user role from context
func GetUserRole(c *gin.Context) (entities.Role, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	r, ok := role.(entities.Role)
	return r, ok
}

// GetSessionToken returns the verified token id and expiry
func GetSessionToken(c *gin.Context) (string, time.Time, bool) {
	id := c.GetString(TokenIDKey)
	if id == "" {
		return "", time.Time{}, false
	}
	return id, c.GetTime(TokenExpiresAtKey), true
}

// RequireCapability rejects sessions whose role lacks the capability
func RequireCapability(capability entities.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := GetUserRole(c)
		if !exists {
			response.Abort(c, domainerrors.Authentication("Authentication required"))
			return
		}
		if !role.Can(capability) {
			logger.Info(c.Request.Context(), "Capability denied",
				zap.String("role", string(role)), zap.String("capability", string(capability)))
			response.Abort(c, domainerrors.Forbidden("Insufficient permissions"))
			return
		}
		c.Next()
	}
}
