package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"payportal.backend/internal/interfaces/http/middleware"
	"payportal.backend/internal/interfaces/http/response"
)

// CSRFToken returns the caller's CSRF token.
// IssueCSRFToken must run first.
// GET /api/csrf-token
func CSRFToken(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"csrfToken": middleware.CSRFToken(c),
		"message":   "CSRF token generated successfully",
	})
}
