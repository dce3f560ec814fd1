package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	domainerrors "payportal.backend/internal/domain/errors"
	"payportal.backend/internal/interfaces/http/response"
	"payportal.backend/pkg/crypto"
	"payportal.backend/pkg/metrics"
)

const (
	CSRFCookieName   = "csrf-token"
	CSRFHeader       = "X-CSRF-Token"
	LegacyCSRFHeader = "csrf-token"
	CSRFBodyField    = "_csrf"

	csrfTokenBytes  = 32
	csrfContextKey  = "csrfToken"
	csrfMaxBodyPeek = 1 << 20
)

var generateCSRFToken = func() (string, error) {
	return crypto.GenerateRandomToken(csrfTokenBytes)
}

// CSRFOptions configures the double-submit cookie.
type CSRFOptions struct {
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
	Metrics  *metrics.Metrics
}

// IssueCSRFToken makes sure every caller holds a CSRF cookie and echoes the
// current value in the X-CSRF-Token response header.
func IssueCSRFToken(opts CSRFOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CSRFCookieName)
		if err != nil || token == "" {
			if _, err := RotateCSRFToken(c, opts); err != nil {
				response.Abort(c, domainerrors.InternalError(err))
				return
			}
			c.Next()
			return
		}
		c.Set(csrfContextKey, token)
		c.Header(CSRFHeader, token)
		c.Next()
	}
}

// RotateCSRFToken mints a fresh token for the caller, replacing any current one.
func RotateCSRFToken(c *gin.Context, opts CSRFOptions) (string, error) {
	token, err := generateCSRFToken()
	if err != nil {
		return "", err
	}
	SetCSRFCookie(c, opts, token)
	c.Set(csrfContextKey, token)
	c.Header(CSRFHeader, token)
	return token, nil
}

// CSRFToken returns the token issued or found for this request.
func CSRFToken(c *gin.Context) string {
	return c.GetString(csrfContextKey)
}

// SetCSRFCookie writes the CSRF cookie. It is readable by same-origin script.
func SetCSRFCookie(c *gin.Context, opts CSRFOptions, token string) {
	c.SetSameSite(opts.SameSite)
	c.SetCookie(CSRFCookieName, token, int(opts.MaxAge.Seconds()), "/", "", opts.Secure, false)
}

// ClearCSRFCookie expires the CSRF cookie.
func ClearCSRFCookie(c *gin.Context, opts CSRFOptions) {
	c.SetSameSite(opts.SameSite)
	c.SetCookie(CSRFCookieName, "", -1, "/", "", opts.Secure, false)
}

// ValidateCSRF enforces the double-submit comparison on mutating methods
func ValidateCSRF(opts CSRFOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		cookie, err := c.Cookie(CSRFCookieName)
		if err != nil || cookie == "" {
			rejectCSRF(c, opts, domainerrors.CSRFMissingCookie)
			return
		}

		submitted := submittedCSRFToken(c)
		if submitted == "" {
			rejectCSRF(c, opts, domainerrors.CSRFMissingSubmission)
			return
		}

		if !crypto.ConstantTimeEqual(cookie, submitted) {
			rejectCSRF(c, opts, domainerrors.CSRFMismatch)
			return
		}
		c.Next()
	}
}

func rejectCSRF(c *gin.Context, opts CSRFOptions, reason string) {
	opts.Metrics.CSRFRejected(reason)
	response.Abort(c, domainerrors.CSRF(reason))
}

// submittedCSRFToken looks at the headers first, then at a _csrf field in a
// JSON or urlencoded body. The body is restored for the handler.
func submittedCSRFToken(c *gin.Context) string {
	if v := c.GetHeader(CSRFHeader); v != "" {
		return v
	}
	if v := c.GetHeader(LegacyCSRFHeader); v != "" {
		return v
	}
	if c.Request.Body == nil {
		return ""
	}

	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if mediaType != "application/json" && mediaType != "application/x-www-form-urlencoded" {
		return ""
	}

	original := c.Request.Body
	peeked, err := io.ReadAll(io.LimitReader(original, csrfMaxBodyPeek))
	c.Request.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(peeked), original), Closer: original}
	if err != nil {
		return ""
	}

	switch mediaType {
	case "application/json":
		var body struct {
			CSRF string `json:"_csrf"`
		}
		if json.Unmarshal(peeked, &body) == nil {
			return body.CSRF
		}
	case "application/x-www-form-urlencoded":
		if values, err := url.ParseQuery(string(peeked)); err == nil {
			return values.Get(CSRFBodyField)
		}
	}
	return ""
}

type readCloser struct {
	io.Reader
	io.Closer
}
