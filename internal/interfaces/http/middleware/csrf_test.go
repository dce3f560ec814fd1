package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCSRFOptions = CSRFOptions{Secure: true, SameSite: http.SameSiteStrictMode, MaxAge: time.Hour}

func newCSRFRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IssueCSRFToken(testCSRFOptions), ValidateCSRF(testCSRFOptions))
	r.GET("/token", func(c *gin.Context) { c.String(http.StatusOK, CSRFToken(c)) })
	r.POST("/mutate", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})
	return r
}

func TestIssueCSRFToken_SetsCookieAndHeader(t *testing.T) {
	r := newCSRFRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/token", nil))

	require.Equal(t, http.StatusOK, w.Code)
	token := w.Body.String()
	assert.Len(t, token, 64)
	assert.Equal(t, token, w.Header().Get(CSRFHeader))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CSRFCookieName, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.False(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func TestIssueCSRFToken_ReusesExistingCookie(t *testing.T) {
	r := newCSRFRouter()
	req := httptest.NewRequest(http.MethodGet, "/token", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "existing"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "existing", w.Body.String())
	assert.Empty(t, w.Result().Cookies())
}

func TestIssueCSRFToken_GeneratorFailure(t *testing.T) {
	orig := generateCSRFToken
	t.Cleanup(func() { generateCSRFToken = orig })
	generateCSRFToken = func() (string, error) { return "", errors.New("no entropy") }

	w := httptest.NewRecorder()
	newCSRFRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/token", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestValidateCSRF(t *testing.T) {
	const token = "0123456789abcdef"
	cases := []struct {
		name        string
		cookie      string
		header      string
		legacy      string
		contentType string
		body        string
		status      int
		reason      string
	}{
		{name: "missing cookie", header: token, status: http.StatusForbidden, reason: "missing-cookie"},
		{name: "missing submission", cookie: token, status: http.StatusForbidden, reason: "missing-submission"},
		{name: "mismatch", cookie: token, header: "fedcba9876543210", status: http.StatusForbidden, reason: "mismatch"},
		{name: "header", cookie: token, header: token, status: http.StatusOK},
		{name: "legacy header", cookie: token, legacy: token, status: http.StatusOK},
		{name: "json body", cookie: token, contentType: "application/json", body: `{"_csrf":"` + token + `","amount":"1.00"}`, status: http.StatusOK},
		{name: "json body mismatch", cookie: token, contentType: "application/json", body: `{"_csrf":"nope"}`, status: http.StatusForbidden, reason: "mismatch"},
		{name: "form body", cookie: token, contentType: "application/x-www-form-urlencoded", body: "_csrf=" + token + "&a=b", status: http.StatusOK},
		{name: "text body ignored", cookie: token, contentType: "text/plain", body: "_csrf=" + token, status: http.StatusForbidden, reason: "missing-submission"},
	}

	r := newCSRFRouter()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mutate", strings.NewReader(tc.body))
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set(CSRFHeader, tc.header)
			}
			if tc.legacy != "" {
				req.Header.Set(LegacyCSRFHeader, tc.legacy)
			}
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.reason != "" {
				assert.Contains(t, w.Body.String(), `"reason":"`+tc.reason+`"`)
				assert.Contains(t, w.Body.String(), "CSRF_ERROR")
			} else {
				// handler still sees the full body
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}

func TestValidateCSRF_SafeMethodsPass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ValidateCSRF(testCSRFOptions))
	r.Any("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(m, "/x", nil))
		assert.Equal(t, http.StatusNoContent, w.Code, m)
	}
	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(m, "/x", nil))
		assert.Equal(t, http.StatusForbidden, w.Code, m)
	}
}

func TestClearCSRFCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	ClearCSRFCookie(c, testCSRFOptions)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CSRFCookieName, cookies[0].Name)
	assert.True(t, cookies[0].MaxAge < 0)
}
