package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	redispkg "payportal.backend/pkg/redis"
)

func useMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	srv := miniredis.RunT(t)
	orig := redispkg.GetClient()
	cli := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	redispkg.SetClient(cli)
	t.Cleanup(func() {
		_ = cli.Close()
		redispkg.SetClient(orig)
	})
	return srv
}

func newIdempotencyRouter(userID uuid.UUID, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(UserIDKey, userID)
		}
		c.Next()
	})
	r.Use(IdempotencyMiddleware(time.Hour))
	r.POST("/x", handler)
	return r
}

func postWithKey(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyMiddleware_NoHeaderPassthrough(t *testing.T) {
	calls := 0
	r := newIdempotencyRouter(uuid.New(), func(c *gin.Context) {
		calls++
		c.Status(http.StatusNoContent)
	})

	postWithKey(r, "")
	postWithKey(r, "")
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_KeyTooLong(t *testing.T) {
	r := newIdempotencyRouter(uuid.New(), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := postWithKey(r, strings.Repeat("k", maxIdempotencyKey+1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdempotencyMiddleware_ReplaysSuccess(t *testing.T) {
	srv := useMiniRedis(t)
	userID := uuid.New()
	calls := 0
	r := newIdempotencyRouter(userID, func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"call": calls})
	})

	first := postWithKey(r, "key-1")
	second := postWithKey(r, "key-1")

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Hit"))
	assert.Empty(t, first.Header().Get("X-Idempotency-Hit"))

	raw, err := srv.Get("idempotency:" + userID.String() + ":key-1")
	require.NoError(t, err)
	var stored storedResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, http.StatusOK, stored.Status)
	assert.True(t, srv.TTL("idempotency:"+userID.String()+":key-1") > 0)
}

func TestIdempotencyMiddleware_KeysAreScopedPerUser(t *testing.T) {
	useMiniRedis(t)
	calls := 0
	handler := func(c *gin.Context) {
		calls++
		c.Status(http.StatusOK)
	}

	postWithKey(newIdempotencyRouter(uuid.New(), handler), "shared")
	postWithKey(newIdempotencyRouter(uuid.New(), handler), "shared")
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_FailureReleasesKey(t *testing.T) {
	srv := useMiniRedis(t)
	userID := uuid.New()
	calls := 0
	r := newIdempotencyRouter(userID, func(c *gin.Context) {
		calls++
		if calls == 1 {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusBadRequest, postWithKey(r, "retry").Code)
	assert.False(t, srv.Exists("idempotency:"+userID.String()+":retry"))
	assert.Equal(t, http.StatusOK, postWithKey(r, "retry").Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_ProcessingConflict(t *testing.T) {
	srv := useMiniRedis(t)
	userID := uuid.New()
	require.NoError(t, srv.Set("idempotency:"+userID.String()+":busy", idempotencyProcessing))

	r := newIdempotencyRouter(userID, func(c *gin.Context) { c.Status(http.StatusOK) })
	w := postWithKey(r, "busy")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "IDEMPOTENCY_CONFLICT")
}

func TestIdempotencyMiddleware_UnreadableRecordIsDiscarded(t *testing.T) {
	srv := useMiniRedis(t)
	userID := uuid.New()
	require.NoError(t, srv.Set("idempotency:"+userID.String()+":bad", "{not json"))

	calls := 0
	r := newIdempotencyRouter(userID, func(c *gin.Context) {
		calls++
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, postWithKey(r, "bad").Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyMiddleware_StoreUnavailablePassthrough(t *testing.T) {
	origGet := redisGet
	t.Cleanup(func() { redisGet = origGet })
	redisGet = func(context.Context, string) (string, error) { return "", errors.New("connection refused") }

	calls := 0
	r := newIdempotencyRouter(uuid.New(), func(c *gin.Context) {
		calls++
		c.Status(http.StatusAccepted)
	})
	assert.Equal(t, http.StatusAccepted, postWithKey(r, "k").Code)
	assert.Equal(t, http.StatusAccepted, postWithKey(r, "k").Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_LockNotAcquired(t *testing.T) {
	origGet, origSetNX := redisGet, redisSetNX
	t.Cleanup(func() {
		redisGet = origGet
		redisSetNX = origSetNX
	})
	redisGet = func(context.Context, string) (string, error) { return "", redisv9.Nil }
	redisSetNX = func(context.Context, string, interface{}, time.Duration) (bool, error) { return false, nil }

	r := newIdempotencyRouter(uuid.New(), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusConflict, postWithKey(r, "k").Code)
}

func TestIdempotencyMiddleware_AnonymousPassthrough(t *testing.T) {
	calls := 0
	r := newIdempotencyRouter(uuid.Nil, func(c *gin.Context) {
		calls++
		c.Status(http.StatusOK)
	})
	postWithKey(r, "k")
	assert.Equal(t, 1, calls)
}
