// Package middleware contains the request-boundary middleware, most notably
// the idempotency gate that deduplicates retried transfer requests.
package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Joaovitor12j/simplified-platform/internal/repositories/cache"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	// HeaderIdempotencyKey is the client-supplied deduplication token.
	HeaderIdempotencyKey = "Idempotency-Key"

	lockTTL          = 10 * time.Second
	responseCacheTTL = 24 * time.Hour
)

// ResponseCache stores previously produced responses keyed by token.
type ResponseCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Lock is a held per-token mutual-exclusion lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker acquires per-token locks without waiting. A nil Lock with a nil
// error means another request holds the token.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// NewRedisLocker adapts the redis locker to the middleware's Locker interface.
func NewRedisLocker(l *cache.Locker) Locker {
	return redisLocker{inner: l}
}

type redisLocker struct {
	inner *cache.Locker
}

func (r redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := r.inner.Acquire(ctx, key, ttl)
	if err != nil || lock == nil {
		return nil, err
	}
	return lock, nil
}

type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// Idempotency deduplicates requests carrying an Idempotency-Key header.
//
// A cached response is replayed verbatim. With no cached response, the
// request proceeds only if the per-token lock can be taken immediately;
// otherwise the caller gets a 429. Only successful (2xx) responses are
// cached, so a failed attempt stays retryable under the same token.
func Idempotency(store ResponseCache, locker Locker, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderIdempotencyKey)
		if key == "" {
			return c.Next()
		}

		cacheKey := "idempotency:" + key
		lockKey := cacheKey + ":lock"

		var cached cachedResponse
		found, err := store.Get(c.Context(), cacheKey, &cached)
		if err != nil {
			// fail open on a cache read fault: processing twice is recoverable
			// through the transfer engine's own guarantees, refusing is not
			logger.WithField("key", key).WithError(err).Warn("idempotency cache read failed")
		}
		if found {
			c.Set("X-Idempotency-Hit", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(cached.Status).Send(cached.Body)
		}

		lock, err := locker.Acquire(c.Context(), lockKey, lockTTL)
		if err != nil {
			logger.WithField("key", key).WithError(err).Warn("idempotency lock acquisition failed")
		}
		if lock == nil {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "request conflict/processing",
			})
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil {
				logger.WithField("key", key).WithError(err).Warn("idempotency lock release failed")
			}
		}()

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusOK && status < fiber.StatusMultipleChoices {
			body := make([]byte, len(c.Response().Body()))
			copy(body, c.Response().Body())

			entry := cachedResponse{Status: status, Body: body}
			if err := store.SetWithTTL(c.Context(), cacheKey, entry, responseCacheTTL); err != nil {
				logger.WithField("key", key).WithError(err).Warn("failed to cache idempotent response")
			}
		}
		return nil
	}
}
