package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ImportQuotaConfig bounds how many price lists one caller may submit
type ImportQuotaConfig struct {
	Submissions int           // uploads and URL updates allowed per window
	Window      time.Duration // length of one fixed window
	KeyPrefix   string        // redis key prefix
}

// ImportQuota counts price-list submissions in redis. Uploads and URL updates
// of one seller share a bucket; callers without a user are counted per host.
type ImportQuota struct {
	client *redis.Client
	config ImportQuotaConfig
	logger *zap.Logger
}

// NewImportQuota creates an ImportQuota backed by client
func NewImportQuota(client *redis.Client, config ImportQuotaConfig, logger *zap.Logger) *ImportQuota {
	return &ImportQuota{client: client, config: config, logger: logger}
}

// bucket names the counter a request is charged to
func (q *ImportQuota) bucket(r *http.Request) string {
	if user, ok := UserFromContext(r.Context()); ok {
		return fmt.Sprintf("%s:%s:%s", q.config.KeyPrefix, user.Type, user.ID)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return fmt.Sprintf("%s:addr:%s", q.config.KeyPrefix, host)
}

// charge counts one submission and returns the window total and time to reset
func (q *ImportQuota) charge(ctx context.Context, key string) (int64, time.Duration, error) {
	pipe := q.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	// A new counter, or one whose expiry was lost, starts a fresh window
	reset := ttl.Val()
	if reset < 0 {
		if err := q.client.Expire(ctx, key, q.config.Window).Err(); err != nil {
			return 0, 0, err
		}
		reset = q.config.Window
	}

	return incr.Val(), reset, nil
}

// Middleware rejects submissions beyond the quota with 429. Redis errors let the request through.
func (q *ImportQuota) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := q.bucket(r)

		count, reset, err := q.charge(r.Context(), key)
		if err != nil {
			q.logger.Error("Failed to charge import quota",
				zap.Error(err),
				zap.String("key", key),
			)
			next.ServeHTTP(w, r)
			return
		}

		limit := q.config.Submissions
		remaining := limit - int(count)
		if remaining < 0 {
			remaining = 0
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))

		// Over quota
		if count > int64(limit) {
			logger := q.logger
			if user, ok := UserFromContext(r.Context()); ok {
				logger = logger.With(zap.String("user_id", user.ID.String()))
			}
			logger.Warn("Price list submissions over quota",
				zap.String("path", r.URL.Path),
				zap.Int64("count", count),
				zap.Int("limit", limit),
			)

			w.Header().Set("Retry-After", strconv.Itoa(int(reset.Round(time.Second).Seconds())))
			RespondWithError(w, http.StatusTooManyRequests, "price list submission quota exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
