package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"supplier-catalog/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newQuotaHandler(t *testing.T, submissions int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	quota := NewImportQuota(redisClient, ImportQuotaConfig{
		Submissions: submissions,
		Window:      time.Minute,
		KeyPrefix:   "price_list_quota",
	}, zap.NewNop())

	handler := quota.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return handler, mr
}

func submit(handler http.Handler, path string, user *domain.User, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, nil)
	req.RemoteAddr = remoteAddr
	if user != nil {
		req = req.WithContext(WithUser(req.Context(), user))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestProperty_ImportQuotaBlocksExcessSubmissions(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("submissions beyond the window quota get 429", prop.ForAll(
		func(submissions int, excess int) bool {
			handler, _ := newQuotaHandler(t, submissions)
			seller := &domain.User{ID: uuid.New(), Type: domain.UserTypeSeller}

			succeeded, blocked := 0, 0
			for i := 0; i < submissions+excess; i++ {
				w := submit(handler, "/api/v1/partner/import", seller, "192.168.1.100:4000")

				switch w.Code {
				case http.StatusOK:
					succeeded++
				case http.StatusTooManyRequests:
					blocked++
					if w.Header().Get("Retry-After") == "" || w.Header().Get("X-RateLimit-Remaining") != "0" {
						return false
					}
				}
			}

			return succeeded == submissions && blocked == excess
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestImportQuota_UploadAndUpdateShareSellerBucket(t *testing.T) {
	handler, mr := newQuotaHandler(t, 2)
	seller := &domain.User{ID: uuid.New(), Type: domain.UserTypeSeller}
	other := &domain.User{ID: uuid.New(), Type: domain.UserTypeSeller}

	first := submit(handler, "/api/v1/partner/import", seller, "10.0.0.1:5000")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, first.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusOK, submit(handler, "/api/v1/partner/update", seller, "10.0.0.2:5000").Code)
	assert.Equal(t, http.StatusTooManyRequests, submit(handler, "/api/v1/partner/import", seller, "10.0.0.3:5000").Code)
	assert.Equal(t, http.StatusOK, submit(handler, "/api/v1/partner/import", other, "10.0.0.1:5000").Code)

	key := "price_list_quota:seller:" + seller.ID.String()
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, submit(handler, "/api/v1/partner/import", seller, "10.0.0.1:5000").Code)
}

func TestImportQuota_AnonymousCountedPerHost(t *testing.T) {
	handler, mr := newQuotaHandler(t, 1)

	assert.Equal(t, http.StatusOK, submit(handler, "/api/v1/partner/import", nil, "10.0.0.9:1111").Code)
	assert.Equal(t, http.StatusTooManyRequests, submit(handler, "/api/v1/partner/import", nil, "10.0.0.9:2222").Code,
		"a new source port does not open a new bucket")
	assert.True(t, mr.Exists("price_list_quota:addr:10.0.0.9"))
}

func TestImportQuota_RestoresLostExpiry(t *testing.T) {
	handler, mr := newQuotaHandler(t, 5)
	seller := &domain.User{ID: uuid.New(), Type: domain.UserTypeSeller}
	key := "price_list_quota:seller:" + seller.ID.String()

	require.NoError(t, mr.Set(key, "3"))
	assert.Zero(t, mr.TTL(key))

	w := submit(handler, "/api/v1/partner/import", seller, "10.0.0.1:5000")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, time.Minute, mr.TTL(key))
}

func TestImportQuota_FailsOpenWithoutRedis(t *testing.T) {
	handler, mr := newQuotaHandler(t, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		w := submit(handler, "/api/v1/partner/import", nil, "10.0.0.1:5000")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
