package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRateLimitRPS is the request rate applied when none is configured.
const DefaultRateLimitRPS = 25.0

// limiter admits or rejects settings requests.
type limiter interface {
	Allow() bool
	// RetryAfter is how long a rejected client should wait.
	RetryAfter() time.Duration
}

// tokenBucket wraps rate.Limiter.
type tokenBucket struct {
	bucket *rate.Limiter
}

// newTokenBucket refills at ratePerSecond. A non-positive burst is derived
// from the rate: two seconds worth of requests, at least one.
func newTokenBucket(ratePerSecond float64, burst int) *tokenBucket {
	if ratePerSecond <= 0 {
		ratePerSecond = DefaultRateLimitRPS
	}
	if burst <= 0 {
		burst = defaultBurst(ratePerSecond)
	}
	return &tokenBucket{bucket: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

func defaultBurst(ratePerSecond float64) int {
	return max(1, int(math.Ceil(2*ratePerSecond)))
}

func (b *tokenBucket) Allow() bool {
	return b.bucket.Allow()
}

func (b *tokenBucket) RetryAfter() time.Duration {
	return time.Duration(float64(time.Second) / float64(b.bucket.Limit()))
}

// unthrottledPaths bypass the limiter.
var unthrottledPaths = map[string]bool{
	"/api/health": true,
}

func rateLimitMiddleware(l limiter, next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || unthrottledPaths[r.URL.Path] || l.Allow() {
			next.ServeHTTP(w, r)
			return
		}

		wait := retryAfterSeconds(l.RetryAfter())
		w.Header().Set("Retry-After", strconv.Itoa(wait))
		writeError(w, http.StatusTooManyRequests, "Too many requests",
			"settings API rate limit exceeded, retry in "+strconv.Itoa(wait)+"s")
	})
}

// retryAfterSeconds rounds d up to whole seconds for the Retry-After header.
func retryAfterSeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}
