package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dalfonso89/marketplace-currency-service/internal/config"
	"github.com/dalfonso89/marketplace-currency-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// idleBucketTTL is how long a client bucket survives without traffic
const idleBucketTTL = 24 * time.Hour

// Limiter implements a token bucket rate limiter per client IP
type Limiter struct {
	Configuration *config.Config
	logger        logrus.FieldLogger

	clientBuckets map[string]*TokenBucket
	bucketsMutex  sync.Mutex

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

// TokenBucket holds the tokens left for one client
type TokenBucket struct {
	capacity     int
	tokens       int
	lastRefill   time.Time
	lastSeen     time.Time
	refillRate   int
	refillPeriod time.Duration
	mu           sync.Mutex
}

// NewLimiter creates a limiter and starts its idle-bucket sweeper
func NewLimiter(configuration *config.Config, logger logrus.FieldLogger) *Limiter {
	rateLimiter := &Limiter{
		Configuration: configuration,
		logger:        logger.WithField("component", "rate_limiter"),
		clientBuckets: make(map[string]*TokenBucket),
		cleanupTicker: time.NewTicker(5 * time.Minute),
		stopCleanup:   make(chan struct{}),
	}

	go rateLimiter.cleanup()

	return rateLimiter
}

// Allow reports whether clientIP may make another request
func (rateLimiter *Limiter) Allow(clientIP string) bool {
	if !rateLimiter.Configuration.RateLimitEnabled {
		return true
	}

	rateLimiter.bucketsMutex.Lock()
	tokenBucket, bucketExists := rateLimiter.clientBuckets[clientIP]
	if !bucketExists {
		now := time.Now()
		tokenBucket = &TokenBucket{
			capacity:     rateLimiter.Configuration.RateLimitBurst,
			tokens:       rateLimiter.Configuration.RateLimitBurst,
			lastRefill:   now,
			lastSeen:     now,
			refillRate:   rateLimiter.Configuration.RateLimitRequests,
			refillPeriod: rateLimiter.Configuration.RateLimitWindow,
		}
		rateLimiter.clientBuckets[clientIP] = tokenBucket
	}
	rateLimiter.bucketsMutex.Unlock()

	return tokenBucket.Allow()
}

// Middleware rejects requests over the limit with 429
func (rateLimiter *Limiter) Middleware() gin.HandlerFunc {
	return func(context *gin.Context) {
		clientIP := rateLimiter.GetClientIP(context.Request)

		if !rateLimiter.Allow(clientIP) {
			rateLimiter.logger.WithField("client_ip", clientIP).Warn("Rate limit exceeded")
			context.Header("X-RateLimit-Limit", strconv.Itoa(rateLimiter.Configuration.RateLimitRequests))
			context.Header("X-RateLimit-Remaining", "0")
			context.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(rateLimiter.Configuration.RateLimitWindow).Unix(), 10))
			context.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "rate limit exceeded",
				Message: "too many requests, retry later",
				Code:    http.StatusTooManyRequests,
			})
			return
		}

		context.Next()
	}
}

// GetClientIP extracts the client IP, preferring proxy headers
func (rateLimiter *Limiter) GetClientIP(request *http.Request) string {
	if xForwardedFor := request.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
		// first hop is the original client
		first := strings.TrimSpace(strings.Split(xForwardedFor, ",")[0])
		if clientIP := net.ParseIP(first); clientIP != nil {
			return clientIP.String()
		}
		if host, _, err := net.SplitHostPort(first); err == nil {
			if clientIP := net.ParseIP(host); clientIP != nil {
				return clientIP.String()
			}
		}
	}

	if xRealIP := request.Header.Get("X-Real-IP"); xRealIP != "" {
		if clientIP := net.ParseIP(strings.TrimSpace(xRealIP)); clientIP != nil {
			return clientIP.String()
		}
	}

	clientIP, _, parseError := net.SplitHostPort(request.RemoteAddr)
	if parseError != nil {
		return request.RemoteAddr
	}
	return clientIP
}

// Buckets returns the number of tracked clients
func (rateLimiter *Limiter) Buckets() int {
	rateLimiter.bucketsMutex.Lock()
	defer rateLimiter.bucketsMutex.Unlock()
	return len(rateLimiter.clientBuckets)
}

func (rateLimiter *Limiter) cleanup() {
	for {
		select {
		case <-rateLimiter.cleanupTicker.C:
			removed := rateLimiter.sweep(time.Now())
			if removed > 0 {
				rateLimiter.logger.Debugf("Removed %d idle rate limit buckets", removed)
			}
		case <-rateLimiter.stopCleanup:
			rateLimiter.cleanupTicker.Stop()
			return
		}
	}
}

// sweep drops buckets idle for longer than idleBucketTTL as of now
func (rateLimiter *Limiter) sweep(now time.Time) int {
	rateLimiter.bucketsMutex.Lock()
	defer rateLimiter.bucketsMutex.Unlock()

	removed := 0
	for clientIP, tokenBucket := range rateLimiter.clientBuckets {
		tokenBucket.mu.Lock()
		idle := now.Sub(tokenBucket.lastSeen) > idleBucketTTL
		tokenBucket.mu.Unlock()
		if idle {
			delete(rateLimiter.clientBuckets, clientIP)
			removed++
		}
	}
	return removed
}

// Stop stops the sweeper; it is safe to call more than once
func (rateLimiter *Limiter) Stop() {
	rateLimiter.stopOnce.Do(func() {
		close(rateLimiter.stopCleanup)
	})
}

// Allow takes a token if one is available
func (tokenBucket *TokenBucket) Allow() bool {
	tokenBucket.mu.Lock()
	defer tokenBucket.mu.Unlock()

	currentTime := time.Now()
	tokenBucket.lastSeen = currentTime

	if currentTime.After(tokenBucket.lastRefill) && tokenBucket.refillPeriod > 0 {
		timeElapsed := currentTime.Sub(tokenBucket.lastRefill)
		tokensToAdd := int(timeElapsed.Seconds() / tokenBucket.refillPeriod.Seconds() * float64(tokenBucket.refillRate))

		if tokensToAdd > 0 {
			tokenBucket.tokens = min(tokenBucket.capacity, tokenBucket.tokens+tokensToAdd)
			tokenBucket.lastRefill = currentTime
		}
	}

	if tokenBucket.tokens > 0 {
		tokenBucket.tokens--
		return true
	}

	return false
}
