package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/alexander-kastil/talk-low-code-process/internal/config"   // For default limits
	"github.com/alexander-kastil/talk-low-code-process/internal/services" // For endpoint specific limits
)

// HeaderRateLimitWarning is set once a client runs past its soft limit.
const HeaderRateLimitWarning = "X-RateLimit-Warning"

// clientLimiter stores rate limiters for one client on one endpoint.
type clientLimiter struct {
	softLimiter *rate.Limiter
	hardLimiter *rate.Limiter
	lastSeen    time.Time
}

// RateLimiterMiddleware manages rate limiting for API endpoints.
type RateLimiterMiddleware struct {
	clients  map[string]*clientLimiter
	mu       sync.Mutex
	cfg      *config.Config            // For defaults
	settings services.ISettingsService // For endpoint specific limits
}

// NewRateLimiterMiddleware creates a new RateLimiterMiddleware. Idle clients are swept until ctx is done.
func NewRateLimiterMiddleware(ctx context.Context, cfg *config.Config, settings services.ISettingsService) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		clients:  make(map[string]*clientLimiter),
		cfg:      cfg,
		settings: settings,
	}
	go rm.cleanupClients(ctx, 10*time.Minute)
	return rm
}

// EndpointSettingKeys returns the settings keys that override the hard limit of an endpoint.
func EndpointSettingKeys(fullPath string) (bucketSizeKey, refillRateKey string) {
	return fmt.Sprintf("RateLimit_%s_BucketSize", fullPath), fmt.Sprintf("RateLimit_%s_RefillRate", fullPath)
}

// getClientLimiter retrieves or creates the rate limiters for a given client identifier.
// Limits that changed since the limiter was created are applied in place.
func (rm *RateLimiterMiddleware) getClientLimiter(identifier string, softRate, softBurst int, hardRate, hardBurst int) *clientLimiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	limiter, exists := rm.clients[identifier]
	if !exists {
		limiter = &clientLimiter{
			softLimiter: rate.NewLimiter(rate.Limit(softRate), softBurst),
			hardLimiter: rate.NewLimiter(rate.Limit(hardRate), hardBurst),
		}
		rm.clients[identifier] = limiter
	} else {
		if limiter.hardLimiter.Limit() != rate.Limit(hardRate) {
			limiter.hardLimiter.SetLimit(rate.Limit(hardRate))
		}
		if limiter.hardLimiter.Burst() != hardBurst {
			limiter.hardLimiter.SetBurst(hardBurst)
		}
	}
	limiter.lastSeen = time.Now()
	return limiter
}

// cleanupClients periodically removes old client entries from the map.
func (rm *RateLimiterMiddleware) cleanupClients(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if count := rm.sweep(3 * interval); count > 0 {
				log.Printf("Rate limiter cleanup removed %d old client entries.", count)
			}
		}
	}
}

func (rm *RateLimiterMiddleware) sweep(maxIdle time.Duration) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	count := 0
	for id, client := range rm.clients {
		if time.Since(client.lastSeen) > maxIdle {
			delete(rm.clients, id)
			count++
		}
	}
	return count
}

// Limit creates the Gin middleware handler.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		clientKey := c.ClientIP() + "|" + endpoint

		hardBurst := rm.cfg.RateLimitHardBucketSize
		hardRate := rm.cfg.RateLimitHardRefillRate
		if rm.settings != nil {
			bucketKey, refillKey := EndpointSettingKeys(endpoint)
			hardBurst = rm.settings.GetInt(bucketKey, hardBurst)
			hardRate = rm.settings.GetInt(refillKey, hardRate)
		}

		limiter := rm.getClientLimiter(clientKey, rm.cfg.RateLimitSoftRefillRate, rm.cfg.RateLimitSoftBucketSize, hardRate, hardBurst)

		if !limiter.hardLimiter.Allow() {
			log.Printf("Hard rate limit exceeded for client: %s", clientKey)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		if !limiter.softLimiter.Allow() {
			log.Printf("Soft rate limit exceeded for client: %s", clientKey)
			c.Header(HeaderRateLimitWarning, "soft limit exceeded")
		}

		c.Next()
	}
}
