package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"catalogo/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const purgeInterval = 5 * time.Minute

// ipEntry tracks request counts per IP within a fixed window.
type ipEntry struct {
	count     int
	windowEnd time.Time
}

// RateLimiter counts requests per client IP. Expired entries are purged
// lazily so idle IPs do not accumulate.
type RateLimiter struct {
	limit     int
	window    time.Duration
	msg       string
	now       func() time.Time
	mu        sync.Mutex
	entries   map[string]*ipEntry
	lastPurge time.Time
}

func NewRateLimiter(limit int, window time.Duration, msg string) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		msg:     msg,
		now:     time.Now,
		entries: make(map[string]*ipEntry),
	}
}

// allow records one request from ip and reports whether it is within the limit,
// along with the end of the current window.
func (l *RateLimiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPurge) > purgeInterval {
		l.purge(now)
	}

	entry, ok := l.entries[ip]
	if !ok || now.After(entry.windowEnd) {
		entry = &ipEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = entry
	}
	entry.count++
	return entry.count <= l.limit, entry.windowEnd
}

func (l *RateLimiter) purge(now time.Time) {
	purged := 0
	for ip, entry := range l.entries {
		if now.After(entry.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	l.lastPurge = now
	if purged > 0 {
		log.Debug().Int("purged", purged).Int("remaining", len(l.entries)).Msg("rate limiter purged")
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP())
		if !ok {
			retry := int(windowEnd.Sub(l.now()).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login and registration attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return NewRateLimiter(20, time.Minute, "Demasiados intentos de login. Intente en 1 minuto.").Middleware()
}

// APIRateLimiter is the general limiter applied to every route.
func APIRateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return NewRateLimiter(limit, window, "Demasiadas solicitudes. Intente nuevamente en un momento.").Middleware()
}
