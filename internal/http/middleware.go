package http

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"riy-server/internal/auth"
	"riy-server/internal/logger"
	"riy-server/internal/waste"
)

func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "authorization_header_missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "authorization_header_invalid"
	}
	return parts[1], ""
}

func tokenError(err error) string {
	if errors.Is(err, auth.ErrTokenExpired) {
		return "token_expired"
	}
	return "invalid_token"
}

// AuthMiddleware requires a valid bearer token for an existing user. The user
// is loaded so that role changes apply without a new token.
func (s *Server) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, problem := bearerToken(c)
		if problem != "" {
			c.AbortWithStatusJSON(401, gin.H{"error": problem})
			return
		}
		claims, err := s.tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": tokenError(err)})
			return
		}

		user, err := s.users.Get(c.Request.Context(), claims.UserID)
		if errors.Is(err, waste.ErrUserNotFound) {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid_token_user_not_found"})
			return
		}
		if err != nil {
			logger.Error("failed to load user %d: %v", claims.UserID, err)
			c.AbortWithStatusJSON(500, gin.H{"error": "internal_error"})
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Set("role", user.Role)
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through. A token that is present must
// be valid. The user is not loaded here; a scan for a user that no longer
// exists is reported by the scan itself.
func (s *Server) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		token, problem := bearerToken(c)
		if problem != "" {
			c.AbortWithStatusJSON(401, gin.H{"error": problem})
			return
		}
		claims, err := s.tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": tokenError(err)})
			return
		}
		c.Set("userID", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// Authorize checks the caller's role against the casbin policies for the
// matched route pattern.
func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "unauthorized"})
			return
		}
		allowed, err := s.enforcer.Enforce(auth.Subject(role), c.FullPath(), c.Request.Method)
		if err != nil {
			logger.Error("authorization check failed: %v", err)
			c.AbortWithStatusJSON(500, gin.H{"error": "authorization_check_failed"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(403, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func userID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// RateLimiter is a fixed window counter in Redis. A nil limiter, a nil client
// or a non-positive limit allows everything.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: limit, window: window}
}

// Allow counts one hit for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.rdb == nil || l.limit <= 0 {
		return true, nil
	}
	k := "ratelimit:" + key
	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return true, err
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return true, err
		}
	}
	return n <= int64(l.limit), nil
}

// rateLimit throttles scans per user, or per client IP for anonymous callers.
// Redis errors let the request through.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "scan:ip:" + c.ClientIP()
		if id, ok := userID(c); ok {
			key = fmt.Sprintf("scan:user:%d", id)
		}
		ok, err := s.limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warning("rate limiter unavailable: %v", err)
		}
		if !ok {
			c.AbortWithStatusJSON(429, gin.H{"error": "rate_limited"})
			return
		}
		c.Next()
	}
}
