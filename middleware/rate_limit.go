package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/cppla/forumlite/config"
	"github.com/cppla/forumlite/utils"
)

// Named throttle policies.
const (
	PolicyAuth = "auth"
	PolicyAPI  = "api"
)

// RateLimiter applies fixed-window quotas backed by a shared counter store.
type RateLimiter struct {
	store   utils.RateLimitStore
	db      *gorm.DB
	metrics *Metrics
	// storeErrLog keeps a failing store from flooding the log.
	storeErrLog *rate.Sometimes
}

// NewRateLimiter builds a limiter. db is used to key authenticated callers by user id.
func NewRateLimiter(store utils.RateLimitStore, db *gorm.DB, metrics *Metrics) *RateLimiter {
	return &RateLimiter{
		store:       store,
		db:          db,
		metrics:     metrics,
		storeErrLog: &rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
}

// Limit throttles requests under the named policy. With perUser set, callers that carry
// a valid bearer token are counted by user id; everyone else is counted by client IP.
func (l *RateLimiter) Limit(name string, policy config.RateLimitPolicy, perUser bool) gin.HandlerFunc {
	window := time.Duration(policy.WindowSeconds) * time.Second
	limitHeader := strconv.Itoa(policy.Attempts)

	return func(ctx *gin.Context) {
		key := "ip:" + ctx.ClientIP()
		if perUser {
			token, err := resolveToken(ctx, l.db)
			if err != nil {
				utils.InternalError(ctx, "resolve access token", err)
				return
			}
			if token != nil {
				key = "user:" + strconv.FormatUint(uint64(token.UserID), 10)
			}
		}

		decision, err := l.store.Hit(ctx.Request.Context(), name+":"+key, policy.Attempts, window)
		if err != nil {
			// Fail open: an unavailable counter store must not take the API down.
			l.storeErrLog.Do(func() {
				utils.Sugar.Warnw("rate limit store unavailable, allowing request", "policy", name, "error", err)
			})
			ctx.Next()
			return
		}

		ctx.Header("X-RateLimit-Limit", limitHeader)
		ctx.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			retryAfter := int(math.Ceil(time.Until(decision.ResetAt).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			ctx.Header("Retry-After", strconv.Itoa(retryAfter))
			ctx.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
			l.metrics.rateLimited(name)
			utils.Error(ctx, http.StatusTooManyRequests, utils.MsgTooManyAttempts)
			return
		}
		ctx.Next()
	}
}
