package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/forumlite/config"
	"github.com/cppla/forumlite/models"
	"github.com/cppla/forumlite/utils"
)

// Table kinds guarded by CheckTableRowLimit.
const (
	KindUser    = "user"
	KindPost    = "post"
	KindComment = "comment"
)

// CheckTableRowLimit answers 503 once the table behind kind holds the configured maximum
// number of rows. The count is taken on every request. Unknown kinds pass through.
//
// The check and the later insert are separate statements, so concurrent creations near
// the limit can overshoot it by the number of requests in flight.
func CheckTableRowLimit(db *gorm.DB, limits config.AppLimits, kind string, metrics *Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		model, maxRows, ok := rowLimitFor(limits, kind)
		if !ok {
			ctx.Next()
			return
		}

		var count int64
		if err := db.WithContext(ctx.Request.Context()).Model(model).Count(&count).Error; err != nil {
			utils.InternalError(ctx, "count rows for "+kind, err)
			return
		}
		if count >= int64(maxRows) {
			utils.RequestLogger(ctx).Warnw("row limit reached", "kind", kind, "count", count, "max", maxRows)
			metrics.capacityRejected(kind)
			utils.Error(ctx, http.StatusServiceUnavailable, utils.MsgCapacityExceeded)
			return
		}
		ctx.Next()
	}
}

func rowLimitFor(limits config.AppLimits, kind string) (interface{}, int, bool) {
	switch kind {
	case KindUser:
		return &models.User{}, limits.MaxUsers, true
	case KindPost:
		return &models.Post{}, limits.MaxPosts, true
	case KindComment:
		return &models.Comment{}, limits.MaxComments, true
	default:
		return nil, 0, false
	}
}
