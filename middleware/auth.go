package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/forumlite/models"
	"github.com/cppla/forumlite/utils"
)

const (
	// ContextUserKey stores the authenticated *models.User inside Gin context.
	ContextUserKey = "auth_user"
	// ContextTokenKey stores the *models.PersonalAccessToken used by the request.
	ContextTokenKey = "auth_token"

	contextResolvedKey = "auth_resolved"
)

// AuthRequired rejects requests without a valid bearer token with 401.
func AuthRequired(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := resolveToken(ctx, db)
		if err != nil {
			utils.InternalError(ctx, "resolve access token", err)
			return
		}
		if token == nil {
			utils.Unauthenticated(ctx)
			return
		}
		ctx.Next()
	}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// CurrentToken returns the token that authenticated the request, if any.
func CurrentToken(ctx *gin.Context) (*models.PersonalAccessToken, bool) {
	v, ok := ctx.Get(ContextTokenKey)
	if !ok {
		return nil, false
	}
	token, ok := v.(*models.PersonalAccessToken)
	return token, ok && token != nil
}

// resolveToken looks the bearer token up at most once per request. A missing, malformed
// or revoked token yields (nil, nil); only storage failures are returned as errors.
func resolveToken(ctx *gin.Context, db *gorm.DB) (*models.PersonalAccessToken, error) {
	if ctx.GetBool(contextResolvedKey) {
		token, _ := CurrentToken(ctx)
		return token, nil
	}

	bearer, ok := bearerToken(ctx)
	if !ok {
		ctx.Set(contextResolvedKey, true)
		return nil, nil
	}

	tx := db.WithContext(ctx.Request.Context())
	token, err := utils.FindAccessToken(tx, bearer)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidToken) {
			ctx.Set(contextResolvedKey, true)
			return nil, nil
		}
		return nil, err
	}
	if err := utils.TouchAccessToken(tx, token); err != nil {
		utils.Sugar.Warnw("failed to record token use", "token_id", token.ID, "error", err)
	}

	ctx.Set(ContextTokenKey, token)
	ctx.Set(ContextUserKey, &token.User)
	ctx.Set(contextResolvedKey, true)
	return token, nil
}

func bearerToken(ctx *gin.Context) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
