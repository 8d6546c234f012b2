package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/forumlite/middleware"
	"github.com/cppla/forumlite/models"
	"github.com/cppla/forumlite/policies"
	"github.com/cppla/forumlite/utils"
)

// parseID reads a positive numeric path parameter.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func notFound(ctx *gin.Context, model, id string) {
	utils.Error(ctx, http.StatusNotFound, fmt.Sprintf("No query results for model [%s] %s", model, id))
}

// findPost resolves the :name path parameter to a post with its author, answering 404
// (or 500) itself when it cannot.
func findPost(ctx *gin.Context, db *gorm.DB, name string, scopes ...func(*gorm.DB) *gorm.DB) (*models.Post, bool) {
	id, ok := parseID(ctx, name)
	if !ok {
		notFound(ctx, "Post", ctx.Param(name))
		return nil, false
	}
	var post models.Post
	err := db.WithContext(ctx.Request.Context()).Scopes(scopes...).Preload("User").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(ctx, "Post", ctx.Param(name))
			return nil, false
		}
		utils.InternalError(ctx, "load post", err)
		return nil, false
	}
	return &post, true
}

// findComment resolves the :name path parameter to a comment with its author.
func findComment(ctx *gin.Context, db *gorm.DB, name string) (*models.Comment, bool) {
	id, ok := parseID(ctx, name)
	if !ok {
		notFound(ctx, "Comment", ctx.Param(name))
		return nil, false
	}
	var comment models.Comment
	err := db.WithContext(ctx.Request.Context()).Preload("User").First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(ctx, "Comment", ctx.Param(name))
			return nil, false
		}
		utils.InternalError(ctx, "load comment", err)
		return nil, false
	}
	return &comment, true
}

// currentUser returns the authenticated user; routes using it sit behind AuthRequired.
func currentUser(ctx *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Unauthenticated(ctx)
		return nil, false
	}
	return user, true
}

// denyUnlessAllowed maps a policy verdict onto the response. It reports whether the caller may proceed.
func denyUnlessAllowed(ctx *gin.Context, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, policies.ErrUnauthenticated):
		utils.Unauthenticated(ctx)
	default:
		utils.Forbidden(ctx)
	}
	return false
}

func withCommentsCount(db *gorm.DB) *gorm.DB {
	return db.Select(models.WithCommentsCount)
}

func postCacheKey(id uint) string {
	return "cache:post:detail:" + strconv.FormatUint(uint64(id), 10)
}
