package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/forumlite/config"
	"github.com/cppla/forumlite/models"
	"github.com/cppla/forumlite/utils"
)

// UserController serves the authenticated caller's own content.
type UserController struct {
	db  *gorm.DB
	cfg config.AppConfig
}

// NewUserController creates a new UserController instance.
func NewUserController(db *gorm.DB, cfg config.AppConfig) *UserController {
	return &UserController{db: db, cfg: cfg}
}

// Me returns the authenticated user.
func (u *UserController) Me(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": newUserResource(user)})
}

// ListMyPosts returns the caller's posts with comment counts. The page size comes from
// app_limits.pagination_limit.
func (u *UserController) ListMyPosts(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	page := utils.ParsePage(ctx.Query("page"))
	perPage := u.cfg.AppLimits.PaginationLimit
	if perPage <= 0 {
		perPage = utils.DefaultPageSize
	}

	query := u.db.WithContext(ctx.Request.Context()).Model(&models.Post{}).Where("user_id = ?", user.ID)
	var posts []models.Post
	total, err := utils.Paginate(query, page, perPage, &posts, func(q *gorm.DB) *gorm.DB {
		return withCommentsCount(q).Preload("User")
	})
	if err != nil {
		utils.InternalError(ctx, "list user posts", err)
		return
	}

	ctx.JSON(http.StatusOK, utils.NewPage(
		newPostResources(posts, true), len(posts), total, page, perPage,
		utils.RequestURL(ctx, u.cfg.AppURL),
	))
}

// ListMyComments returns the caller's comments, each with the post it belongs to.
func (u *UserController) ListMyComments(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	page := utils.ParsePage(ctx.Query("page"))

	query := u.db.WithContext(ctx.Request.Context()).Model(&models.Comment{}).Where("user_id = ?", user.ID)
	var comments []models.Comment
	total, err := utils.Paginate(query, page, utils.DefaultPageSize, &comments, func(q *gorm.DB) *gorm.DB {
		return q.Preload("User").Preload("Post")
	})
	if err != nil {
		utils.InternalError(ctx, "list user comments", err)
		return
	}

	ctx.JSON(http.StatusOK, utils.NewPage(
		newCommentResources(comments, true), len(comments), total, page, utils.DefaultPageSize,
		utils.RequestURL(ctx, u.cfg.AppURL),
	))
}
