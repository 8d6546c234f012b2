package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/forumlite/config"
	"github.com/cppla/forumlite/models"
	"github.com/cppla/forumlite/policies"
	"github.com/cppla/forumlite/utils"
)

// CommentController manages comments attached to posts.
type CommentController struct {
	db  *gorm.DB
	cfg config.AppConfig
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB, cfg config.AppConfig) *CommentController {
	return &CommentController{db: db, cfg: cfg}
}

type commentRequest struct {
	Content string `json:"content" validate:"required"`
}

// ListComments returns the paginated comments of a post, newest first.
func (c *CommentController) ListComments(ctx *gin.Context) {
	post, ok := findPost(ctx, c.db, "id")
	if !ok {
		return
	}
	page := utils.ParsePage(ctx.Query("page"))

	query := c.db.WithContext(ctx.Request.Context()).Model(&models.Comment{}).Where("post_id = ?", post.ID)
	var comments []models.Comment
	total, err := utils.Paginate(query, page, utils.DefaultPageSize, &comments, func(q *gorm.DB) *gorm.DB {
		return q.Preload("User")
	})
	if err != nil {
		utils.InternalError(ctx, "list comments", err)
		return
	}

	ctx.JSON(http.StatusOK, utils.NewPage(
		newCommentResources(comments, false), len(comments), total, page, utils.DefaultPageSize,
		utils.RequestURL(ctx, c.cfg.AppURL),
	))
}

// CreateComment allows authenticated users to comment on an existing post.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	post, ok := findPost(ctx, c.db, "id")
	if !ok {
		return
	}

	var req commentRequest
	utils.BindJSON(ctx, &req)
	req.Content = utils.Sanitize(req.Content)
	if errs := utils.ValidateStruct(req); errs != nil {
		utils.ValidationError(ctx, errs)
		return
	}

	comment := models.Comment{
		PostID:  post.ID,
		UserID:  user.ID,
		Content: req.Content,
	}
	if err := c.db.WithContext(ctx.Request.Context()).Omit("User", "Post").Create(&comment).Error; err != nil {
		utils.InternalError(ctx, "create comment", err)
		return
	}
	comment.User = *user
	// The cached post carries comments_count.
	utils.CacheDelete(postCacheKey(post.ID))

	ctx.JSON(http.StatusCreated, gin.H{
		"data":    newCommentResource(&comment, false),
		"message": "Comment created successfully",
	})
}

// UpdateComment lets the author change the content of their comment.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	comment, ok := findComment(ctx, c.db, "id")
	if !ok {
		return
	}
	if !denyUnlessAllowed(ctx, policies.AuthorizeComment(user, comment, policies.Update)) {
		return
	}

	var req commentRequest
	utils.BindJSON(ctx, &req)
	req.Content = utils.Sanitize(req.Content)
	if errs := utils.ValidateStruct(req); errs != nil {
		utils.ValidationError(ctx, errs)
		return
	}

	if req.Content != comment.Content {
		comment.Content = req.Content
		comment.UpdatedAt = time.Now()
		err := c.db.WithContext(ctx.Request.Context()).
			Model(&models.Comment{}).
			Where("id = ?", comment.ID).
			UpdateColumns(map[string]interface{}{
				"content":    comment.Content,
				"updated_at": comment.UpdatedAt,
			}).Error
		if err != nil {
			utils.InternalError(ctx, "update comment", err)
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":    newCommentResource(comment, false),
		"message": "Comment updated successfully",
	})
}

// DeleteComment lets the author delete their comment.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	comment, ok := findComment(ctx, c.db, "id")
	if !ok {
		return
	}
	if !denyUnlessAllowed(ctx, policies.AuthorizeComment(user, comment, policies.Delete)) {
		return
	}

	if err := c.db.WithContext(ctx.Request.Context()).Delete(&models.Comment{}, comment.ID).Error; err != nil {
		utils.InternalError(ctx, "delete comment", err)
		return
	}
	utils.CacheDelete(postCacheKey(comment.PostID))

	utils.Message(ctx, http.StatusOK, "Comment deleted successfully")
}
