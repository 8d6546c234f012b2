package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/forumlite/config"
	"github.com/cppla/forumlite/models"
	"github.com/cppla/forumlite/policies"
	"github.com/cppla/forumlite/utils"
)

// PostController manages CRUD operations for posts.
type PostController struct {
	db  *gorm.DB
	cfg config.AppConfig
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, cfg config.AppConfig) *PostController {
	return &PostController{db: db, cfg: cfg}
}

type createPostRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

// updatePostRequest only validates the fields that were sent.
type updatePostRequest struct {
	Title   *string `json:"title" validate:"omitnil,required,max=255"`
	Content *string `json:"content" validate:"omitnil,required"`
}

// ListPosts returns paginated posts, newest first, optionally filtered by a search term
// matched against title and content.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page := utils.ParsePage(ctx.Query("page"))
	search := strings.TrimSpace(ctx.Query("search"))

	query := p.db.WithContext(ctx.Request.Context()).Model(&models.Post{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", like, like)
	}

	var posts []models.Post
	total, err := utils.Paginate(query, page, utils.DefaultPageSize, &posts, func(q *gorm.DB) *gorm.DB {
		return q.Preload("User")
	})
	if err != nil {
		utils.InternalError(ctx, "list posts", err)
		return
	}

	ctx.JSON(http.StatusOK, utils.NewPage(
		newPostResources(posts, false), len(posts), total, page, utils.DefaultPageSize,
		utils.RequestURL(ctx, p.cfg.AppURL),
	))
}

// GetPost returns a single post with its author and comment count.
func (p *PostController) GetPost(ctx *gin.Context) {
	if id, ok := parseID(ctx, "id"); ok {
		var cached PostResource
		if utils.CacheGetJSON(postCacheKey(id), &cached) {
			ctx.JSON(http.StatusOK, gin.H{"data": cached})
			return
		}
	}

	post, ok := findPost(ctx, p.db, "id", withCommentsCount)
	if !ok {
		return
	}

	res := newPostResource(post, true)
	utils.CacheSetJSON(postCacheKey(post.ID), res, time.Hour)
	ctx.JSON(http.StatusOK, gin.H{"data": res})
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req createPostRequest
	utils.BindJSON(ctx, &req)
	req.Title = utils.Sanitize(req.Title)
	req.Content = utils.Sanitize(req.Content)
	if errs := utils.ValidateStruct(req); errs != nil {
		utils.ValidationError(ctx, errs)
		return
	}

	post := models.Post{
		UserID:  user.ID,
		Title:   req.Title,
		Content: req.Content,
	}
	if err := p.db.WithContext(ctx.Request.Context()).Omit("User").Create(&post).Error; err != nil {
		utils.InternalError(ctx, "create post", err)
		return
	}
	post.User = *user

	ctx.JSON(http.StatusCreated, gin.H{
		"data":    newPostResource(&post, false),
		"message": "Post created successfully",
	})
}

// UpdatePost lets the author change the title and/or content of their post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	post, ok := findPost(ctx, p.db, "id")
	if !ok {
		return
	}
	if !denyUnlessAllowed(ctx, policies.AuthorizePost(user, post, policies.Update)) {
		return
	}

	var req updatePostRequest
	utils.BindJSON(ctx, &req)
	if req.Title != nil {
		*req.Title = utils.Sanitize(*req.Title)
	}
	if req.Content != nil {
		*req.Content = utils.Sanitize(*req.Content)
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		utils.ValidationError(ctx, errs)
		return
	}

	changes := map[string]interface{}{}
	if req.Title != nil && *req.Title != post.Title {
		post.Title = *req.Title
		changes["title"] = post.Title
	}
	if req.Content != nil && *req.Content != post.Content {
		post.Content = *req.Content
		changes["content"] = post.Content
	}
	if len(changes) > 0 {
		post.UpdatedAt = time.Now()
		changes["updated_at"] = post.UpdatedAt
		err := p.db.WithContext(ctx.Request.Context()).
			Model(&models.Post{}).
			Where("id = ?", post.ID).
			UpdateColumns(changes).Error
		if err != nil {
			utils.InternalError(ctx, "update post", err)
			return
		}
		utils.CacheDelete(postCacheKey(post.ID))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":    newPostResource(post, false),
		"message": "Post updated successfully",
	})
}

// DeletePost lets the author delete their post together with its comments.
func (p *PostController) DeletePost(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	post, ok := findPost(ctx, p.db, "id")
	if !ok {
		return
	}
	if !denyUnlessAllowed(ctx, policies.AuthorizePost(user, post, policies.Delete)) {
		return
	}

	err := p.db.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		utils.InternalError(ctx, "delete post", err)
		return
	}
	utils.CacheDelete(postCacheKey(post.ID))

	utils.Message(ctx, http.StatusOK, "Post deleted successfully")
}
