package controllers

import (
	"time"

	"github.com/cppla/forumlite/models"
)

// isoTime is ISO-8601 with a numeric offset, e.g. 2024-05-01T10:00:00+00:00.
const isoTime = "2006-01-02T15:04:05-07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(isoTime)
}

// UserResource is the public view of an account.
type UserResource struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// PostResource is the public view of a post. CommentsCount is only set on views that count comments.
type PostResource struct {
	ID            uint          `json:"id"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	CreatedAt     string        `json:"created_at"`
	UpdatedAt     string        `json:"updated_at"`
	User          *UserResource `json:"user,omitempty"`
	CommentsCount *int64        `json:"comments_count,omitempty"`
}

// PostSummary identifies the post a comment belongs to.
type PostSummary struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// CommentResource is the public view of a comment.
type CommentResource struct {
	ID        uint          `json:"id"`
	Content   string        `json:"content"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
	User      *UserResource `json:"user,omitempty"`
	Post      *PostSummary  `json:"post,omitempty"`
}

func newUserResource(u *models.User) *UserResource {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &UserResource{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: formatTime(u.CreatedAt),
		UpdatedAt: formatTime(u.UpdatedAt),
	}
}

func newPostResource(p *models.Post, withCount bool) PostResource {
	res := PostResource{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
		User:      newUserResource(&p.User),
	}
	if withCount {
		count := p.CommentsCount
		res.CommentsCount = &count
	}
	return res
}

func newPostResources(posts []models.Post, withCount bool) []PostResource {
	out := make([]PostResource, 0, len(posts))
	for i := range posts {
		out = append(out, newPostResource(&posts[i], withCount))
	}
	return out
}

func newCommentResource(c *models.Comment, withPost bool) CommentResource {
	res := CommentResource{
		ID:        c.ID,
		Content:   c.Content,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
		User:      newUserResource(&c.User),
	}
	if withPost && c.Post.ID != 0 {
		res.Post = &PostSummary{ID: c.Post.ID, Title: c.Post.Title}
	}
	return res
}

func newCommentResources(comments []models.Comment, withPost bool) []CommentResource {
	out := make([]CommentResource, 0, len(comments))
	for i := range comments {
		out = append(out, newCommentResource(&comments[i], withPost))
	}
	return out
}
