package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/forumlite/models"
)

func TestFormatTimeIsUTC(t *testing.T) {
	zone := time.FixedZone("UTC+8", 8*3600)
	ts := time.Date(2024, 5, 1, 18, 0, 0, 0, zone)
	assert.Equal(t, "2024-05-01T10:00:00+00:00", formatTime(ts))
}

func TestPostResourceCommentsCount(t *testing.T) {
	post := &models.Post{
		ID:            3,
		Title:         "t",
		Content:       "c",
		User:          models.User{ID: 9, Name: "n", Email: "n@x.com"},
		CommentsCount: 4,
	}

	plain := newPostResource(post, false)
	assert.Nil(t, plain.CommentsCount)
	require.NotNil(t, plain.User)
	assert.Equal(t, "n@x.com", plain.User.Email)

	counted := newPostResource(post, true)
	require.NotNil(t, counted.CommentsCount)
	assert.Equal(t, int64(4), *counted.CommentsCount)

	post.User = models.User{}
	assert.Nil(t, newPostResource(post, false).User)
}

func TestCommentResourcePostSummary(t *testing.T) {
	comment := &models.Comment{
		ID:      1,
		Content: "hi",
		User:    models.User{ID: 2},
		Post:    models.Post{ID: 5, Title: "topic"},
	}
	assert.Nil(t, newCommentResource(comment, false).Post)

	res := newCommentResource(comment, true)
	require.NotNil(t, res.Post)
	assert.Equal(t, PostSummary{ID: 5, Title: "topic"}, *res.Post)
	assert.Len(t, newCommentResources([]models.Comment{*comment, *comment}, true), 2)
}
