package utils

import (
	"fmt"
	"math"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/forumlite/models"
)

func TestParsePage(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"":    1,
		"1":   1,
		"7":   7,
		" 3 ": 3,
		"0":   1,
		"-2":  1,
		"abc": 1,
		"2.5": 1,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParsePage(raw), "raw=%q", raw)
	}
}

func TestNewPageMiddle(t *testing.T) {
	t.Parallel()

	page := NewPage([]int{1, 2, 3}, 3, 23, 2, 10, "http://x/api/posts")

	assert.Equal(t, 2, page.Meta.CurrentPage)
	assert.Equal(t, 3, page.Meta.LastPage)
	assert.Equal(t, int64(23), page.Meta.Total)
	assert.Equal(t, 10, page.Meta.PerPage)
	require.NotNil(t, page.Meta.From)
	require.NotNil(t, page.Meta.To)
	assert.Equal(t, 11, *page.Meta.From)
	assert.Equal(t, 13, *page.Meta.To)

	assert.Equal(t, "http://x/api/posts?page=1", page.Links.First)
	assert.Equal(t, "http://x/api/posts?page=3", page.Links.Last)
	require.NotNil(t, page.Links.Prev)
	require.NotNil(t, page.Links.Next)
	assert.Equal(t, "http://x/api/posts?page=1", *page.Links.Prev)
	assert.Equal(t, "http://x/api/posts?page=3", *page.Links.Next)

	labels := make([]string, 0, len(page.Meta.Links))
	for _, l := range page.Meta.Links {
		labels = append(labels, l.Label)
	}
	assert.Equal(t, []string{"&laquo; Previous", "1", "2", "3", "Next &raquo;"}, labels)
	assert.True(t, page.Meta.Links[2].Active)
	assert.False(t, page.Meta.Links[1].Active)
}

func TestNewPageEmptyAndOutOfRange(t *testing.T) {
	t.Parallel()

	empty := NewPage([]int{}, 0, 0, 1, 10, "http://x/p")
	assert.Equal(t, 1, empty.Meta.LastPage)
	assert.Nil(t, empty.Meta.From)
	assert.Nil(t, empty.Meta.To)
	assert.Nil(t, empty.Links.Prev)
	assert.Nil(t, empty.Links.Next)

	beyond := NewPage([]int{}, 0, 5, 4, 10, "http://x/p")
	assert.Equal(t, 4, beyond.Meta.CurrentPage)
	assert.Equal(t, int64(5), beyond.Meta.Total)
	assert.Equal(t, 1, beyond.Meta.LastPage)
	assert.Nil(t, beyond.Meta.From)
	assert.Nil(t, beyond.Links.Next)
	require.NotNil(t, beyond.Links.Prev)
	assert.Equal(t, "http://x/p?page=3", *beyond.Links.Prev)
}

func TestPageWindow(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{1, 2, 3, 4, 5}, pageWindow(3, 5))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 0, 19, 20}, pageWindow(2, 20))
	assert.Equal(t, []int{1, 2, 0, 7, 8, 9, 10, 11, 12, 13, 0, 19, 20}, pageWindow(10, 20))
	assert.Equal(t, []int{1, 2, 0, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, pageWindow(19, 20))
}

func TestPaginateOrdersNewestFirst(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	user := createUser(t, db, "pager@example.com")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		post := models.Post{
			UserID:    user.ID,
			Title:     fmt.Sprintf("post %d", i),
			Content:   "body",
			CreatedAt: base.Add(time.Duration(i%6) * time.Minute),
		}
		require.NoError(t, db.Omit("User").Create(&post).Error)
	}

	var first []models.Post
	total, err := Paginate(db.Model(&models.Post{}), 1, 5, &first, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, first, 5)
	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		assert.False(t, cur.CreatedAt.After(prev.CreatedAt))
		if cur.CreatedAt.Equal(prev.CreatedAt) {
			assert.Less(t, cur.ID, prev.ID)
		}
	}
	// Equal timestamps fall back to id, so the newest row with the latest time leads.
	assert.Equal(t, "post 11", first[0].Title)
	assert.Equal(t, "post 5", first[1].Title)

	var last []models.Post
	total, err = Paginate(db.Model(&models.Post{}), 3, 5, &last, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	assert.Len(t, last, 2)

	var none []models.Post
	total, err = Paginate(db.Model(&models.Post{}), 9, 5, &none, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	assert.Empty(t, none)

	// (page-1)*perPage would wrap around int64.
	var huge []models.Post
	total, err = Paginate(db.Model(&models.Post{}), math.MaxInt, 5, &huge, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	assert.Empty(t, huge)

	page := NewPage(huge, len(huge), total, math.MaxInt, 5, "http://x/p")
	assert.Equal(t, math.MaxInt, page.Meta.CurrentPage)
	assert.Nil(t, page.Meta.From)
	assert.Nil(t, page.Meta.To)
	assert.Equal(t, 3, page.Meta.LastPage)
}

func TestRequestURL(t *testing.T) {
	t.Parallel()

	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest("GET", "http://forum.local/api/posts?page=2", nil)
	assert.Equal(t, "http://forum.local/api/posts", RequestURL(ctx, ""))
	assert.Equal(t, "https://public.example/api/posts", RequestURL(ctx, "https://public.example/"))

	ctx.Request.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://forum.local/api/posts", RequestURL(ctx, ""))
}
