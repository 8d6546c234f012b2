package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	// DefaultPageSize is the page size of every listing without its own setting.
	DefaultPageSize = 10
	// pageLinksOnEachSide is how many numbered links surround the current page.
	pageLinksOnEachSide = 3
)

// Page is a length-aware listing page.
type Page struct {
	Data  interface{} `json:"data"`
	Links PageLinks   `json:"links"`
	Meta  PageMeta    `json:"meta"`
}

// PageLinks are absolute URLs of the neighbouring pages.
type PageLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// PageLink is one entry of the numbered page navigation.
type PageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// PageMeta describes where the page sits in the whole result.
type PageMeta struct {
	CurrentPage int        `json:"current_page"`
	From        *int       `json:"from"`
	LastPage    int        `json:"last_page"`
	Links       []PageLink `json:"links"`
	Path        string     `json:"path"`
	PerPage     int        `json:"per_page"`
	To          *int       `json:"to"`
	Total       int64      `json:"total"`
}

// ParsePage reads the page number; anything that is not a positive integer means page 1.
func ParsePage(raw string) int {
	if p, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && p > 0 {
		return p
	}
	return 1
}

// Paginate counts the rows matched by base and loads the requested page into dest,
// newest first with the id as tie-breaker. decorate may add preloads or selects that
// must not take part in the count.
func Paginate(base *gorm.DB, page, perPage int, dest interface{}, decorate func(*gorm.DB) *gorm.DB) (int64, error) {
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}

	// Pages past the end load nothing; this also keeps the offset from overflowing.
	if page-1 > (math.MaxInt-1)/perPage || int64(page-1)*int64(perPage) >= total {
		return total, nil
	}

	query := base.Session(&gorm.Session{})
	if decorate != nil {
		query = decorate(query)
	}
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(dest).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// NewPage builds the listing envelope. count is the number of items on this page.
func NewPage(data interface{}, count int, total int64, page, perPage int, path string) Page {
	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}

	pageURL := func(n int) string {
		return fmt.Sprintf("%s?page=%d", path, n)
	}

	var prev, next *string
	if page > 1 {
		u := pageURL(page - 1)
		prev = &u
	}
	if page < lastPage {
		u := pageURL(page + 1)
		next = &u
	}

	var from, to *int
	if count > 0 {
		f := (page-1)*perPage + 1
		t := f + count - 1
		from, to = &f, &t
	}

	links := []PageLink{{URL: prev, Label: "&laquo; Previous"}}
	for _, n := range pageWindow(page, lastPage) {
		if n == 0 {
			links = append(links, PageLink{Label: "..."})
			continue
		}
		u := pageURL(n)
		links = append(links, PageLink{URL: &u, Label: strconv.Itoa(n), Active: n == page})
	}
	links = append(links, PageLink{URL: next, Label: "Next &raquo;"})

	return Page{
		Data: data,
		Links: PageLinks{
			First: pageURL(1),
			Last:  pageURL(lastPage),
			Prev:  prev,
			Next:  next,
		},
		Meta: PageMeta{
			CurrentPage: page,
			From:        from,
			LastPage:    lastPage,
			Links:       links,
			Path:        path,
			PerPage:     perPage,
			To:          to,
			Total:       total,
		},
	}
}

// pageWindow lists the page numbers to show, with 0 marking an elided gap.
func pageWindow(current, lastPage int) []int {
	const each = pageLinksOnEachSide
	if lastPage < each*2+8 {
		return pageRange(1, lastPage)
	}

	window := each + 4
	var out []int
	switch {
	case current <= window:
		out = append(out, pageRange(1, window+each)...)
		out = append(out, 0)
		out = append(out, pageRange(lastPage-1, lastPage)...)
	case current > lastPage-window:
		out = append(out, 1, 2, 0)
		out = append(out, pageRange(lastPage-(window+each-1), lastPage)...)
	default:
		out = append(out, 1, 2, 0)
		out = append(out, pageRange(current-each, current+each)...)
		out = append(out, 0)
		out = append(out, pageRange(lastPage-1, lastPage)...)
	}
	return out
}

func pageRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// RequestURL returns the absolute URL of the current request path without its query.
// appURL, when set, replaces the scheme and host seen on the request.
func RequestURL(ctx *gin.Context, appURL string) string {
	path := ctx.Request.URL.Path
	if appURL != "" {
		return strings.TrimRight(appURL, "/") + path
	}
	scheme := "http"
	if ctx.Request.TLS != nil || strings.EqualFold(ctx.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + ctx.Request.Host + path
}
