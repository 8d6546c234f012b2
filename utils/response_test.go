package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecoveryWithZapHidesPanicDetails(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)

	r := gin.New()
	r.Use(RecoveryWithZap(zap.New(core), false))
	r.GET("/boom", func(*gin.Context) { panic("secret detail") })

	req := httptest.NewRequest("GET", "/boom", nil)
	req.Header.Set("Authorization", "Bearer 1|abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Server Error"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret detail")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		dump := entries[0].ContextMap()["request"].(string)
		assert.Contains(t, dump, "Authorization: [redacted]")
		assert.NotContains(t, dump, "1|abc")
	}
}

func TestErrorResponses(t *testing.T) {

	cases := []struct {
		name   string
		handle func(*gin.Context)
		code   int
		body   string
	}{
		{"unauthenticated", Unauthenticated, http.StatusUnauthorized, `{"message":"Unauthenticated."}`},
		{"forbidden", Forbidden, http.StatusForbidden, `{"message":"This action is unauthorized."}`},
		{"validation", func(c *gin.Context) {
			ValidationError(c, map[string][]string{"title": {"The title field is required."}})
		}, http.StatusUnprocessableEntity, `{"message":"Validation errors","errors":{"title":["The title field is required."]}}`},
		{"internal", func(c *gin.Context) {
			InternalError(c, "load thing", errors.New("db down"))
		}, http.StatusInternalServerError, `{"message":"Server Error"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)
			ctx.Request = httptest.NewRequest("GET", "/", nil)
			tc.handle(ctx)
			assert.Equal(t, tc.code, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
			assert.True(t, ctx.IsAborted())
		})
	}
}
