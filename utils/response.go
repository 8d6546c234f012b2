package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Fixed client-facing messages.
const (
	MsgUnauthenticated  = "Unauthenticated."
	MsgForbidden        = "This action is unauthorized."
	MsgValidation       = "Validation errors"
	MsgTooManyAttempts  = "Too Many Attempts."
	MsgCapacityExceeded = "The maximum number of allowed records has been reached. Cannot create new entries at this time."
	MsgServerError      = "Server Error"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Message writes {"message": msg} with the given status.
func Message(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"message": message})
}

// Error writes an error body and aborts the handler chain.
func Error(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, ErrorResponse{Message: message})
}

// ValidationError answers 422 with field-indexed messages.
func ValidationError(ctx *gin.Context, fields map[string][]string) {
	ctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{Message: MsgValidation, Errors: fields})
}

// Unauthenticated answers 401 with the fixed message.
func Unauthenticated(ctx *gin.Context) {
	Error(ctx, http.StatusUnauthorized, MsgUnauthenticated)
}

// Forbidden answers 403 with the fixed message.
func Forbidden(ctx *gin.Context) {
	Error(ctx, http.StatusForbidden, MsgForbidden)
}

// ServerError answers 500 without any detail about the cause.
func ServerError(ctx *gin.Context) {
	Error(ctx, http.StatusInternalServerError, MsgServerError)
}

// InternalError logs err with request context and answers 500.
func InternalError(ctx *gin.Context, what string, err error) {
	RequestLogger(ctx).Errorw(what,
		"error", err,
		"method", ctx.Request.Method,
		"path", ctx.Request.URL.Path,
	)
	ServerError(ctx)
}
