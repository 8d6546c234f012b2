// Package policies decides whether an authenticated user may mutate a resource.
//
// Ownership is the only rule: a user may update or delete what they created.
// There is no role or admin override.
package policies

import (
	"errors"

	"github.com/cppla/forumlite/models"
)

// Action is a mutation a caller wants to perform.
type Action string

const (
	Update Action = "update"
	Delete Action = "delete"
)

var (
	// ErrUnauthenticated means no identity was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the identity does not own the resource or the action is unknown.
	ErrForbidden = errors.New("forbidden")
)

// AuthorizePost reports whether user may perform action on post.
func AuthorizePost(user *models.User, post *models.Post, action Action) error {
	if post == nil {
		return ErrForbidden
	}
	return authorizeOwner(user, post.UserID, action)
}

// AuthorizeComment reports whether user may perform action on comment.
func AuthorizeComment(user *models.User, comment *models.Comment, action Action) error {
	if comment == nil {
		return ErrForbidden
	}
	return authorizeOwner(user, comment.UserID, action)
}

func authorizeOwner(user *models.User, ownerID uint, action Action) error {
	if user == nil || user.ID == 0 {
		return ErrUnauthenticated
	}
	switch action {
	case Update, Delete:
	default:
		return ErrForbidden
	}
	if ownerID != user.ID {
		return ErrForbidden
	}
	return nil
}
