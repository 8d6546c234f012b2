package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/forumlite/models"
)

func TestIssueAndFindAccessToken(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	user := createUser(t, db, "token@example.com")

	plain, err := IssueAccessToken(db, user.ID, DefaultTokenName)
	require.NoError(t, err)

	id, secret, ok := strings.Cut(plain, "|")
	require.True(t, ok)
	assert.NotEmpty(t, id)
	assert.Len(t, secret, tokenSecretLength)

	var stored models.PersonalAccessToken
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, HashToken(secret), stored.Token)
	assert.NotContains(t, stored.Token, secret)

	found, err := FindAccessToken(db, plain)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, found.ID)
	assert.Equal(t, user.Email, found.User.Email)

	// The bare secret resolves through its hash.
	found, err = FindAccessToken(db, secret)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, found.ID)
}

func TestFindAccessTokenRejectsBadInput(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	user := createUser(t, db, "bad@example.com")
	plain, err := IssueAccessToken(db, user.ID, DefaultTokenName)
	require.NoError(t, err)
	id, _, _ := strings.Cut(plain, "|")

	for _, candidate := range []string{
		"",
		"   ",
		"abc|",
		"x|secret",
		id + "|wrongsecret",
		"999|" + strings.Repeat("a", tokenSecretLength),
		"no-such-secret",
	} {
		_, err := FindAccessToken(db, candidate)
		assert.ErrorIs(t, err, ErrInvalidToken, "candidate %q", candidate)
	}
}

func TestRevokeTokens(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	user := createUser(t, db, "revoke@example.com")

	first, err := IssueAccessToken(db, user.ID, DefaultTokenName)
	require.NoError(t, err)
	second, err := IssueAccessToken(db, user.ID, DefaultTokenName)
	require.NoError(t, err)

	tok, err := FindAccessToken(db, first)
	require.NoError(t, err)
	require.NoError(t, RevokeAccessToken(db, tok.ID))

	_, err = FindAccessToken(db, first)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = FindAccessToken(db, second)
	assert.NoError(t, err)

	require.NoError(t, RevokeUserTokens(db, user.ID))
	_, err = FindAccessToken(db, second)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTouchAccessToken(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	user := createUser(t, db, "touch@example.com")
	plain, err := IssueAccessToken(db, user.ID, DefaultTokenName)
	require.NoError(t, err)

	tok, err := FindAccessToken(db, plain)
	require.NoError(t, err)
	assert.Nil(t, tok.LastUsedAt)

	require.NoError(t, TouchAccessToken(db, tok))
	require.NotNil(t, tok.LastUsedAt)

	var stored models.PersonalAccessToken
	require.NoError(t, db.First(&stored, tok.ID).Error)
	assert.NotNil(t, stored.LastUsedAt)
}
