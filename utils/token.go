package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/forumlite/models"
)

const (
	tokenSecretLength = 40
	tokenAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// DefaultTokenName labels tokens issued by register and login.
	DefaultTokenName = "api-token"
)

// ErrInvalidToken is returned for absent, malformed or revoked bearer tokens.
var ErrInvalidToken = errors.New("invalid access token")

// HashToken returns the hex sha256 digest stored for a token secret.
func HashToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func randomSecret(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	bound := big.NewInt(int64(len(tokenAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, bound)
		if err != nil {
			return "", err
		}
		sb.WriteByte(tokenAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}

// IssueAccessToken stores a new token for userID and returns its plaintext form
// "{id}|{secret}". The plaintext is never persisted.
func IssueAccessToken(tx *gorm.DB, userID uint, name string) (string, error) {
	secret, err := randomSecret(tokenSecretLength)
	if err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	token := models.PersonalAccessToken{
		UserID: userID,
		Name:   name,
		Token:  HashToken(secret),
	}
	if err := tx.Create(&token).Error; err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return strconv.FormatUint(uint64(token.ID), 10) + "|" + secret, nil
}

// RevokeUserTokens deletes every token issued to userID.
func RevokeUserTokens(tx *gorm.DB, userID uint) error {
	return tx.Where("user_id = ?", userID).Delete(&models.PersonalAccessToken{}).Error
}

// RevokeAccessToken deletes a single token by id.
func RevokeAccessToken(tx *gorm.DB, tokenID uint) error {
	return tx.Delete(&models.PersonalAccessToken{}, tokenID).Error
}

// FindAccessToken resolves a plaintext bearer token to its stored record with the owning
// user preloaded. Tokens of the form "{id}|{secret}" are looked up by id and compared in
// constant time; bare secrets are looked up by hash.
func FindAccessToken(db *gorm.DB, plain string) (*models.PersonalAccessToken, error) {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return nil, ErrInvalidToken
	}

	var token models.PersonalAccessToken
	id, secret, hasID := strings.Cut(plain, "|")
	if hasID {
		tokenID, err := strconv.ParseUint(id, 10, 64)
		if err != nil || secret == "" {
			return nil, ErrInvalidToken
		}
		if err := db.Preload("User").First(&token, tokenID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidToken
			}
			return nil, err
		}
		if subtle.ConstantTimeCompare([]byte(token.Token), []byte(HashToken(secret))) != 1 {
			return nil, ErrInvalidToken
		}
	} else {
		if err := db.Preload("User").Where("token = ?", HashToken(plain)).First(&token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidToken
			}
			return nil, err
		}
	}

	if token.User.ID == 0 {
		return nil, ErrInvalidToken
	}
	return &token, nil
}

// TouchAccessToken records when a token was last used.
func TouchAccessToken(db *gorm.DB, token *models.PersonalAccessToken) error {
	now := time.Now()
	token.LastUsedAt = &now
	return db.Model(&models.PersonalAccessToken{}).Where("id = ?", token.ID).UpdateColumn("last_used_at", now).Error
}
