package models

import "time"

// PersonalAccessToken is an issued bearer credential. Only the sha256 of the secret is kept.
type PersonalAccessToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	Token      string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	User       User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
