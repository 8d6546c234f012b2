package models

import "time"

// User represents a forum account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID        uint                  `gorm:"primaryKey" json:"id"`
	Name      string                `gorm:"size:255;not null" json:"name"`
	Email     string                `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password  string                `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	Posts     []Post                `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Comments  []Comment             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Tokens    []PersonalAccessToken `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
