package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UUID          string    `gorm:"uniqueIndex;size:36" json:"uuid"` // Public ID carried in tokens
	Name          string    `gorm:"not null" json:"name"`
	Email         *string   `gorm:"uniqueIndex" json:"email,omitempty"` // Nullable unique email
	Phone         *string   `gorm:"uniqueIndex" json:"phone,omitempty"` // Nullable unique phone
	PasswordHash  string    `gorm:"not null" json:"-"`                  // Bcrypt hash, hidden from JSON
	Role          string    `gorm:"not null;default:user" json:"role"`
	Points        int       `gorm:"not null;default:0;check:points >= 0" json:"points"`
	ItemsRecycled int       `gorm:"not null;default:0;check:items_recycled >= 0" json:"items_recycled"`
	ProfileImage  string    `json:"profile_image,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == "" {
		u.UUID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}
