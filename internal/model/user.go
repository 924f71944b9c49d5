package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered user's profile. It never carries password material;
// secrets live in Credential.
type User struct {
	ID            uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Email         string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Username      string    `json:"username,omitempty" gorm:"size:255"`
	Realm         string    `json:"realm,omitempty" gorm:"size:255"`
	EmailVerified bool      `json:"emailVerified" gorm:"default:false"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Extension *UserExtension `json:"extension,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserExtension holds optional application-specific profile data.
type UserExtension struct {
	UserID         uuid.UUID `json:"-" gorm:"type:char(36);primaryKey"`
	CustomProperty string    `json:"customProperty" gorm:"size:255"`
}
