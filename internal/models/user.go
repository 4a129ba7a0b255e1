package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// internal/models/user.go
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	PhoneNumber string    `gorm:"type:varchar(30);not null" json:"phoneNumber"`

	Password   string  `gorm:"not null" json:"-"`
	ProfilePic *string `json:"profilePic"`
	IsPro      bool    `gorm:"not null;default:false" json:"isPro"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// HAS ONE pro_user (pro_users.user_id -> users.id)
	ProProfile *ProUser `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// PublicUser is the user shape returned to clients.
type PublicUser struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	ProfilePic  *string   `json:"profilePic"`
	IsPro       bool      `json:"isPro"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		ProfilePic:  u.ProfilePic,
		IsPro:       u.IsPro,
		CreatedAt:   u.CreatedAt,
	}
}
