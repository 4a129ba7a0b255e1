package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const MaxCertifications = 3

type ProUser struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`

	Occupation     string                      `gorm:"type:varchar(120)" json:"occupation"`
	Skill          datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"skill"`
	Degree         string                      `gorm:"type:varchar(120)" json:"degree"`
	Certifications datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"certifications"`
	Description    string                      `gorm:"type:text" json:"description"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (p *ProUser) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Skill == nil {
		p.Skill = datatypes.JSONSlice[string]{}
	}
	if p.Certifications == nil {
		p.Certifications = datatypes.JSONSlice[string]{}
	}
	return
}
