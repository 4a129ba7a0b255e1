package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IssueRequest struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_issue_requests_user_issue,priority:1" json:"userId"`
	IssueID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_issue_requests_user_issue,priority:2" json:"issueId"`

	CreatedAt time.Time `json:"createdAt"`

	User  *User  `gorm:"foreignKey:UserID;references:ID" json:"-"`
	Issue *Issue `gorm:"foreignKey:IssueID;references:ID" json:"-"`
}

func (r *IssueRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
