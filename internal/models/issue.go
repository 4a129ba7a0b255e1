package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type IssueCategory string

const (
	CategoryElectronics IssueCategory = "Electronics"
	CategoryElectrical  IssueCategory = "Electrical"
	CategoryPlumbing    IssueCategory = "Plumbing"
	CategoryOther       IssueCategory = "Other"
)

func (c IssueCategory) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryElectrical, CategoryPlumbing, CategoryOther:
		return true
	}
	return false
}

type IssueStatus string

const (
	StatusOpen       IssueStatus = "open"
	StatusInProgress IssueStatus = "in progress"
	StatusResolved   IssueStatus = "resolved"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

const MaxIssueImages = 5

type Issue struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string                      `gorm:"not null" json:"title"`
	Description string                      `gorm:"type:text;not null" json:"description"`
	Images      datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"images"`
	Category    IssueCategory               `gorm:"type:varchar(20);not null;default:'Other'" json:"category"`
	Status      IssueStatus                 `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`

	Latitude  float64 `gorm:"not null;index:idx_issues_lat_lng,priority:1" json:"-"`
	Longitude float64 `gorm:"not null;index:idx_issues_lat_lng,priority:2" json:"-"`

	ReportedBy uuid.UUID  `gorm:"type:uuid;not null;index" json:"reportedBy"`
	AssignedTo *uuid.UUID `gorm:"type:uuid" json:"assignedTo"`
	Budget     float64    `gorm:"not null;default:0;check:chk_issues_budget,budget >= 0" json:"budget"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Reporter *User `gorm:"foreignKey:ReportedBy;references:ID" json:"-"`
}

func (i *Issue) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Images == nil {
		i.Images = datatypes.JSONSlice[string]{}
	}
	if i.Category == "" {
		i.Category = CategoryOther
	}
	if i.Status == "" {
		i.Status = StatusOpen
	}
	return
}

// GeoPoint is a GeoJSON point; coordinates are [lng, lat].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

func (i *Issue) Location() GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{i.Longitude, i.Latitude}}
}
