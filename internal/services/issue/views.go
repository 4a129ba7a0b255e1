package issue

import (
	"time"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/civic_be/internal/models"
)

// Contact is the user subset joined into issue and request payloads.
type Contact struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
}

func nameOnly(u *models.User) *Contact {
	if u == nil {
		return nil
	}
	return &Contact{ID: u.ID, Name: u.Name}
}

func fullContact(u *models.User) *Contact {
	if u == nil {
		return nil
	}
	return &Contact{ID: u.ID, Name: u.Name, Email: u.Email, PhoneNumber: u.PhoneNumber}
}

// Summary is the public projection returned by the nearby search.
type Summary struct {
	ID          uuid.UUID            `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Images      []string             `json:"images"`
	Category    models.IssueCategory `json:"category"`
	Status      models.IssueStatus   `json:"status"`
	Location    models.GeoPoint      `json:"location"`
	CreatedAt   time.Time            `json:"createdAt"`
}

func toSummary(i *models.Issue) Summary {
	return Summary{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Images:      images(i),
		Category:    i.Category,
		Status:      i.Status,
		Location:    i.Location(),
		CreatedAt:   i.CreatedAt,
	}
}

// View is the full issue payload. Location is omitted when an address replaces it.
type View struct {
	ID          uuid.UUID            `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Images      []string             `json:"images"`
	Category    models.IssueCategory `json:"category"`
	Status      models.IssueStatus   `json:"status"`
	Location    *models.GeoPoint     `json:"location,omitempty"`
	Address     string               `json:"address,omitempty"`
	ReportedBy  uuid.UUID            `json:"reportedBy"`
	Reporter    *Contact             `json:"reporter,omitempty"`
	AssignedTo  *uuid.UUID           `json:"assignedTo"`
	Budget      float64              `json:"budget"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

func toView(i *models.Issue) View {
	loc := i.Location()
	return View{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Images:      images(i),
		Category:    i.Category,
		Status:      i.Status,
		Location:    &loc,
		ReportedBy:  i.ReportedBy,
		AssignedTo:  i.AssignedTo,
		Budget:      i.Budget,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

// Brief is the issue subset joined into request payloads.
type Brief struct {
	ID          uuid.UUID            `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Images      []string             `json:"images"`
	Category    models.IssueCategory `json:"category"`
	Status      models.IssueStatus   `json:"status"`
}

type RequestView struct {
	ID        uuid.UUID `json:"id"`
	IssueID   uuid.UUID `json:"issueId"`
	UserID    uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	Requester *Contact  `json:"requester,omitempty"`
	Issue     *Brief    `json:"issue,omitempty"`
}

func toRequestView(r *models.IssueRequest) RequestView {
	v := RequestView{
		ID:        r.ID,
		IssueID:   r.IssueID,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
		Requester: fullContact(r.User),
	}
	if r.Issue != nil {
		v.Issue = &Brief{
			ID:          r.Issue.ID,
			Title:       r.Issue.Title,
			Description: r.Issue.Description,
			Images:      images(r.Issue),
			Category:    r.Issue.Category,
			Status:      r.Issue.Status,
		}
	}
	return v
}

// StatusResult is returned by a status update.
type StatusResult struct {
	ID        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	Status    models.IssueStatus `json:"status"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func images(i *models.Issue) []string {
	if i.Images == nil {
		return []string{}
	}
	return []string(i.Images)
}
