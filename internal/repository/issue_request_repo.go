package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/civic_be/internal/models"
)

type IssueRequestRepository struct {
	db *gorm.DB
}

func NewIssueRequestRepository(db *gorm.DB) *IssueRequestRepository {
	return &IssueRequestRepository{db: db}
}

// CreateIssueRequest returns ErrDuplicate when (user, issue) already exists.
func (r *IssueRequestRepository) CreateIssueRequest(ctx context.Context, req *models.IssueRequest) error {
	return translate(r.db.WithContext(ctx).Create(req).Error)
}

func (r *IssueRequestRepository) GetIssueRequest(ctx context.Context, userID, issueID uuid.UUID) (*models.IssueRequest, error) {
	var req models.IssueRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND issue_id = ?", userID, issueID).
		First(&req).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

// ListRequestsForIssues loads requests for the given issues with requester and issue joined.
func (r *IssueRequestRepository) ListRequestsForIssues(ctx context.Context, issueIDs []uuid.UUID) ([]models.IssueRequest, error) {
	if len(issueIDs) == 0 {
		return []models.IssueRequest{}, nil
	}
	var out []models.IssueRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Issue").
		Where("issue_id IN ?", issueIDs).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *IssueRequestRepository) ListRequesterIDs(ctx context.Context, issueID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.IssueRequest{}).
		Where("issue_id = ?", issueID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	return ids, nil
}
