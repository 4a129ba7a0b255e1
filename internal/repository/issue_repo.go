package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/civic_be/internal/geo"
	"github.com/Windi-Fikriyansyah/civic_be/internal/models"
)

// great-circle central angle between the row and (?, ?), in radians
const capAngleSQL = `2 * asin(least(1, sqrt(
	power(sin(radians(latitude - ?) / 2), 2) +
	cos(radians(?)) * cos(radians(latitude)) * power(sin(radians(longitude - ?) / 2), 2)
))) <= ?`

var nearbyColumns = []string{
	"id", "title", "description", "images", "category", "status",
	"latitude", "longitude", "reported_by", "budget", "created_at", "updated_at",
}

type IssueRepository struct {
	db *gorm.DB
}

func NewIssueRepository(db *gorm.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

func (r *IssueRepository) CreateIssue(ctx context.Context, i *models.Issue) error {
	return translate(r.db.WithContext(ctx).Create(i).Error)
}

// GetIssue loads one issue with its reporter.
func (r *IssueRepository) GetIssue(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	var i models.Issue
	if err := r.db.WithContext(ctx).Preload("Reporter").First(&i, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &i, nil
}

// ListNearbyOpen returns open issues inside the spherical cap of radiusKm
// around (lat, lng). The bounding box narrows the scan to the lat/lng index.
func (r *IssueRepository) ListNearbyOpen(ctx context.Context, lat, lng, radiusKm float64) ([]models.Issue, error) {
	box := geo.BoundingBox(lat, lng, radiusKm)

	q := r.db.WithContext(ctx).
		Select(nearbyColumns).
		Where("status = ?", models.StatusOpen).
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)

	if box.WrapsLng {
		q = q.Where("(longitude >= ? OR longitude <= ?)", box.MinLng, box.MaxLng)
	} else {
		q = q.Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng)
	}

	var out []models.Issue
	err := q.Where(capAngleSQL, lat, lat, lng, geo.CapAngle(radiusKm)).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *IssueRepository) ListIssuesByReporter(ctx context.Context, userID uuid.UUID) ([]models.Issue, error) {
	var out []models.Issue
	err := r.db.WithContext(ctx).
		Preload("Reporter").
		Where("reported_by = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *IssueRepository) ListIssueIDsByReporter(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Issue{}).
		Where("reported_by = ?", userID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	return ids, nil
}

func (r *IssueRepository) UpdateIssueStatus(ctx context.Context, id uuid.UUID, status models.IssueStatus) (*models.Issue, error) {
	var i models.Issue
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&i, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&i).Update("status", status).Error; err != nil {
			return err
		}
		return tx.First(&i, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &i, nil
}
