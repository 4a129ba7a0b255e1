package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/civic_be/internal/models"
)

// ProUserPatch lists the pro profile fields a caller may change. Nil means unchanged.
type ProUserPatch struct {
	Occupation  *string
	Skill       []string
	Degree      *string
	Description *string
}

func (p ProUserPatch) columns() map[string]any {
	cols := map[string]any{}
	if p.Occupation != nil {
		cols["occupation"] = *p.Occupation
	}
	if p.Skill != nil {
		cols["skill"] = datatypes.JSONSlice[string](p.Skill)
	}
	if p.Degree != nil {
		cols["degree"] = *p.Degree
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	return cols
}

type ProUserRepository struct {
	db *gorm.DB
}

func NewProUserRepository(db *gorm.DB) *ProUserRepository {
	return &ProUserRepository{db: db}
}

// CreateProProfile inserts the profile and flips users.is_pro in one transaction.
func (r *ProUserRepository) CreateProProfile(ctx context.Context, p *models.ProUser) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		res := tx.Model(&models.User{}).Where("id = ?", p.UserID).Update("is_pro", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err)
}

func (r *ProUserRepository) GetProUserByUserID(ctx context.Context, userID uuid.UUID) (*models.ProUser, error) {
	var p models.ProUser
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *ProUserRepository) UpdateProUser(ctx context.Context, userID uuid.UUID, patch ProUserPatch) (*models.ProUser, error) {
	var p models.ProUser
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&p).Error; err != nil {
			return err
		}
		cols := patch.columns()
		if len(cols) == 0 {
			return nil
		}
		if err := tx.Model(&p).Updates(cols).Error; err != nil {
			return err
		}
		return tx.First(&p, "id = ?", p.ID).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}
