package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/event-funnel/models"
	"gorm.io/gorm"
)

// FormSubmissionRepositoryImpl implements FormSubmissionRepository
type FormSubmissionRepositoryImpl struct {
	*BaseRepository[models.FormSubmission, models.FormSubmissionFilter]
}

func NewFormSubmissionRepository(db *gorm.DB) FormSubmissionRepository {
	return &FormSubmissionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.FormSubmission, models.FormSubmissionFilter](db),
	}
}

// SaveAnswers inserts every answer of one submission as a single batch
func (r *FormSubmissionRepositoryImpl) SaveAnswers(ctx context.Context, answers []*models.FormAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	db := r.getDB(ctx)
	if err := db.Create(&answers).Error; err != nil {
		return fmt.Errorf("failed to save form answers: %w", err)
	}
	return nil
}

func (r *FormSubmissionRepositoryImpl) applyFilter(db *gorm.DB, f models.FormSubmissionFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.FormID != nil {
		db = db.Where("form_id = ?", *f.FormID)
	}
	if f.CampaignID != nil {
		db = db.Where("campaign_id = ?", *f.CampaignID)
	}
	return db
}

func (r *FormSubmissionRepositoryImpl) ByFilter(ctx context.Context, filter models.FormSubmissionFilter, orderBy string, limit, offset int) ([]*models.FormSubmission, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.FormSubmission{}), filter), orderBy, limit, offset)
	var rows []*models.FormSubmission
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list form submissions: %w", err)
	}
	return rows, nil
}

func (r *FormSubmissionRepositoryImpl) Count(ctx context.Context, filter models.FormSubmissionFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.FormSubmission{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count form submissions: %w", err)
	}
	return count, nil
}

func (r *FormSubmissionRepositoryImpl) Exists(ctx context.Context, filter models.FormSubmissionFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
