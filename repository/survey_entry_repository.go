package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/event-funnel/models"
	"gorm.io/gorm"
)

// SurveyEntryRepositoryImpl implements SurveyEntryRepository
type SurveyEntryRepositoryImpl struct {
	*BaseRepository[models.SurveyEntry, models.SurveyEntryFilter]
}

func NewSurveyEntryRepository(db *gorm.DB) SurveyEntryRepository {
	return &SurveyEntryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SurveyEntry, models.SurveyEntryFilter](db),
	}
}

// ByCampaignPhone returns the entry for the idempotency key, or nil
func (r *SurveyEntryRepositoryImpl) ByCampaignPhone(ctx context.Context, campaignID uint, phoneNorm string) (*models.SurveyEntry, error) {
	rows, err := r.ByFilter(ctx, models.SurveyEntryFilter{
		CampaignID: &campaignID,
		PhoneNorm:  &phoneNorm,
	}, "id ASC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *SurveyEntryRepositoryImpl) CodeExists(ctx context.Context, campaignID uint, code string) (bool, error) {
	return r.Exists(ctx, models.SurveyEntryFilter{
		CampaignID:       &campaignID,
		ConfirmationCode: &code,
	})
}

func (r *SurveyEntryRepositoryImpl) applyFilter(db *gorm.DB, f models.SurveyEntryFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.CampaignID != nil {
		db = db.Where("campaign_id = ?", *f.CampaignID)
	}
	if f.PhoneNorm != nil {
		db = db.Where("phone_norm = ?", *f.PhoneNorm)
	}
	if f.ConfirmationCode != nil {
		db = db.Where("confirmation_code = ?", *f.ConfirmationCode)
	}
	if f.MarketingLinkID != nil {
		db = db.Where("marketing_link_id = ?", *f.MarketingLinkID)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *SurveyEntryRepositoryImpl) ByFilter(ctx context.Context, filter models.SurveyEntryFilter, orderBy string, limit, offset int) ([]*models.SurveyEntry, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.SurveyEntry{}), filter), orderBy, limit, offset)
	var rows []*models.SurveyEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list survey entries: %w", err)
	}
	return rows, nil
}

func (r *SurveyEntryRepositoryImpl) Count(ctx context.Context, filter models.SurveyEntryFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.SurveyEntry{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count survey entries: %w", err)
	}
	return count, nil
}

func (r *SurveyEntryRepositoryImpl) Exists(ctx context.Context, filter models.SurveyEntryFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
