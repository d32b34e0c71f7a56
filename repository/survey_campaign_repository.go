package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/event-funnel/models"
	"github.com/amirphl/event-funnel/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SurveyCampaignRepositoryImpl implements SurveyCampaignRepository
type SurveyCampaignRepositoryImpl struct {
	*BaseRepository[models.SurveyCampaign, models.SurveyCampaignFilter]
}

// NewSurveyCampaignRepository creates a new survey campaign repository
func NewSurveyCampaignRepository(db *gorm.DB) SurveyCampaignRepository {
	return &SurveyCampaignRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SurveyCampaign, models.SurveyCampaignFilter](db),
	}
}

// ByUUID retrieves a campaign by its public identifier
func (r *SurveyCampaignRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.SurveyCampaign, error) {
	db := r.getDB(ctx)
	var campaign models.SurveyCampaign
	err := db.Where("uuid = ?", id).First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find campaign by uuid %s: %w", id, err)
	}
	return &campaign, nil
}

// SwapNextSequence is a single conditional UPDATE; the row-level write is the only
// synchronization between concurrent allocators.
func (r *SurveyCampaignRepositoryImpl) SwapNextSequence(ctx context.Context, campaignID uint, expected, next int64) (bool, error) {
	db := r.getDB(ctx)
	result := db.Model(&models.SurveyCampaign{}).
		Where("id = ? AND next_sequence_number = ?", campaignID, expected).
		Updates(map[string]any{
			"next_sequence_number": next,
			"updated_at":           utils.UTCNow(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to advance sequence for campaign %d: %w", campaignID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *SurveyCampaignRepositoryImpl) applyFilter(db *gorm.DB, f models.SurveyCampaignFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.ClientID != nil {
		db = db.Where("client_id = ?", *f.ClientID)
	}
	if f.Type != nil {
		db = db.Where("type = ?", *f.Type)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if len(f.IDs) > 0 {
		db = db.Where("id IN ?", f.IDs)
	}
	return db
}

func (r *SurveyCampaignRepositoryImpl) ByFilter(ctx context.Context, filter models.SurveyCampaignFilter, orderBy string, limit, offset int) ([]*models.SurveyCampaign, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.SurveyCampaign{}), filter), orderBy, limit, offset)
	var rows []*models.SurveyCampaign
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return rows, nil
}

func (r *SurveyCampaignRepositoryImpl) Count(ctx context.Context, filter models.SurveyCampaignFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.SurveyCampaign{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	return count, nil
}

func (r *SurveyCampaignRepositoryImpl) Exists(ctx context.Context, filter models.SurveyCampaignFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
