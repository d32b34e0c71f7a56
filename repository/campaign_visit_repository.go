package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/event-funnel/models"
	"gorm.io/gorm"
)

// CampaignVisitRepositoryImpl implements CampaignVisitRepository
type CampaignVisitRepositoryImpl struct {
	*BaseRepository[models.CampaignVisit, models.CampaignVisitFilter]
}

func NewCampaignVisitRepository(db *gorm.DB) CampaignVisitRepository {
	return &CampaignVisitRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CampaignVisit, models.CampaignVisitFilter](db),
	}
}

// LatestUnconverted returns the most recent unconverted visit of the session, or nil
func (r *CampaignVisitRepositoryImpl) LatestUnconverted(ctx context.Context, campaignID uint, sessionID string) (*models.CampaignVisit, error) {
	converted := false
	rows, err := r.ByFilter(ctx, models.CampaignVisitFilter{
		CampaignID: &campaignID,
		SessionID:  &sessionID,
		Converted:  &converted,
	}, "accessed_at DESC, id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *CampaignVisitRepositoryImpl) MarkConverted(ctx context.Context, visitID, entryID uint, at time.Time) (bool, error) {
	db := r.getDB(ctx)
	result := db.Model(&models.CampaignVisit{}).
		Where("id = ? AND converted_at IS NULL", visitID).
		Updates(map[string]any{
			"converted_at":    at,
			"linked_entry_id": entryID,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark visit %d converted: %w", visitID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *CampaignVisitRepositoryImpl) applyFilter(db *gorm.DB, f models.CampaignVisitFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.CampaignID != nil {
		db = db.Where("campaign_id = ?", *f.CampaignID)
	}
	if f.SessionID != nil {
		db = db.Where("session_id = ?", *f.SessionID)
	}
	if f.Converted != nil {
		if *f.Converted {
			db = db.Where("converted_at IS NOT NULL")
		} else {
			db = db.Where("converted_at IS NULL")
		}
	}
	if f.AccessedAfter != nil {
		db = db.Where("accessed_at >= ?", *f.AccessedAfter)
	}
	if f.AccessedBefore != nil {
		db = db.Where("accessed_at < ?", *f.AccessedBefore)
	}
	return db
}

func (r *CampaignVisitRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignVisitFilter, orderBy string, limit, offset int) ([]*models.CampaignVisit, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.CampaignVisit{}), filter), orderBy, limit, offset)
	var rows []*models.CampaignVisit
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaign visits: %w", err)
	}
	return rows, nil
}

func (r *CampaignVisitRepositoryImpl) Count(ctx context.Context, filter models.CampaignVisitFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.CampaignVisit{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count campaign visits: %w", err)
	}
	return count, nil
}

func (r *CampaignVisitRepositoryImpl) Exists(ctx context.Context, filter models.CampaignVisitFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
