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

// ErrMarketingLinkNotFound is returned by UpdateStatus when no row matches
var ErrMarketingLinkNotFound = errors.New("marketing link not found")

// MarketingLinkRepositoryImpl implements MarketingLinkRepository
type MarketingLinkRepositoryImpl struct {
	*BaseRepository[models.MarketingLink, models.MarketingLinkFilter]
}

func NewMarketingLinkRepository(db *gorm.DB) MarketingLinkRepository {
	return &MarketingLinkRepositoryImpl{
		BaseRepository: NewBaseRepository[models.MarketingLink, models.MarketingLinkFilter](db),
	}
}

func (r *MarketingLinkRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.MarketingLink, error) {
	rows, err := r.ByFilter(ctx, models.MarketingLinkFilter{UUID: &id}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ActiveByCID returns the active link carrying cid for the client, or nil
func (r *MarketingLinkRepositoryImpl) ActiveByCID(ctx context.Context, clientID uuid.UUID, cid string) (*models.MarketingLink, error) {
	status := models.MarketingLinkStatusActive
	rows, err := r.ByFilter(ctx, models.MarketingLinkFilter{
		ClientID: &clientID,
		CID:      &cid,
		Status:   &status,
	}, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *MarketingLinkRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.MarketingLinkStatus) error {
	db := r.getDB(ctx)
	result := db.Model(&models.MarketingLink{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": utils.UTCNow(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update marketing link status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMarketingLinkNotFound
	}
	return nil
}

func (r *MarketingLinkRepositoryImpl) applyFilter(db *gorm.DB, f models.MarketingLinkFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.ClientID != nil {
		db = db.Where("client_id = ?", *f.ClientID)
	}
	if f.CID != nil {
		db = db.Where("cid = ?", *f.CID)
	}
	if f.Channel != nil {
		db = db.Where("channel = ?", *f.Channel)
	}
	if f.TargetCampaignID != nil {
		db = db.Where("target_campaign_id = ?", *f.TargetCampaignID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	return db
}

func (r *MarketingLinkRepositoryImpl) ByFilter(ctx context.Context, filter models.MarketingLinkFilter, orderBy string, limit, offset int) ([]*models.MarketingLink, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.MarketingLink{}), filter), orderBy, limit, offset)
	var rows []*models.MarketingLink
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list marketing links: %w", err)
	}
	return rows, nil
}

func (r *MarketingLinkRepositoryImpl) Count(ctx context.Context, filter models.MarketingLinkFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.MarketingLink{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count marketing links: %w", err)
	}
	return count, nil
}

func (r *MarketingLinkRepositoryImpl) Exists(ctx context.Context, filter models.MarketingLinkFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
