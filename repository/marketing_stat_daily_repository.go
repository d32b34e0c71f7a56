package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/event-funnel/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const visitBucketsSQL = `
SELECT c.client_id,
       v.accessed_at::date AS bucket_date,
       v.campaign_id,
       v.marketing_link_id,
       v.utm_source,
       v.utm_medium,
       v.utm_campaign,
       COUNT(DISTINCT v.session_id) AS visits
FROM campaign_visits v
JOIN survey_campaigns c ON c.id = v.campaign_id
WHERE v.accessed_at >= ? AND v.accessed_at < ?
GROUP BY 1, 2, 3, 4, 5, 6, 7`

const conversionBucketsSQL = `
SELECT c.client_id,
       e.created_at::date AS bucket_date,
       e.campaign_id,
       e.marketing_link_id,
       e.utm_source,
       e.utm_medium,
       e.utm_campaign,
       COUNT(*) AS conversions
FROM survey_entries e
JOIN survey_campaigns c ON c.id = e.campaign_id
WHERE e.created_at >= ? AND e.created_at < ?
GROUP BY 1, 2, 3, 4, 5, 6, 7`

// MarketingStatDailyRepositoryImpl implements MarketingStatDailyRepository
type MarketingStatDailyRepositoryImpl struct {
	*BaseRepository[models.MarketingStatDaily, models.MarketingStatDailyFilter]
}

func NewMarketingStatDailyRepository(db *gorm.DB) MarketingStatDailyRepository {
	return &MarketingStatDailyRepositoryImpl{
		BaseRepository: NewBaseRepository[models.MarketingStatDaily, models.MarketingStatDailyFilter](db),
	}
}

func (r *MarketingStatDailyRepositoryImpl) VisitBuckets(ctx context.Context, from, to time.Time) ([]*models.MarketingStatDaily, error) {
	db := r.getDB(ctx)
	var rows []*models.MarketingStatDaily
	if err := db.Raw(visitBucketsSQL, from, to).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate visits: %w", err)
	}
	return rows, nil
}

func (r *MarketingStatDailyRepositoryImpl) ConversionBuckets(ctx context.Context, from, to time.Time) ([]*models.MarketingStatDaily, error) {
	db := r.getDB(ctx)
	var rows []*models.MarketingStatDaily
	if err := db.Raw(conversionBucketsSQL, from, to).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate conversions: %w", err)
	}
	return rows, nil
}

// Upsert writes rows keyed on the bucket tuple; the unique index is NULLS NOT DISTINCT
// so rows without a link or utm values still collide.
func (r *MarketingStatDailyRepositoryImpl) Upsert(ctx context.Context, rows []*models.MarketingStatDaily) error {
	if len(rows) == 0 {
		return nil
	}
	db := r.getDB(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "client_id"},
			{Name: "bucket_date"},
			{Name: "campaign_id"},
			{Name: "marketing_link_id"},
			{Name: "utm_source"},
			{Name: "utm_medium"},
			{Name: "utm_campaign"},
		},
		DoUpdates: clause.Assignments(map[string]any{
			"visits":      clause.Expr{SQL: "EXCLUDED.visits"},
			"conversions": clause.Expr{SQL: "EXCLUDED.conversions"},
			"updated_at":  clause.Expr{SQL: "EXCLUDED.updated_at"},
		}),
	}).CreateInBatches(&rows, 200).Error
	if err != nil {
		return fmt.Errorf("failed to upsert marketing stats: %w", err)
	}
	return nil
}

func (r *MarketingStatDailyRepositoryImpl) ByFilter(ctx context.Context, f models.MarketingStatDailyFilter, orderBy string, limit, offset int) ([]*models.MarketingStatDaily, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.MarketingStatDaily{})
	if f.ClientID != nil {
		query = query.Where("client_id = ?", *f.ClientID)
	}
	if f.CampaignID != nil {
		query = query.Where("campaign_id = ?", *f.CampaignID)
	}
	if f.MarketingLinkID != nil {
		query = query.Where("marketing_link_id = ?", *f.MarketingLinkID)
	}
	if f.FromDate != nil {
		query = query.Where("bucket_date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		query = query.Where("bucket_date <= ?", *f.ToDate)
	}
	var rows []*models.MarketingStatDaily
	if err := paginate(query, orderBy, limit, offset).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list marketing stats: %w", err)
	}
	return rows, nil
}
