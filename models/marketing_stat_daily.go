package models

import (
	"time"

	"github.com/google/uuid"
)

// MarketingStatDaily holds the visit and conversion counts for one
// (client, day, campaign, link, utm tuple) bucket
type MarketingStatDaily struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ClientID        uuid.UUID `gorm:"type:uuid;not null" json:"client_id"`
	BucketDate      time.Time `gorm:"type:date;not null;index:idx_marketing_stats_daily_bucket_date" json:"bucket_date"`
	CampaignID      uint      `gorm:"not null;index:idx_marketing_stats_daily_campaign_id" json:"campaign_id"`
	MarketingLinkID *uint     `json:"marketing_link_id,omitempty"`
	UTMSource       *string   `gorm:"column:utm_source;size:255" json:"utm_source"`
	UTMMedium       *string   `gorm:"column:utm_medium;size:255" json:"utm_medium"`
	UTMCampaign     *string   `gorm:"column:utm_campaign;size:255" json:"utm_campaign"`
	Visits          int64     `gorm:"not null;default:0" json:"visits"`
	Conversions     int64     `gorm:"not null;default:0" json:"conversions"`
	UpdatedAt       time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for MarketingStatDaily
func (MarketingStatDaily) TableName() string { return "marketing_stats_daily" }

// MarketingStatDailyFilter provides filter fields for repository queries
type MarketingStatDailyFilter struct {
	ClientID        *uuid.UUID
	CampaignID      *uint
	MarketingLinkID *uint
	FromDate        *time.Time
	ToDate          *time.Time
}
