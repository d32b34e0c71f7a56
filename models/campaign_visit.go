package models

import (
	"time"

	"github.com/google/uuid"
)

// CampaignVisit is an anonymous page access. It moves from unconverted to
// converted exactly once, when an entry is linked to it.
type CampaignVisit struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UUID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_campaign_visits_uuid" json:"uuid"`
	CampaignID      uint      `gorm:"not null;index:idx_campaign_visits_campaign_session,priority:1" json:"campaign_id"`
	SessionID       string    `gorm:"size:128;not null;index:idx_campaign_visits_campaign_session,priority:2" json:"session_id"`
	UTMFields
	CID             *string    `gorm:"column:cid;size:16" json:"cid,omitempty"`
	MarketingLinkID *uint      `gorm:"index:idx_campaign_visits_marketing_link_id" json:"marketing_link_id,omitempty"`
	Referrer        *string    `gorm:"type:text" json:"referrer,omitempty"`
	UserAgent       *string    `gorm:"type:text" json:"user_agent,omitempty"`
	AccessedAt      time.Time  `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaign_visits_campaign_session,priority:3,sort:desc" json:"accessed_at"`
	ConvertedAt     *time.Time `json:"converted_at,omitempty"`
	LinkedEntryID   *uint      `json:"linked_entry_id,omitempty"`
}

// TableName returns the table name for CampaignVisit
func (CampaignVisit) TableName() string { return "campaign_visits" }

// IsConverted reports whether the visit has already been linked to an entry
func (v *CampaignVisit) IsConverted() bool {
	return v.ConvertedAt != nil
}

// CampaignVisitFilter provides filter fields for repository queries
type CampaignVisitFilter struct {
	ID             *uint
	CampaignID     *uint
	SessionID      *string
	Converted      *bool
	AccessedAfter  *time.Time
	AccessedBefore *time.Time
}
