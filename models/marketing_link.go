package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MarketingLinkStatus represents the state of a marketing link
type MarketingLinkStatus string

const (
	MarketingLinkStatusActive   MarketingLinkStatus = "active"
	MarketingLinkStatusPaused   MarketingLinkStatus = "paused"
	MarketingLinkStatusArchived MarketingLinkStatus = "archived"
)

func (s MarketingLinkStatus) String() string {
	return string(s)
}

func (s MarketingLinkStatus) Valid() bool {
	switch s {
	case MarketingLinkStatusActive, MarketingLinkStatusPaused, MarketingLinkStatusArchived:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for MarketingLinkStatus
func (s *MarketingLinkStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = MarketingLinkStatus(v)
	case []byte:
		*s = MarketingLinkStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into MarketingLinkStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for MarketingLinkStatus
func (s MarketingLinkStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid MarketingLinkStatus: %s", s)
	}
	return string(s), nil
}

// MarketingLink is a named attribution handle owned by a client.
// CID is unique among the client's active links (partial unique index in migrations).
type MarketingLink struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	UUID             uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uk_marketing_links_uuid" json:"uuid"`
	ClientID         uuid.UUID           `gorm:"type:uuid;not null;index:idx_marketing_links_client_cid" json:"client_id"`
	Name             string              `gorm:"size:255;not null" json:"name"`
	Channel          string              `gorm:"size:32;not null" json:"channel"`
	CID              string              `gorm:"column:cid;size:16;not null;index:idx_marketing_links_client_cid" json:"cid"`
	TargetCampaignID *uint               `gorm:"index:idx_marketing_links_target_campaign_id" json:"target_campaign_id,omitempty"`
	Status           MarketingLinkStatus `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	UTMFields

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for MarketingLink
func (MarketingLink) TableName() string { return "marketing_links" }

// TargetsCampaign reports whether the link points at the given campaign
func (l *MarketingLink) TargetsCampaign(campaignID uint) bool {
	return l.TargetCampaignID != nil && *l.TargetCampaignID == campaignID
}

// MarketingLinkFilter provides filter fields for repository queries
type MarketingLinkFilter struct {
	ID               *uint
	UUID             *uuid.UUID
	ClientID         *uuid.UUID
	CID              *string
	Channel          *string
	TargetCampaignID *uint
	Status           *MarketingLinkStatus
}
