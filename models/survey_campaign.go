package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SurveyCampaignType distinguishes survey submissions from plain registrations
type SurveyCampaignType string

const (
	SurveyCampaignTypeSurvey       SurveyCampaignType = "survey"
	SurveyCampaignTypeRegistration SurveyCampaignType = "registration"
)

func (t SurveyCampaignType) String() string {
	return string(t)
}

func (t SurveyCampaignType) Valid() bool {
	switch t {
	case SurveyCampaignTypeSurvey, SurveyCampaignTypeRegistration:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for SurveyCampaignType
func (t *SurveyCampaignType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*t = SurveyCampaignType(v)
	case []byte:
		*t = SurveyCampaignType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into SurveyCampaignType", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for SurveyCampaignType
func (t SurveyCampaignType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid SurveyCampaignType: %s", t)
	}
	return string(t), nil
}

// SurveyCampaignStatus represents the lifecycle state of a survey campaign
type SurveyCampaignStatus string

const (
	SurveyCampaignStatusDraft  SurveyCampaignStatus = "draft"
	SurveyCampaignStatusActive SurveyCampaignStatus = "active"
	SurveyCampaignStatusClosed SurveyCampaignStatus = "closed"
)

func (s SurveyCampaignStatus) String() string {
	return string(s)
}

func (s SurveyCampaignStatus) Valid() bool {
	switch s {
	case SurveyCampaignStatusDraft, SurveyCampaignStatusActive, SurveyCampaignStatusClosed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for SurveyCampaignStatus
func (s *SurveyCampaignStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = SurveyCampaignStatus(v)
	case []byte:
		*s = SurveyCampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into SurveyCampaignStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for SurveyCampaignStatus
func (s SurveyCampaignStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid SurveyCampaignStatus: %s", s)
	}
	return string(s), nil
}

// SurveyCampaign is a tenant-scoped submission target.
// NextSequenceNumber is advanced only by the conditional update in the campaign repository.
type SurveyCampaign struct {
	ID                 uint                 `gorm:"primaryKey" json:"id"`
	UUID               uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:uk_survey_campaigns_uuid" json:"uuid"`
	ClientID           uuid.UUID            `gorm:"type:uuid;not null;index:idx_survey_campaigns_client_id" json:"client_id"`
	Title              string               `gorm:"size:255;not null" json:"title"`
	Type               SurveyCampaignType   `gorm:"type:varchar(32);not null;default:'survey'" json:"type"`
	Status             SurveyCampaignStatus `gorm:"type:varchar(32);not null;default:'active'" json:"status"`
	FormID             *uuid.UUID           `gorm:"type:uuid" json:"form_id,omitempty"`
	NextSequenceNumber int64                `gorm:"not null;default:1" json:"next_sequence_number"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (SurveyCampaign) TableName() string { return "survey_campaigns" }

// AcceptsSubmissions reports whether public submissions may be written
func (c *SurveyCampaign) AcceptsSubmissions() bool {
	return c.Status == SurveyCampaignStatusActive
}

// SurveyCampaignFilter provides filter fields for repository queries
type SurveyCampaignFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	ClientID *uuid.UUID
	Type     *SurveyCampaignType
	Status   *SurveyCampaignStatus
	IDs      []uint
}
