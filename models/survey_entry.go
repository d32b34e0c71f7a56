package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SurveyEntry is one completed submission to a campaign. It is written once
// and never updated. PhoneNorm, SequenceNumber and ConfirmationCode are each
// unique within the campaign.
type SurveyEntry struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UUID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_survey_entries_uuid" json:"uuid"`
	CampaignID       uint      `gorm:"not null;uniqueIndex:uk_survey_entries_campaign_phone;uniqueIndex:uk_survey_entries_campaign_seq;uniqueIndex:uk_survey_entries_campaign_code" json:"campaign_id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	Company          *string   `gorm:"size:255" json:"company,omitempty"`
	PhoneNorm        string    `gorm:"size:32;not null;uniqueIndex:uk_survey_entries_campaign_phone" json:"phone_norm"`
	SequenceNumber   int64     `gorm:"not null;uniqueIndex:uk_survey_entries_campaign_seq" json:"sequence_number"`
	ConfirmationCode string    `gorm:"size:16;not null;uniqueIndex:uk_survey_entries_campaign_code" json:"confirmation_code"`

	UTMFields
	UTMFirstVisitAt *time.Time `gorm:"column:utm_first_visit_at" json:"utm_first_visit_at,omitempty"`
	UTMReferrer     *string    `gorm:"column:utm_referrer;type:text" json:"utm_referrer,omitempty"`
	MarketingLinkID *uint      `gorm:"index:idx_survey_entries_marketing_link_id" json:"marketing_link_id,omitempty"`

	FormSubmissionID *uint          `json:"form_submission_id,omitempty"`
	ConsentData      datatypes.JSON `gorm:"type:jsonb" json:"consent_data,omitempty"`
	ConsentedAt      *time.Time     `json:"consented_at,omitempty"`
	RegistrationData datatypes.JSON `gorm:"type:jsonb" json:"registration_data,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_survey_entries_created_at" json:"created_at"`
}

// TableName returns the table name for SurveyEntry
func (SurveyEntry) TableName() string { return "survey_entries" }

// SurveyEntryFilter provides filter fields for repository queries
type SurveyEntryFilter struct {
	ID               *uint
	UUID             *uuid.UUID
	CampaignID       *uint
	PhoneNorm        *string
	ConfirmationCode *string
	MarketingLinkID  *uint
	CreatedAfter     *time.Time
	CreatedBefore    *time.Time
}
