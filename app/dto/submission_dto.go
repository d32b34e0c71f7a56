package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// SubmissionAnswerRequest is one answer of a survey form
type SubmissionAnswerRequest struct {
	QuestionID string   `json:"questionId" validate:"required,max=64"`
	ChoiceIDs  []string `json:"choiceIds,omitempty" validate:"omitempty,dive,max=64"`
	TextAnswer *string  `json:"textAnswer,omitempty" validate:"omitempty,max=5000"`
}

// AttributionRequest carries the tracking fields shared by submissions and registrations
type AttributionRequest struct {
	UTMSource               *string `json:"utm_source,omitempty"`
	UTMMedium               *string `json:"utm_medium,omitempty"`
	UTMCampaign             *string `json:"utm_campaign,omitempty"`
	UTMTerm                 *string `json:"utm_term,omitempty"`
	UTMContent              *string `json:"utm_content,omitempty"`
	UTMFirstVisitAt         *string `json:"utm_first_visit_at,omitempty"`
	UTMReferrer             *string `json:"utm_referrer,omitempty" validate:"omitempty,max=2048"`
	MarketingCampaignLinkID *uint   `json:"marketing_campaign_link_id,omitempty"`
	CID                     *string `json:"cid,omitempty" validate:"omitempty,max=64"`
	SessionID               *string `json:"session_id,omitempty" validate:"omitempty,max=128"`

	// TrackingCookie is the raw ef_tracking cookie, filled by the handler
	TrackingCookie *string `json:"-"`
}

// SubmitEntryRequest is the public survey submission body
type SubmitEntryRequest struct {
	CampaignID  uuid.UUID                 `json:"-"`
	Name        string                    `json:"name" validate:"required,max=255"`
	Phone       string                    `json:"phone" validate:"required,max=32"`
	Company     *string                   `json:"company,omitempty" validate:"omitempty,max=255"`
	Answers     []SubmissionAnswerRequest `json:"answers,omitempty" validate:"omitempty,dive"`
	ConsentData json.RawMessage           `json:"consentData,omitempty" swaggertype:"object"`
	AttributionRequest
}

// RegisterEntryRequest is the public registration body
type RegisterEntryRequest struct {
	CampaignID       uuid.UUID       `json:"-"`
	Name             string          `json:"name" validate:"required,max=255"`
	Phone            string          `json:"phone" validate:"required,max=32"`
	Company          *string         `json:"company,omitempty" validate:"omitempty,max=255"`
	RegistrationData json.RawMessage `json:"registration_data,omitempty" swaggertype:"object"`
	ConsentData      json.RawMessage `json:"consentData,omitempty" swaggertype:"object"`
	AttributionRequest
}

// SubmitEntryResponse is returned flat, without the APIResponse envelope
type SubmitEntryResponse struct {
	Success          bool   `json:"success"`
	SurveyNo         int64  `json:"survey_no"`
	Code6            string `json:"code6"`
	EntryID          string `json:"entry_id"`
	AlreadySubmitted bool   `json:"alreadySubmitted,omitempty"`
}
