package dto

import "github.com/google/uuid"

// RecordVisitRequest is the public page-visit beacon body
type RecordVisitRequest struct {
	CampaignID  uuid.UUID `json:"-"`
	SessionID   *string   `json:"session_id,omitempty" validate:"omitempty,max=128"`
	UTMSource   *string   `json:"utm_source,omitempty"`
	UTMMedium   *string   `json:"utm_medium,omitempty"`
	UTMCampaign *string   `json:"utm_campaign,omitempty"`
	UTMTerm     *string   `json:"utm_term,omitempty"`
	UTMContent  *string   `json:"utm_content,omitempty"`
	CID         *string   `json:"cid,omitempty" validate:"omitempty,max=64"`
	Referrer    *string   `json:"referrer,omitempty" validate:"omitempty,max=2048"`
	UserAgent   *string   `json:"user_agent,omitempty" validate:"omitempty,max=1024"`
}

// RecordVisitResponse reports whether a visit row was written
type RecordVisitResponse struct {
	Success      bool   `json:"success"`
	Recorded     bool   `json:"recorded"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
	VisitID      string `json:"visit_id,omitempty"`
}
