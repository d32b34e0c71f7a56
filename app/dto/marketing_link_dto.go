package dto

import "github.com/google/uuid"

// MarketingLinkTemplateDTO describes a channel preset for new links
type MarketingLinkTemplateDTO struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	UTMSource         string `json:"utm_source"`
	UTMMedium         string `json:"utm_medium"`
	PreferredLinkType string `json:"preferred_link_type"`
}

type ListMarketingLinkTemplatesResponse struct {
	Templates []MarketingLinkTemplateDTO `json:"templates"`
}

// CreateMarketingLinkRequest creates a link pointing at one campaign
type CreateMarketingLinkRequest struct {
	ClientID    uuid.UUID `json:"-"`
	ClientName  string    `json:"-"`
	CampaignID  uuid.UUID `json:"-"`
	Name        string    `json:"name" validate:"required,max=255"`
	Channel     string    `json:"channel" validate:"required,oneof=newsletter sms google meta partner custom"`
	UTMSource   *string   `json:"utm_source,omitempty" validate:"omitempty,max=255"`
	UTMMedium   *string   `json:"utm_medium,omitempty" validate:"omitempty,max=255"`
	UTMCampaign *string   `json:"utm_campaign,omitempty" validate:"omitempty,max=255"`
	UTMTerm     *string   `json:"utm_term,omitempty" validate:"omitempty,max=255"`
	UTMContent  *string   `json:"utm_content,omitempty" validate:"omitempty,max=255"`
}

// MarketingLinkDTO is the client-facing view of a link
type MarketingLinkDTO struct {
	ID          uint    `json:"id"`
	UUID        string  `json:"uuid"`
	Name        string  `json:"name"`
	Channel     string  `json:"channel"`
	CID         string  `json:"cid"`
	Status      string  `json:"status"`
	UTMSource   *string `json:"utm_source"`
	UTMMedium   *string `json:"utm_medium"`
	UTMCampaign *string `json:"utm_campaign"`
	UTMTerm     *string `json:"utm_term"`
	UTMContent  *string `json:"utm_content"`
	ShareURL    string  `json:"share_url"`
	CampaignURL string  `json:"campaign_url"`
	CreatedAt   string  `json:"created_at"`
}

type CreateMarketingLinkResponse struct {
	Message string           `json:"message"`
	Link    MarketingLinkDTO `json:"link"`
}

type ListMarketingLinksRequest struct {
	ClientID   uuid.UUID `json:"-"`
	CampaignID uuid.UUID `json:"-"`
	Status     *string   `query:"status" validate:"omitempty,oneof=active paused archived"`
}

type ListMarketingLinksResponse struct {
	Links []MarketingLinkDTO `json:"links"`
}

type UpdateMarketingLinkStatusRequest struct {
	ClientID uuid.UUID `json:"-"`
	LinkID   uuid.UUID `json:"-"`
	Status   string    `json:"status" validate:"required,oneof=active paused archived"`
}

type UpdateMarketingLinkStatusResponse struct {
	Message string           `json:"message"`
	Link    MarketingLinkDTO `json:"link"`
}
