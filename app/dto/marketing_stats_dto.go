package dto

import "github.com/google/uuid"

type ListMarketingStatsRequest struct {
	ClientID   uuid.UUID `json:"-"`
	CampaignID uuid.UUID `json:"-"`
	From       *string   `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To         *string   `query:"to" validate:"omitempty,datetime=2006-01-02"`
}

type MarketingStatDTO struct {
	BucketDate      string  `json:"bucket_date"`
	MarketingLinkID *uint   `json:"marketing_link_id"`
	UTMSource       *string `json:"utm_source"`
	UTMMedium       *string `json:"utm_medium"`
	UTMCampaign     *string `json:"utm_campaign"`
	Visits          int64   `json:"visits"`
	Conversions     int64   `json:"conversions"`
}

type ListMarketingStatsResponse struct {
	From             string             `json:"from"`
	To               string             `json:"to"`
	TotalVisits      int64              `json:"total_visits"`
	TotalConversions int64              `json:"total_conversions"`
	Items            []MarketingStatDTO `json:"items"`
}

// AggregateMarketingStatsResult summarizes one rollup run
type AggregateMarketingStatsResult struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Buckets int    `json:"buckets"`
}

// ExportEntriesRequest selects the entries written into the xlsx workbook
type ExportEntriesRequest struct {
	ClientID   uuid.UUID `json:"-"`
	CampaignID uuid.UUID `json:"-"`
}

// ExportEntriesResponse carries the workbook bytes
type ExportEntriesResponse struct {
	Filename string
	Content  []byte
	Rows     int
}
