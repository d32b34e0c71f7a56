package businessflow

import (
	"context"
	"time"

	"github.com/amirphl/event-funnel/app/dto"
	"github.com/amirphl/event-funnel/models"
	"github.com/amirphl/event-funnel/repository"
	"github.com/amirphl/event-funnel/utils"
	"github.com/google/uuid"
)

const (
	statsDateLayout     = "2006-01-02"
	defaultStatsRange   = 30
	maxStatsRangeInDays = 366
)

// MarketingStatsFlow rolls visits and entries up into marketing_stats_daily and reads them back
type MarketingStatsFlow interface {
	// Aggregate recomputes every bucket of the UTC days in [from, to). Re-running it is harmless.
	Aggregate(ctx context.Context, from, to time.Time) (*dto.AggregateMarketingStatsResult, error)
	List(ctx context.Context, req *dto.ListMarketingStatsRequest) (*dto.ListMarketingStatsResponse, error)
}

type MarketingStatsFlowImpl struct {
	campaignRepo repository.SurveyCampaignRepository
	statsRepo    repository.MarketingStatDailyRepository
	now          func() time.Time
}

func NewMarketingStatsFlow(campaignRepo repository.SurveyCampaignRepository, statsRepo repository.MarketingStatDailyRepository) MarketingStatsFlow {
	return &MarketingStatsFlowImpl{
		campaignRepo: campaignRepo,
		statsRepo:    statsRepo,
		now:          utils.UTCNow,
	}
}

type statKey struct {
	clientID    uuid.UUID
	day         string
	campaignID  uint
	linkID      uint
	utmSource   string
	utmMedium   string
	utmCampaign string
}

func keyOf(row *models.MarketingStatDaily) statKey {
	k := statKey{
		clientID:    row.ClientID,
		day:         row.BucketDate.UTC().Format(statsDateLayout),
		campaignID:  row.CampaignID,
		utmSource:   keyPart(row.UTMSource),
		utmMedium:   keyPart(row.UTMMedium),
		utmCampaign: keyPart(row.UTMCampaign),
	}
	if row.MarketingLinkID != nil {
		k.linkID = *row.MarketingLinkID
	}
	return k
}

// keyPart keeps NULL and "" apart in the merge key
func keyPart(s *string) string {
	if s == nil {
		return "\x00"
	}
	return *s
}

func (f *MarketingStatsFlowImpl) Aggregate(ctx context.Context, from, to time.Time) (*dto.AggregateMarketingStatsResult, error) {
	from, to = utils.UTCDay(from), utils.UTCDay(to)
	if !to.After(from) {
		return nil, ErrInvalidDateRange
	}

	visits, err := f.statsRepo.VisitBuckets(ctx, from, to)
	if err != nil {
		return nil, NewBusinessError("STATS_AGGREGATE_FAILED", "Failed to aggregate visits", err)
	}
	conversions, err := f.statsRepo.ConversionBuckets(ctx, from, to)
	if err != nil {
		return nil, NewBusinessError("STATS_AGGREGATE_FAILED", "Failed to aggregate conversions", err)
	}

	merged := make(map[statKey]*models.MarketingStatDaily)
	order := make([]statKey, 0, len(visits)+len(conversions))
	upsertRow := func(row *models.MarketingStatDaily) *models.MarketingStatDaily {
		k := keyOf(row)
		if existing, ok := merged[k]; ok {
			return existing
		}
		out := &models.MarketingStatDaily{
			ClientID:        row.ClientID,
			BucketDate:      utils.UTCDay(row.BucketDate),
			CampaignID:      row.CampaignID,
			MarketingLinkID: row.MarketingLinkID,
			UTMSource:       row.UTMSource,
			UTMMedium:       row.UTMMedium,
			UTMCampaign:     row.UTMCampaign,
			UpdatedAt:       f.now(),
		}
		merged[k] = out
		order = append(order, k)
		return out
	}
	for _, v := range visits {
		upsertRow(v).Visits += v.Visits
	}
	for _, c := range conversions {
		upsertRow(c).Conversions += c.Conversions
	}

	rows := make([]*models.MarketingStatDaily, 0, len(order))
	for _, k := range order {
		rows = append(rows, merged[k])
	}
	if err := f.statsRepo.Upsert(ctx, rows); err != nil {
		return nil, NewBusinessError("STATS_UPSERT_FAILED", "Failed to store marketing stats", err)
	}

	return &dto.AggregateMarketingStatsResult{
		From:    from.Format(statsDateLayout),
		To:      to.Format(statsDateLayout),
		Buckets: len(rows),
	}, nil
}

func (f *MarketingStatsFlowImpl) List(ctx context.Context, req *dto.ListMarketingStatsRequest) (*dto.ListMarketingStatsResponse, error) {
	campaign, err := f.campaignRepo.ByUUID(ctx, req.CampaignID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil || campaign.ClientID != req.ClientID {
		return nil, ErrCampaignNotFound
	}

	to := utils.UTCDay(f.now())
	from := to.AddDate(0, 0, -(defaultStatsRange - 1))
	if req.To != nil {
		if to, err = time.Parse(statsDateLayout, *req.To); err != nil {
			return nil, ErrInvalidDateRange
		}
		from = to.AddDate(0, 0, -(defaultStatsRange - 1))
	}
	if req.From != nil {
		if from, err = time.Parse(statsDateLayout, *req.From); err != nil {
			return nil, ErrInvalidDateRange
		}
	}
	if from.After(to) || to.Sub(from) > maxStatsRangeInDays*24*time.Hour {
		return nil, ErrInvalidDateRange
	}

	rows, err := f.statsRepo.ByFilter(ctx, models.MarketingStatDailyFilter{
		ClientID:   &req.ClientID,
		CampaignID: &campaign.ID,
		FromDate:   &from,
		ToDate:     &to,
	}, "bucket_date ASC, id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("STATS_LIST_FAILED", "Failed to list marketing stats", err)
	}

	resp := &dto.ListMarketingStatsResponse{
		From:  from.Format(statsDateLayout),
		To:    to.Format(statsDateLayout),
		Items: make([]dto.MarketingStatDTO, 0, len(rows)),
	}
	for _, row := range rows {
		resp.TotalVisits += row.Visits
		resp.TotalConversions += row.Conversions
		resp.Items = append(resp.Items, dto.MarketingStatDTO{
			BucketDate:      row.BucketDate.UTC().Format(statsDateLayout),
			MarketingLinkID: row.MarketingLinkID,
			UTMSource:       row.UTMSource,
			UTMMedium:       row.UTMMedium,
			UTMCampaign:     row.UTMCampaign,
			Visits:          row.Visits,
			Conversions:     row.Conversions,
		})
	}
	return resp, nil
}
