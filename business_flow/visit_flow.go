package businessflow

import (
	"context"

	"github.com/amirphl/event-funnel/app/dto"
	"github.com/amirphl/event-funnel/models"
	"github.com/amirphl/event-funnel/repository"
	"github.com/amirphl/event-funnel/utils"
	"github.com/google/uuid"
)

// VisitDeduplicator reports whether a visit is the first of its session inside the dedup window.
// Release gives up a claim whose visit could not be stored.
type VisitDeduplicator interface {
	FirstInWindow(ctx context.Context, campaignID uint, sessionID string) (bool, error)
	Release(ctx context.Context, campaignID uint, sessionID string) error
}

// VisitFlow records anonymous page visits that the visit linker later converts.
// Public flow, no authentication required
type VisitFlow interface {
	RecordVisit(ctx context.Context, req *dto.RecordVisitRequest, metadata *ClientMetadata) (*dto.RecordVisitResponse, error)
}

type VisitFlowImpl struct {
	campaignRepo repository.SurveyCampaignRepository
	visitRepo    repository.CampaignVisitRepository
	links        MarketingLinkLookup
	dedup        VisitDeduplicator
}

func NewVisitFlow(
	campaignRepo repository.SurveyCampaignRepository,
	visitRepo repository.CampaignVisitRepository,
	links MarketingLinkLookup,
	dedup VisitDeduplicator,
) VisitFlow {
	return &VisitFlowImpl{
		campaignRepo: campaignRepo,
		visitRepo:    visitRepo,
		links:        links,
		dedup:        dedup,
	}
}

func (f *VisitFlowImpl) RecordVisit(ctx context.Context, req *dto.RecordVisitRequest, metadata *ClientMetadata) (*dto.RecordVisitResponse, error) {
	sessionID := utils.TrimmedOrNil(req.SessionID)
	if sessionID == nil {
		visitsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrSessionIDRequired
	}

	campaign, err := f.campaignRepo.ByUUID(ctx, req.CampaignID)
	if err != nil {
		visitsTotal.WithLabelValues("failed").Inc()
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		visitsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrCampaignNotFound
	}

	claimed := false
	if f.dedup != nil {
		first, err := f.dedup.FirstInWindow(ctx, campaign.ID, *sessionID)
		claimed = err == nil && first
		if err != nil {
			attributionDegradedTotal.WithLabelValues("visit_dedup").Inc()
		} else if !first {
			visitsTotal.WithLabelValues("deduplicated").Inc()
			return &dto.RecordVisitResponse{Success: true, Recorded: false, Deduplicated: true}, nil
		}
	}

	visit := &models.CampaignVisit{
		UUID:       uuid.New(),
		CampaignID: campaign.ID,
		SessionID:  *sessionID,
		UTMFields: NormalizeUTM(models.UTMFields{
			UTMSource:   req.UTMSource,
			UTMMedium:   req.UTMMedium,
			UTMCampaign: req.UTMCampaign,
			UTMTerm:     req.UTMTerm,
			UTMContent:  req.UTMContent,
		}),
		Referrer:   utils.TrimmedOrNil(req.Referrer),
		UserAgent:  utils.TrimmedOrNil(req.UserAgent),
		AccessedAt: utils.UTCNow(),
	}
	if visit.UserAgent == nil && metadata != nil && metadata.UserAgent != "" {
		visit.UserAgent = utils.ToPtr(metadata.UserAgent)
	}
	f.attachLink(ctx, campaign, req.CID, visit)

	if err := f.visitRepo.Save(ctx, visit); err != nil {
		visitsTotal.WithLabelValues("failed").Inc()
		logEvent("[VisitTrackFail]", map[string]any{
			"campaignId": campaign.UUID.String(),
			"sessionId":  *sessionID,
			"requestId":  requestID(metadata),
			"reason":     "DB_INSERT_FAILED",
			"error":      err.Error(),
		})
		if claimed {
			// the session must be able to retry inside the window
			if relErr := f.dedup.Release(ctx, campaign.ID, *sessionID); relErr != nil {
				attributionDegradedTotal.WithLabelValues("visit_dedup").Inc()
			}
		}
		return &dto.RecordVisitResponse{Success: false, Recorded: false}, nil
	}

	visitsTotal.WithLabelValues("recorded").Inc()
	return &dto.RecordVisitResponse{Success: true, Recorded: true, VisitID: visit.UUID.String()}, nil
}

// attachLink resolves the cid to a link of this campaign; lookup errors are swallowed
func (f *VisitFlowImpl) attachLink(ctx context.Context, campaign *models.SurveyCampaign, rawCID *string, visit *models.CampaignVisit) {
	raw := utils.TrimmedOrNil(rawCID)
	if raw == nil {
		return
	}
	cid, ok := NormalizeCID(*raw)
	if !ok {
		return
	}
	visit.CID = &cid

	link, err := f.links.ActiveByCID(ctx, campaign.ClientID, cid)
	if err != nil {
		attributionDegradedTotal.WithLabelValues("cid_lookup").Inc()
		logEvent("[AttributionResolve]", map[string]any{
			"campaignId": campaign.UUID.String(),
			"stage":      "visit_cid_lookup",
			"cid":        cid,
			"error":      err.Error(),
		})
		return
	}
	if link == nil || !link.TargetsCampaign(campaign.ID) {
		return
	}
	id := link.ID
	visit.MarketingLinkID = &id
	if visit.UTMSource == nil {
		visit.UTMFields = NormalizeUTM(link.UTMFields).Merge(visit.UTMFields)
	}
}
