package businessflow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/amirphl/event-funnel/app/dto"
	"github.com/amirphl/event-funnel/models"
	"github.com/amirphl/event-funnel/repository"
	"github.com/amirphl/event-funnel/utils"
	"github.com/google/uuid"
)

// MarketingLinkCacheInvalidator drops cached cid lookups after a link changes
type MarketingLinkCacheInvalidator interface {
	Invalidate(ctx context.Context, clientID uuid.UUID, cid string) error
}

// MarketingLinkFlow manages the marketing links of an authenticated client
type MarketingLinkFlow interface {
	ListTemplates(ctx context.Context) *dto.ListMarketingLinkTemplatesResponse
	Create(ctx context.Context, req *dto.CreateMarketingLinkRequest, metadata *ClientMetadata) (*dto.CreateMarketingLinkResponse, error)
	List(ctx context.Context, req *dto.ListMarketingLinksRequest) (*dto.ListMarketingLinksResponse, error)
	UpdateStatus(ctx context.Context, req *dto.UpdateMarketingLinkStatusRequest, metadata *ClientMetadata) (*dto.UpdateMarketingLinkStatusResponse, error)
}

type MarketingLinkFlowImpl struct {
	campaignRepo  repository.SurveyCampaignRepository
	linkRepo      repository.MarketingLinkRepository
	cache         MarketingLinkCacheInvalidator
	publicBaseURL string
	cidAttempts   int
	now           func() time.Time
	randomCID     func() (string, error)
}

func NewMarketingLinkFlow(
	campaignRepo repository.SurveyCampaignRepository,
	linkRepo repository.MarketingLinkRepository,
	cache MarketingLinkCacheInvalidator,
	publicBaseURL string,
	cidAttempts int,
) MarketingLinkFlow {
	if cidAttempts <= 0 {
		cidAttempts = utils.DefaultCIDAttempts
	}
	return &MarketingLinkFlowImpl{
		campaignRepo:  campaignRepo,
		linkRepo:      linkRepo,
		cache:         cache,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		cidAttempts:   cidAttempts,
		now:           utils.UTCNow,
		randomCID: func() (string, error) {
			return randomToken(6)
		},
	}
}

func (f *MarketingLinkFlowImpl) ListTemplates(ctx context.Context) *dto.ListMarketingLinkTemplatesResponse {
	items := make([]dto.MarketingLinkTemplateDTO, 0, len(channelTemplates))
	for _, t := range channelTemplates {
		items = append(items, dto.MarketingLinkTemplateDTO{
			ID:                t.ID,
			Name:              t.Name,
			UTMSource:         t.UTMSource,
			UTMMedium:         t.UTMMedium,
			PreferredLinkType: t.PreferredLinkType,
		})
	}
	return &dto.ListMarketingLinkTemplatesResponse{Templates: items}
}

func (f *MarketingLinkFlowImpl) Create(ctx context.Context, req *dto.CreateMarketingLinkRequest, metadata *ClientMetadata) (*dto.CreateMarketingLinkResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrLinkNameRequired
	}
	tmpl, ok := channelTemplate(req.Channel)
	if !ok {
		return nil, ErrInvalidChannel
	}

	campaign, err := f.ownedCampaign(ctx, req.ClientID, req.CampaignID)
	if err != nil {
		return nil, err
	}

	utm := NormalizeUTM(models.UTMFields{
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		UTMTerm:     req.UTMTerm,
		UTMContent:  req.UTMContent,
	})
	utm = utm.Merge(NormalizeUTM(models.UTMFields{
		UTMSource: utils.ToPtr(tmpl.UTMSource),
		UTMMedium: utils.ToPtr(tmpl.UTMMedium),
	}))
	if utm.UTMCampaign == nil {
		generated := GenerateUTMCampaign(name, req.ClientName, campaign.Title, tmpl.ID, f.now())
		utm.UTMCampaign = utils.TrimmedOrNil(&generated)
	}

	cid, err := f.generateCID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	targetID := campaign.ID
	link := &models.MarketingLink{
		UUID:             uuid.New(),
		ClientID:         req.ClientID,
		Name:             name,
		Channel:          tmpl.ID,
		CID:              cid,
		TargetCampaignID: &targetID,
		Status:           models.MarketingLinkStatusActive,
		UTMFields:        utm,
		CreatedAt:        f.now(),
		UpdatedAt:        f.now(),
	}
	if err := f.linkRepo.Save(ctx, link); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrCIDConflict
		}
		return nil, NewBusinessError("MARKETING_LINK_CREATE_FAILED", "Failed to create marketing link", err)
	}

	share, full := f.linkURLs(campaign.UUID, link)
	return &dto.CreateMarketingLinkResponse{
		Message: "Marketing link created successfully",
		Link:    ToMarketingLinkDTO(link, share, full),
	}, nil
}

func (f *MarketingLinkFlowImpl) List(ctx context.Context, req *dto.ListMarketingLinksRequest) (*dto.ListMarketingLinksResponse, error) {
	campaign, err := f.ownedCampaign(ctx, req.ClientID, req.CampaignID)
	if err != nil {
		return nil, err
	}

	filter := models.MarketingLinkFilter{
		ClientID:         &req.ClientID,
		TargetCampaignID: &campaign.ID,
	}
	if req.Status != nil {
		status := models.MarketingLinkStatus(*req.Status)
		if !status.Valid() {
			return nil, ErrInvalidLinkStatus
		}
		filter.Status = &status
	}

	rows, err := f.linkRepo.ByFilter(ctx, filter, "created_at DESC, id DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("MARKETING_LINK_LIST_FAILED", "Failed to list marketing links", err)
	}

	links := make([]dto.MarketingLinkDTO, 0, len(rows))
	for _, row := range rows {
		share, full := f.linkURLs(campaign.UUID, row)
		links = append(links, ToMarketingLinkDTO(row, share, full))
	}
	return &dto.ListMarketingLinksResponse{Links: links}, nil
}

func (f *MarketingLinkFlowImpl) UpdateStatus(ctx context.Context, req *dto.UpdateMarketingLinkStatusRequest, metadata *ClientMetadata) (*dto.UpdateMarketingLinkStatusResponse, error) {
	status := models.MarketingLinkStatus(req.Status)
	if !status.Valid() {
		return nil, ErrInvalidLinkStatus
	}

	link, err := f.linkRepo.ByUUID(ctx, req.LinkID)
	if err != nil {
		return nil, NewBusinessError("MARKETING_LINK_LOOKUP_FAILED", "Failed to lookup marketing link", err)
	}
	if link == nil || link.ClientID != req.ClientID {
		return nil, ErrMarketingLinkNotFound
	}

	if status == models.MarketingLinkStatusActive && link.Status != models.MarketingLinkStatusActive {
		active := models.MarketingLinkStatusActive
		taken, err := f.linkRepo.Exists(ctx, models.MarketingLinkFilter{
			ClientID: &link.ClientID,
			CID:      &link.CID,
			Status:   &active,
		})
		if err != nil {
			return nil, NewBusinessError("MARKETING_LINK_LOOKUP_FAILED", "Failed to check cid availability", err)
		}
		if taken {
			return nil, ErrCIDConflict
		}
	}

	if err := f.linkRepo.UpdateStatus(ctx, link.ID, status); err != nil {
		switch {
		case errors.Is(err, repository.ErrMarketingLinkNotFound):
			return nil, ErrMarketingLinkNotFound
		case repository.IsUniqueViolation(err):
			return nil, ErrCIDConflict
		default:
			return nil, NewBusinessError("MARKETING_LINK_UPDATE_FAILED", "Failed to update marketing link status", err)
		}
	}
	link.Status = status
	link.UpdatedAt = f.now()

	if f.cache != nil {
		if err := f.cache.Invalidate(ctx, link.ClientID, link.CID); err != nil {
			logEvent("[AttributionResolve]", map[string]any{
				"stage":     "link_cache_invalidate",
				"cid":       link.CID,
				"requestId": requestID(metadata),
				"error":     err.Error(),
			})
		}
	}

	var share, full string
	if link.TargetCampaignID != nil {
		if campaign, err := f.campaignRepo.ByID(ctx, *link.TargetCampaignID); err == nil && campaign != nil {
			share, full = f.linkURLs(campaign.UUID, link)
		}
	}
	return &dto.UpdateMarketingLinkStatusResponse{
		Message: "Marketing link status updated successfully",
		Link:    ToMarketingLinkDTO(link, share, full),
	}, nil
}

func (f *MarketingLinkFlowImpl) ownedCampaign(ctx context.Context, clientID, campaignID uuid.UUID) (*models.SurveyCampaign, error) {
	campaign, err := f.campaignRepo.ByUUID(ctx, campaignID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil || campaign.ClientID != clientID {
		return nil, ErrCampaignNotFound
	}
	return campaign, nil
}

// generateCID draws random cids until one is free among the client's active links
func (f *MarketingLinkFlowImpl) generateCID(ctx context.Context, clientID uuid.UUID) (string, error) {
	active := models.MarketingLinkStatusActive
	for i := 0; i < f.cidAttempts; i++ {
		cid, err := f.randomCID()
		if err != nil {
			return "", fmt.Errorf("failed to generate cid: %w", err)
		}
		taken, err := f.linkRepo.Exists(ctx, models.MarketingLinkFilter{
			ClientID: &clientID,
			CID:      &cid,
			Status:   &active,
		})
		if err != nil {
			return "", NewBusinessError("MARKETING_LINK_LOOKUP_FAILED", "Failed to check cid availability", err)
		}
		if !taken {
			return cid, nil
		}
	}
	return "", ErrCIDExhausted
}

// linkURLs returns the cid-only share url and the campaign url carrying the utm tuple
func (f *MarketingLinkFlowImpl) linkURLs(campaignID uuid.UUID, link *models.MarketingLink) (string, string) {
	share := fmt.Sprintf("%s/event/%s?cid=%s", f.publicBaseURL, campaignID, url.QueryEscape(link.CID))

	params := url.Values{}
	for key, value := range map[string]*string{
		"utm_source":   link.UTMSource,
		"utm_medium":   link.UTMMedium,
		"utm_campaign": link.UTMCampaign,
		"utm_term":     link.UTMTerm,
		"utm_content":  link.UTMContent,
	} {
		if value != nil {
			params.Set(key, *value)
		}
	}
	if len(params) == 0 {
		return share, share
	}
	return share, share + "&" + params.Encode()
}
