package businessflow

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/amirphl/event-funnel/models"
	"github.com/amirphl/event-funnel/utils"
	"github.com/google/uuid"
)

// Attribution sources
const (
	AttributionSourceExplicit = "explicit"
	AttributionSourceURL      = "url"
	AttributionSourceCookie   = "cookie"
	AttributionSourceNone     = "none"
)

// Untracked reasons
const (
	UntrackedCIDInvalid           = "cid_invalid"
	UntrackedCIDLinkNotFound      = "cid_link_not_found"
	UntrackedCIDCampaignMismatch  = "cid_campaign_mismatch"
	UntrackedCIDLookupFailed      = "cid_lookup_failed"
	UntrackedCookieExpired        = "cookie_expired"
	UntrackedCookieMalformed      = "cookie_malformed"
	UntrackedLinkNotFound         = "link_not_found"
	UntrackedLinkClientMismatch   = "link_client_mismatch"
	UntrackedLinkCampaignMismatch = "link_campaign_mismatch"
	UntrackedLinkLookupFailed     = "link_lookup_failed"
)

var cidPattern = regexp.MustCompile(`^[A-Z0-9]{4,16}$`)

// NormalizeCID trims and upper-cases a click id; ok is false when the result is not a valid cid
func NormalizeCID(raw string) (string, bool) {
	cid := strings.ToUpper(strings.TrimSpace(raw))
	if !cidPattern.MatchString(cid) {
		return "", false
	}
	return cid, true
}

// MarketingLinkLookup finds links by cid or by id. Both the repository and
// the redis-backed link cache satisfy it.
type MarketingLinkLookup interface {
	ActiveByCID(ctx context.Context, clientID uuid.UUID, cid string) (*models.MarketingLink, error)
	ByID(ctx context.Context, id uint) (*models.MarketingLink, error)
}

// AttributionInput is the raw tracking data of one request
type AttributionInput struct {
	UTM                     models.UTMFields
	CID                     *string
	MarketingCampaignLinkID *uint
	TrackingCookie          *string
	FirstVisitAt            *string
	Referrer                *string
}

// Attribution is the snapshot stored on entries and visits
type Attribution struct {
	UTM             models.UTMFields
	MarketingLinkID *uint
	CID             *string
	FirstVisitAt    *time.Time
	Referrer        *string
	Source          string
	UntrackedReason string
}

// trackingCookie mirrors the JSON the landing page stores in ef_tracking
type trackingCookie struct {
	CID         *string `json:"cid"`
	UTMSource   *string `json:"utm_source"`
	UTMMedium   *string `json:"utm_medium"`
	UTMCampaign *string `json:"utm_campaign"`
	UTMTerm     *string `json:"utm_term"`
	UTMContent  *string `json:"utm_content"`
	CapturedAt  string  `json:"captured_at"`
}

// AttributionResolver turns raw tracking input into an attribution snapshot.
// It never fails; every lookup error degrades to a less specific result.
type AttributionResolver interface {
	Resolve(ctx context.Context, campaign *models.SurveyCampaign, input AttributionInput) Attribution
}

type AttributionResolverImpl struct {
	links             MarketingLinkLookup
	cookieTrustWindow time.Duration
	now               func() time.Time
}

func NewAttributionResolver(links MarketingLinkLookup, cookieTrustWindow time.Duration) AttributionResolver {
	if cookieTrustWindow <= 0 {
		cookieTrustWindow = utils.DefaultCookieTrustWindow
	}
	return &AttributionResolverImpl{
		links:             links,
		cookieTrustWindow: cookieTrustWindow,
		now:               utils.UTCNow,
	}
}

// Resolve applies explicit link id > URL cid > URL utm > tracking cookie
func (r *AttributionResolverImpl) Resolve(ctx context.Context, campaign *models.SurveyCampaign, input AttributionInput) Attribution {
	urlUTM, err := TryNormalizeUTM(input.UTM)
	if err != nil {
		attributionDegradedTotal.WithLabelValues("utm_normalize").Inc()
		logEvent("[AttributionResolve]", map[string]any{
			"campaignId": campaign.UUID.String(),
			"stage":      "utm_normalize",
			"error":      err.Error(),
		})
	}

	out := Attribution{
		UTM:          urlUTM,
		FirstVisitAt: parseFirstVisitAt(input.FirstVisitAt),
		Referrer:     utils.TrimmedOrNil(input.Referrer),
		Source:       AttributionSourceNone,
	}

	if input.MarketingCampaignLinkID != nil && *input.MarketingCampaignLinkID > 0 {
		out.Source = AttributionSourceExplicit
		r.applyExplicitLink(ctx, campaign, *input.MarketingCampaignLinkID, &out)
		return out
	}

	if raw := utils.TrimmedOrNil(input.CID); raw != nil {
		out.Source = AttributionSourceURL
		cid, ok := NormalizeCID(*raw)
		if !ok {
			out.UntrackedReason = UntrackedCIDInvalid
			return out
		}
		out.CID = &cid
		r.applyLink(ctx, campaign, cid, &out)
		return out
	}

	if urlUTM.UTMSource != nil {
		out.Source = AttributionSourceURL
		return out
	}

	if input.TrackingCookie != nil {
		r.applyCookie(ctx, campaign, *input.TrackingCookie, &out)
		return out
	}

	if !urlUTM.IsEmpty() {
		out.Source = AttributionSourceURL
	}
	return out
}

// applyLink looks the cid up and copies the link's data into out. The link's
// utm tuple is used only when the request carried no utm_source.
func (r *AttributionResolverImpl) applyLink(ctx context.Context, campaign *models.SurveyCampaign, cid string, out *Attribution) bool {
	link, err := r.links.ActiveByCID(ctx, campaign.ClientID, cid)
	if err != nil {
		attributionDegradedTotal.WithLabelValues("cid_lookup").Inc()
		logEvent("[AttributionResolve]", map[string]any{
			"campaignId": campaign.UUID.String(),
			"stage":      "cid_lookup",
			"cid":        cid,
			"error":      err.Error(),
		})
		out.UntrackedReason = UntrackedCIDLookupFailed
		return false
	}
	if link == nil {
		out.UntrackedReason = UntrackedCIDLinkNotFound
		return false
	}

	if out.UTM.UTMSource == nil {
		out.UTM = NormalizeUTM(link.UTMFields).Merge(out.UTM)
	}
	if !link.TargetsCampaign(campaign.ID) {
		out.UntrackedReason = UntrackedCIDCampaignMismatch
		return false
	}
	id := link.ID
	out.MarketingLinkID = &id
	return true
}

// applyExplicitLink keeps a caller-supplied link id only when the link belongs to
// the campaign's client and targets the campaign. The cid lookup is never consulted.
func (r *AttributionResolverImpl) applyExplicitLink(ctx context.Context, campaign *models.SurveyCampaign, id uint, out *Attribution) {
	link, err := r.links.ByID(ctx, id)
	switch {
	case err != nil:
		attributionDegradedTotal.WithLabelValues("link_lookup").Inc()
		out.UntrackedReason = UntrackedLinkLookupFailed
	case link == nil:
		out.UntrackedReason = UntrackedLinkNotFound
	case link.ClientID != campaign.ClientID:
		out.UntrackedReason = UntrackedLinkClientMismatch
	case !link.TargetsCampaign(campaign.ID):
		out.UntrackedReason = UntrackedLinkCampaignMismatch
	default:
		linkID := link.ID
		out.MarketingLinkID = &linkID
		return
	}

	fields := map[string]any{
		"campaignId": campaign.UUID.String(),
		"stage":      "explicit_link",
		"linkId":     id,
		"reason":     out.UntrackedReason,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	logEvent("[AttributionResolve]", fields)
}

func (r *AttributionResolverImpl) applyCookie(ctx context.Context, campaign *models.SurveyCampaign, raw string, out *Attribution) {
	cookie, err := parseTrackingCookie(raw)
	if err != nil {
		out.UntrackedReason = UntrackedCookieMalformed
		return
	}
	capturedAt, err := time.Parse(time.RFC3339, cookie.CapturedAt)
	if err != nil || r.now().Sub(capturedAt) > r.cookieTrustWindow {
		out.UntrackedReason = UntrackedCookieExpired
		return
	}

	cookieUTM := NormalizeUTM(models.UTMFields{
		UTMSource:   cookie.UTMSource,
		UTMMedium:   cookie.UTMMedium,
		UTMCampaign: cookie.UTMCampaign,
		UTMTerm:     cookie.UTMTerm,
		UTMContent:  cookie.UTMContent,
	})

	if raw := utils.TrimmedOrNil(cookie.CID); raw != nil {
		cid, ok := NormalizeCID(*raw)
		if !ok {
			out.UntrackedReason = UntrackedCIDInvalid
			return
		}
		probe := *out
		probe.UTM = cookieUTM.Merge(out.UTM)
		if !r.applyLink(ctx, campaign, cid, &probe) {
			// mismatched or unknown cookie cid: the cookie is discarded
			out.UntrackedReason = probe.UntrackedReason
			return
		}
		probe.CID = &cid
		probe.Source = AttributionSourceCookie
		*out = probe
		return
	}

	if cookieUTM.IsEmpty() {
		return
	}
	out.UTM = cookieUTM.Merge(out.UTM)
	out.Source = AttributionSourceCookie
}

func parseTrackingCookie(raw string) (*trackingCookie, error) {
	value := strings.TrimSpace(raw)
	if unescaped, err := url.QueryUnescape(value); err == nil {
		value = unescaped
	}
	var c trackingCookie
	if err := json.Unmarshal([]byte(value), &c); err != nil {
		return nil, err
	}
	return &c, nil
}
