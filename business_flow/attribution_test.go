package businessflow

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/amirphl/event-funnel/models"
	"github.com/amirphl/event-funnel/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUTM(t *testing.T) {
	utm := NormalizeUTM(models.UTMFields{
		UTMSource:  utils.ToPtr("  newsletter "),
		UTMMedium:  utils.ToPtr("   "),
		UTMContent: utils.ToPtr("hero\t"),
	})

	require.NotNil(t, utm.UTMSource)
	assert.Equal(t, "newsletter", *utm.UTMSource)
	assert.Nil(t, utm.UTMMedium)
	assert.Nil(t, utm.UTMCampaign)
	assert.Nil(t, utm.UTMTerm)
	assert.Equal(t, "hero", *utm.UTMContent)

	safe, err := TryNormalizeUTM(models.UTMFields{UTMTerm: utils.ToPtr(" seminar ")})
	require.NoError(t, err)
	assert.Equal(t, "seminar", *safe.UTMTerm)
}

func TestNormalizeCID(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
		ok       bool
	}{
		{raw: "ABC123", expected: "ABC123", ok: true},
		{raw: " abc123 ", expected: "ABC123", ok: true},
		{raw: "A1B2C3D4E5F6G7H8", expected: "A1B2C3D4E5F6G7H8", ok: true},
		{raw: "AB1", ok: false},
		{raw: "A1B2C3D4E5F6G7H8J", ok: false},
		{raw: "ABC-123", ok: false},
		{raw: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			cid, ok := NormalizeCID(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, cid)
		})
	}
}

type attributionFixture struct {
	campaign *models.SurveyCampaign
	other    *models.SurveyCampaign
	links    *fakeLinkRepo
	link     *models.MarketingLink
	resolver *AttributionResolverImpl
	now      time.Time
}

func newAttributionFixture(t *testing.T) *attributionFixture {
	t.Helper()
	clientID := uuid.New()
	campaign := &models.SurveyCampaign{ID: 1, UUID: uuid.New(), ClientID: clientID, Status: models.SurveyCampaignStatusActive}
	other := &models.SurveyCampaign{ID: 2, UUID: uuid.New(), ClientID: clientID, Status: models.SurveyCampaignStatusActive}

	links := &fakeLinkRepo{}
	link := &models.MarketingLink{
		UUID:             uuid.New(),
		ClientID:         clientID,
		Name:             "April newsletter",
		Channel:          "newsletter",
		CID:              "ABC123",
		TargetCampaignID: &campaign.ID,
		Status:           models.MarketingLinkStatusActive,
		UTMFields: models.UTMFields{
			UTMSource:   utils.ToPtr("newsletter"),
			UTMMedium:   utils.ToPtr("email"),
			UTMCampaign: utils.ToPtr("april"),
		},
	}
	require.NoError(t, links.Save(context.Background(), link))

	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	resolver := NewAttributionResolver(links, 24*time.Hour).(*AttributionResolverImpl)
	resolver.now = func() time.Time { return now }

	return &attributionFixture{
		campaign: campaign,
		other:    other,
		links:    links,
		link:     link,
		resolver: resolver,
		now:      now,
	}
}

func (f *attributionFixture) cookie(capturedAt time.Time, body string) *string {
	raw := `{` + body + `"captured_at":"` + capturedAt.Format(time.RFC3339) + `"}`
	return utils.ToPtr(url.QueryEscape(raw))
}

func TestAttributionResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("ExplicitLinkWins", func(t *testing.T) {
		f := newAttributionFixture(t)
		linkID := f.link.ID

		got := f.resolver.Resolve(ctx, f.campaign, AttributionInput{
			MarketingCampaignLinkID: &linkID,
			CID:                     utils.ToPtr("ZZZ999"),
			UTM:                     models.UTMFields{UTMSource: utils.ToPtr(" google ")},
		})
		assert.Equal(t, AttributionSourceExplicit, got.Source)
		require.NotNil(t, got.MarketingLinkID)
		assert.Equal(t, f.link.ID, *got.MarketingLinkID)
		assert.Equal(t, "google", *got.UTM.UTMSource)
		assert.Empty(t, got.UntrackedReason)
		assert.Nil(t, got.CID)
		assert.Equal(t, 0, f.links.calls())
	})

	t.Run("ExplicitLinkRejected", func(t *testing.T) {
		tests := []struct {
			name   string
			prep   func(f *attributionFixture) (uint, *models.SurveyCampaign)
			reason string
		}{
			{
				name: "Missing",
				prep: func(f *attributionFixture) (uint, *models.SurveyCampaign) {
					return 999999, f.campaign
				},
				reason: UntrackedLinkNotFound,
			},
			{
				name: "AnotherClient",
				prep: func(f *attributionFixture) (uint, *models.SurveyCampaign) {
					foreign := &models.SurveyCampaign{ID: 3, UUID: uuid.New(), ClientID: uuid.New(), Status: models.SurveyCampaignStatusActive}
					return f.link.ID, foreign
				},
				reason: UntrackedLinkClientMismatch,
			},
			{
				name: "AnotherCampaign",
				prep: func(f *attributionFixture) (uint, *models.SurveyCampaign) {
					return f.link.ID, f.other
				},
				reason: UntrackedLinkCampaignMismatch,
			},
			{
				name: "LookupFails",
				prep: func(f *attributionFixture) (uint, *models.SurveyCampaign) {
					f.links.byIDErr = errors.New("connection reset")
					return f.link.ID, f.campaign
				},
				reason: UntrackedLinkLookupFailed,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newAttributionFixture(t)
				linkID, campaign := tt.prep(f)

				got := f.resolver.Resolve(ctx, campaign, AttributionInput{
					MarketingCampaignLinkID: &linkID,
					CID:                     utils.ToPtr("ABC123"),
				})
				assert.Equal(t, AttributionSourceExplicit, got.Source)
				assert.Nil(t, got.MarketingLinkID)
				assert.Equal(t, tt.reason, got.UntrackedReason)
				assert.Equal(t, 0, f.links.calls(), "an explicit id never falls back to the cid")
			})
		}
	})

	t.Run("URLCIDAppliesLinkUTM", func(t *testing.T) {
		f := newAttributionFixture(t)

		got := f.resolver.Resolve(ctx, f.campaign, AttributionInput{CID: utils.ToPtr("abc123")})
		assert.Equal(t, AttributionSourceURL, got.Source)
		require.NotNil(t, got.MarketingLinkID)
		assert.Equal(t, f.link.ID, *got.MarketingLinkID)
		assert.Equal(t, "ABC123", *got.CID)
		assert.Equal(t, "newsletter", *got.UTM.UTMSource)
		assert.Equal(t, "email", *got.UTM.UTMMedium)
		assert.Empty(t, got.UntrackedReason)
	})

	t.Run("URLUTMSourceBeatsLinkUTM", func(t *testing.T) {
		f := newAttributionFixture(t)

		got := f.resolver.Resolve(ctx, f.campaign, AttributionInput{
			CID: utils.ToPtr("ABC123"),
			UTM: models.UTMFields{UTMSource: utils.ToPtr("kakao")},
		})
		assert.Equal(t, f.link.ID, *got.MarketingLinkID)
		assert.Equal(t, "kakao", *got.UTM.UTMSource)
		assert.Nil(t, got.UTM.UTMMedium)
	})

	t.Run("InvalidCID", func(t *testing.T) {
		f := newAttributionFixture(t)

		got := f.resolver.Resolve(ctx, f.campaign, AttributionInput{CID: utils.ToPtr("no!")})
		assert.Equal(t, UntrackedCIDInvalid, got.UntrackedReason)
		assert.Nil(t, got.MarketingLinkID)
		assert.Equal(t, 0, f.links.calls())
	})

	t.Run("UnknownCID", func(t *testing.T) {
		f := newAttributionFixture(t)

		got := f.resolver.Resolve(ctx, f.campaign, AttributionInput{CID: utils.ToPtr("NOPE99")})
		assert.Equal(t, UntrackedCIDLinkNotFound, got.UntrackedReason)
		assert.Nil(t, got.MarketingLinkID)
	})

	t.Run("CIDForAnotherCampaign", func(t *testing.T) {
		f := newAttributionFixture(t)

		got := f.resolver.Resolve(ctx, f.other, AttributionInput{CID: utils.ToPtr("ABC123")})
		assert.Equal(t, UntrackedCIDCampaignMismatch, got.UntrackedReason)
		assert.Nil(t, got.MarketingLinkID)
	})

	t.Run("LookupFailureDegrades", func(t *testing.T) {
		f := newAttributionFixture(t)
		f.links.lookupErr = errors.New("redis down")

		got := f.resolver.Resolve(ctx, f.campaign, AttributionInput{
			CID: utils.ToPtr("ABC123"),
			UTM: models.UTMFields{UTMMedium: utils.ToPtr("cpc")},
		})
		assert.Equal(t, UntrackedCIDLookupFailed, got.UntrackedReason)
		assert.Nil(t, got.MarketingLinkID)
		assert.Equal(t, "cpc", *got.UTM.UTMMedium)
	})

	t.Run("FreshCookieWithCID", func(t *testing.T) {
		f := newAttributionFixture(t)

		got := f.resolver.Resolve(ctx, f.campaign, AttributionInput{
			TrackingCookie: f.cookie(f.now.Add(-time.Hour), `"cid":"abc123",`),
		})
		assert.Equal(t, AttributionSourceCookie, got.Source)
		require.NotNil(t, got.MarketingLinkID)
		assert.Equal(t, f.link.ID, *got.MarketingLinkID)
		assert.Equal(t, "newsletter", *got.UTM.UTMSource)
	})

	t.Run("FreshCookieWithUTMOnly", func(t *testing.T) {
		f := newAttributionFixture(t)

		got := f.resolver.Resolve(ctx, f.campaign, AttributionInput{
			TrackingCookie: f.cookie(f.now.Add(-time.Hour), `"utm_source":" naver ","utm_medium":"blog",`),
		})
		assert.Equal(t, AttributionSourceCookie, got.Source)
		assert.Equal(t, "naver", *got.UTM.UTMSource)
		assert.Equal(t, "blog", *got.UTM.UTMMedium)
		assert.Nil(t, got.MarketingLinkID)
	})

	t.Run("ExpiredCookieIsIgnored", func(t *testing.T) {
		f := newAttributionFixture(t)

		got := f.resolver.Resolve(ctx, f.campaign, AttributionInput{
			TrackingCookie: f.cookie(f.now.Add(-48*time.Hour), `"cid":"ABC123",`),
		})
		assert.Equal(t, UntrackedCookieExpired, got.UntrackedReason)
		assert.Equal(t, AttributionSourceNone, got.Source)
		assert.Nil(t, got.MarketingLinkID)
	})

	t.Run("MalformedCookie", func(t *testing.T) {
		f := newAttributionFixture(t)

		got := f.resolver.Resolve(ctx, f.campaign, AttributionInput{TrackingCookie: utils.ToPtr("not-json")})
		assert.Equal(t, UntrackedCookieMalformed, got.UntrackedReason)
		assert.Equal(t, AttributionSourceNone, got.Source)
	})

	t.Run("CookieCIDForAnotherCampaignIsDiscarded", func(t *testing.T) {
		f := newAttributionFixture(t)

		got := f.resolver.Resolve(ctx, f.other, AttributionInput{
			TrackingCookie: f.cookie(f.now.Add(-time.Hour), `"cid":"ABC123",`),
		})
		assert.Equal(t, UntrackedCIDCampaignMismatch, got.UntrackedReason)
		assert.Equal(t, AttributionSourceNone, got.Source)
		assert.Nil(t, got.MarketingLinkID)
		assert.Nil(t, got.CID)
		assert.Nil(t, got.UTM.UTMSource)
	})

	t.Run("URLUTMBeatsCookie", func(t *testing.T) {
		f := newAttributionFixture(t)

		got := f.resolver.Resolve(ctx, f.campaign, AttributionInput{
			UTM:            models.UTMFields{UTMSource: utils.ToPtr("google")},
			TrackingCookie: f.cookie(f.now.Add(-time.Hour), `"cid":"ABC123",`),
		})
		assert.Equal(t, AttributionSourceURL, got.Source)
		assert.Equal(t, "google", *got.UTM.UTMSource)
		assert.Nil(t, got.MarketingLinkID)
		assert.Equal(t, 0, f.links.calls())
	})

	t.Run("FirstVisitAndReferrer", func(t *testing.T) {
		f := newAttributionFixture(t)

		got := f.resolver.Resolve(ctx, f.campaign, AttributionInput{
			FirstVisitAt: utils.ToPtr("2026-04-09T18:30:00+09:00"),
			Referrer:     utils.ToPtr(" https://news.example.com "),
		})
		require.NotNil(t, got.FirstVisitAt)
		assert.True(t, time.Date(2026, 4, 9, 9, 30, 0, 0, time.UTC).Equal(*got.FirstVisitAt))
		assert.Equal(t, time.UTC, got.FirstVisitAt.Location())
		assert.Equal(t, "https://news.example.com", *got.Referrer)

		got = f.resolver.Resolve(ctx, f.campaign, AttributionInput{FirstVisitAt: utils.ToPtr("yesterday")})
		assert.Nil(t, got.FirstVisitAt)
	})
}
