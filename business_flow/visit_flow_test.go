package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/amirphl/event-funnel/app/dto"
	"github.com/amirphl/event-funnel/models"
	"github.com/amirphl/event-funnel/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordVisit(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*models.SurveyCampaign, *fakeVisitRepo, *fakeLinkRepo, *fakeDedup, VisitFlow) {
		t.Helper()
		campaign := &models.SurveyCampaign{
			ID:       1,
			UUID:     uuid.New(),
			ClientID: uuid.New(),
			Status:   models.SurveyCampaignStatusDraft,
		}
		visits := &fakeVisitRepo{}
		links := &fakeLinkRepo{}
		dedup := &fakeDedup{}
		flow := NewVisitFlow(newFakeCampaignRepo(campaign), visits, links, dedup)
		return campaign, visits, links, dedup, flow
	}

	t.Run("RecordsVisit", func(t *testing.T) {
		campaign, visits, _, _, flow := setup(t)

		res, err := flow.RecordVisit(ctx, &dto.RecordVisitRequest{
			CampaignID: campaign.UUID,
			SessionID:  utils.ToPtr(" sess-1 "),
			UTMSource:  utils.ToPtr(" google "),
			UTMMedium:  utils.ToPtr(""),
		}, NewClientMetadata("10.0.0.1", "Mozilla/5.0"))
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.True(t, res.Recorded)
		assert.NotEmpty(t, res.VisitID)

		require.Len(t, visits.rows, 1)
		v := visits.rows[0]
		assert.Equal(t, "sess-1", v.SessionID)
		assert.Equal(t, "google", *v.UTMSource)
		assert.Nil(t, v.UTMMedium)
		assert.Equal(t, "Mozilla/5.0", *v.UserAgent)
		assert.Nil(t, v.ConvertedAt)
	})

	t.Run("SessionRequired", func(t *testing.T) {
		campaign, _, _, _, flow := setup(t)

		_, err := flow.RecordVisit(ctx, &dto.RecordVisitRequest{CampaignID: campaign.UUID}, nil)
		assert.ErrorIs(t, err, ErrSessionIDRequired)
	})

	t.Run("UnknownCampaign", func(t *testing.T) {
		_, _, _, _, flow := setup(t)

		_, err := flow.RecordVisit(ctx, &dto.RecordVisitRequest{CampaignID: uuid.New(), SessionID: utils.ToPtr("s")}, nil)
		assert.ErrorIs(t, err, ErrCampaignNotFound)
	})

	t.Run("RepeatedSessionIsDeduplicated", func(t *testing.T) {
		campaign, visits, _, _, flow := setup(t)
		req := &dto.RecordVisitRequest{CampaignID: campaign.UUID, SessionID: utils.ToPtr("sess-1")}

		first, err := flow.RecordVisit(ctx, req, nil)
		require.NoError(t, err)
		assert.True(t, first.Recorded)

		second, err := flow.RecordVisit(ctx, req, nil)
		require.NoError(t, err)
		assert.True(t, second.Success)
		assert.False(t, second.Recorded)
		assert.True(t, second.Deduplicated)
		assert.Len(t, visits.rows, 1)
	})

	t.Run("DedupFailureStillRecords", func(t *testing.T) {
		campaign, visits, _, dedup, flow := setup(t)
		dedup.err = errors.New("redis unavailable")

		res, err := flow.RecordVisit(ctx, &dto.RecordVisitRequest{CampaignID: campaign.UUID, SessionID: utils.ToPtr("s")}, nil)
		require.NoError(t, err)
		assert.True(t, res.Recorded)
		assert.Len(t, visits.rows, 1)
	})

	t.Run("SaveFailureIsSoft", func(t *testing.T) {
		campaign, visits, _, _, flow := setup(t)
		visits.saveErr = errors.New("insert failed")

		res, err := flow.RecordVisit(ctx, &dto.RecordVisitRequest{CampaignID: campaign.UUID, SessionID: utils.ToPtr("s")}, nil)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.False(t, res.Recorded)
	})

	t.Run("RetryAfterSaveFailureIsRecorded", func(t *testing.T) {
		campaign, visits, _, _, flow := setup(t)
		req := &dto.RecordVisitRequest{CampaignID: campaign.UUID, SessionID: utils.ToPtr("sess-retry")}
		visits.saveErr = errors.New("insert failed")

		first, err := flow.RecordVisit(ctx, req, nil)
		require.NoError(t, err)
		assert.False(t, first.Recorded)

		visits.saveErr = nil
		retry, err := flow.RecordVisit(ctx, req, nil)
		require.NoError(t, err)
		assert.True(t, retry.Success)
		assert.True(t, retry.Recorded)
		assert.False(t, retry.Deduplicated)
		assert.Len(t, visits.rows, 1)
	})

	t.Run("CIDAttachesLink", func(t *testing.T) {
		campaign, visits, links, _, flow := setup(t)
		link := &models.MarketingLink{
			UUID:             uuid.New(),
			ClientID:         campaign.ClientID,
			CID:              "ABC123",
			TargetCampaignID: &campaign.ID,
			Status:           models.MarketingLinkStatusActive,
			UTMFields:        models.UTMFields{UTMSource: utils.ToPtr("newsletter"), UTMMedium: utils.ToPtr("email")},
		}
		require.NoError(t, links.Save(ctx, link))

		_, err := flow.RecordVisit(ctx, &dto.RecordVisitRequest{
			CampaignID: campaign.UUID,
			SessionID:  utils.ToPtr("s"),
			CID:        utils.ToPtr("abc123"),
		}, nil)
		require.NoError(t, err)

		v := visits.rows[0]
		assert.Equal(t, "ABC123", *v.CID)
		require.NotNil(t, v.MarketingLinkID)
		assert.Equal(t, link.ID, *v.MarketingLinkID)
		assert.Equal(t, "newsletter", *v.UTMSource)
		assert.Equal(t, "email", *v.UTMMedium)
	})

	t.Run("UnknownCIDIsKeptWithoutLink", func(t *testing.T) {
		campaign, visits, _, _, flow := setup(t)

		_, err := flow.RecordVisit(ctx, &dto.RecordVisitRequest{
			CampaignID: campaign.UUID,
			SessionID:  utils.ToPtr("s"),
			CID:        utils.ToPtr("NOPE99"),
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "NOPE99", *visits.rows[0].CID)
		assert.Nil(t, visits.rows[0].MarketingLinkID)
	})
}
