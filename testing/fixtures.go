package testing

import (
	"fmt"
	"time"

	"github.com/amirphl/event-funnel/models"
	"github.com/amirphl/event-funnel/utils"
	"github.com/google/uuid"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateCampaign inserts an active campaign of the given type owned by clientID
func (tf *TestFixtures) CreateCampaign(clientID uuid.UUID, campaignType models.SurveyCampaignType) (*models.SurveyCampaign, error) {
	campaign := &models.SurveyCampaign{
		UUID:               uuid.New(),
		ClientID:           clientID,
		Title:              fmt.Sprintf("Test %s campaign", campaignType),
		Type:               campaignType,
		Status:             models.SurveyCampaignStatusActive,
		NextSequenceNumber: 1,
	}
	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return campaign, nil
}

// CreateMarketingLink inserts an active newsletter link for the campaign
func (tf *TestFixtures) CreateMarketingLink(campaign *models.SurveyCampaign, cid string) (*models.MarketingLink, error) {
	link := &models.MarketingLink{
		UUID:             uuid.New(),
		ClientID:         campaign.ClientID,
		Name:             "Newsletter " + cid,
		Channel:          "newsletter",
		CID:              cid,
		TargetCampaignID: utils.ToPtr(campaign.ID),
		Status:           models.MarketingLinkStatusActive,
		UTMFields: models.UTMFields{
			UTMSource: utils.ToPtr("newsletter"),
			UTMMedium: utils.ToPtr("email"),
		},
	}
	if err := tf.DB.DB.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create marketing link %s: %w", cid, err)
	}
	return link, nil
}

// CreateVisit inserts an unconverted visit of sessionID accessed at the given time
func (tf *TestFixtures) CreateVisit(campaign *models.SurveyCampaign, sessionID string, accessedAt time.Time) (*models.CampaignVisit, error) {
	visit := &models.CampaignVisit{
		UUID:       uuid.New(),
		CampaignID: campaign.ID,
		SessionID:  sessionID,
		AccessedAt: accessedAt.UTC(),
	}
	if err := tf.DB.DB.Create(visit).Error; err != nil {
		return nil, fmt.Errorf("failed to create visit: %w", err)
	}
	return visit, nil
}

// CreateEntry inserts an entry with the given phone and sequence number
func (tf *TestFixtures) CreateEntry(campaign *models.SurveyCampaign, phoneNorm string, seq int64, code string) (*models.SurveyEntry, error) {
	entry := &models.SurveyEntry{
		UUID:             uuid.New(),
		CampaignID:       campaign.ID,
		Name:             "Test Participant",
		PhoneNorm:        phoneNorm,
		SequenceNumber:   seq,
		ConfirmationCode: code,
	}
	if err := tf.DB.DB.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	return entry, nil
}
