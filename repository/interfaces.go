package repository

import (
	"context"
	"time"

	"github.com/amirphl/event-funnel/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// SurveyCampaignRepository defines operations for survey campaigns and their sequence counter
type SurveyCampaignRepository interface {
	Repository[models.SurveyCampaign, models.SurveyCampaignFilter]
	ByUUID(ctx context.Context, id uuid.UUID) (*models.SurveyCampaign, error)
	// SwapNextSequence sets next_sequence_number to next only if the stored value
	// still equals expected. It reports whether a row was updated.
	SwapNextSequence(ctx context.Context, campaignID uint, expected, next int64) (bool, error)
}

// MarketingLinkRepository defines operations for marketing links
type MarketingLinkRepository interface {
	Repository[models.MarketingLink, models.MarketingLinkFilter]
	ByUUID(ctx context.Context, id uuid.UUID) (*models.MarketingLink, error)
	ActiveByCID(ctx context.Context, clientID uuid.UUID, cid string) (*models.MarketingLink, error)
	UpdateStatus(ctx context.Context, id uint, status models.MarketingLinkStatus) error
}

// SurveyEntryRepository defines operations for survey entries
type SurveyEntryRepository interface {
	Repository[models.SurveyEntry, models.SurveyEntryFilter]
	ByCampaignPhone(ctx context.Context, campaignID uint, phoneNorm string) (*models.SurveyEntry, error)
	CodeExists(ctx context.Context, campaignID uint, code string) (bool, error)
}

// FormSubmissionRepository defines operations for form submissions and their answers
type FormSubmissionRepository interface {
	Repository[models.FormSubmission, models.FormSubmissionFilter]
	SaveAnswers(ctx context.Context, answers []*models.FormAnswer) error
}

// CampaignVisitRepository defines operations for anonymous campaign visits
type CampaignVisitRepository interface {
	Repository[models.CampaignVisit, models.CampaignVisitFilter]
	LatestUnconverted(ctx context.Context, campaignID uint, sessionID string) (*models.CampaignVisit, error)
	// MarkConverted links the visit to an entry if it is still unconverted.
	// It reports whether the row was updated.
	MarkConverted(ctx context.Context, visitID, entryID uint, at time.Time) (bool, error)
}

// MarketingStatDailyRepository defines operations for the daily stats rollup
type MarketingStatDailyRepository interface {
	ByFilter(ctx context.Context, filter models.MarketingStatDailyFilter, orderBy string, limit, offset int) ([]*models.MarketingStatDaily, error)
	// VisitBuckets counts distinct sessions per bucket for visits accessed in [from, to)
	VisitBuckets(ctx context.Context, from, to time.Time) ([]*models.MarketingStatDaily, error)
	// ConversionBuckets counts entries per bucket for entries created in [from, to)
	ConversionBuckets(ctx context.Context, from, to time.Time) ([]*models.MarketingStatDaily, error)
	Upsert(ctx context.Context, rows []*models.MarketingStatDaily) error
}
