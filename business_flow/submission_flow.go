package businessflow

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/amirphl/event-funnel/app/dto"
	"github.com/amirphl/event-funnel/models"
	"github.com/amirphl/event-funnel/repository"
	"github.com/amirphl/event-funnel/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// SubmissionFlow runs the public conversion pipeline for surveys and registrations
type SubmissionFlow interface {
	Submit(ctx context.Context, req *dto.SubmitEntryRequest, metadata *ClientMetadata) (*dto.SubmitEntryResponse, error)
	Register(ctx context.Context, req *dto.RegisterEntryRequest, metadata *ClientMetadata) (*dto.SubmitEntryResponse, error)
}

type SubmissionFlowImpl struct {
	campaignRepo repository.SurveyCampaignRepository
	entryRepo    repository.SurveyEntryRepository
	formRepo     repository.FormSubmissionRepository
	resolver     AttributionResolver
	allocator    SequenceAllocator
	codes        ConfirmationCodeGenerator
	linker       VisitLinker
	now          func() time.Time
}

func NewSubmissionFlow(
	campaignRepo repository.SurveyCampaignRepository,
	entryRepo repository.SurveyEntryRepository,
	formRepo repository.FormSubmissionRepository,
	resolver AttributionResolver,
	allocator SequenceAllocator,
	codes ConfirmationCodeGenerator,
	linker VisitLinker,
) SubmissionFlow {
	return &SubmissionFlowImpl{
		campaignRepo: campaignRepo,
		entryRepo:    entryRepo,
		formRepo:     formRepo,
		resolver:     resolver,
		allocator:    allocator,
		codes:        codes,
		linker:       linker,
		now:          utils.UTCNow,
	}
}

// entryInput is the validated, pipeline-ready form of a submit or register body
type entryInput struct {
	name             string
	phoneNorm        string
	company          *string
	answers          []dto.SubmissionAnswerRequest
	consentData      json.RawMessage
	registrationData json.RawMessage
	attribution      dto.AttributionRequest
}

// reserveFunc returns the sequence number and confirmation code of a new entry
type reserveFunc func(ctx context.Context, campaign *models.SurveyCampaign) (int64, string, error)

// Submit handles a survey submission
func (f *SubmissionFlowImpl) Submit(ctx context.Context, req *dto.SubmitEntryRequest, metadata *ClientMetadata) (*dto.SubmitEntryResponse, error) {
	campaign, err := f.activeCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}
	// registration codes are padded sequence numbers; random codes must not share their space
	if campaign.Type != models.SurveyCampaignTypeSurvey {
		submissionsTotal.WithLabelValues(OutcomeRejected).Inc()
		return nil, ErrNotSurveyType
	}
	if campaign.FormID == nil {
		submissionsTotal.WithLabelValues(OutcomeRejected).Inc()
		return nil, ErrFormNotConfigured
	}

	input, err := newEntryInput(req.Name, req.Phone, req.Company, req.AttributionRequest)
	if err != nil {
		return nil, err
	}
	input.answers = req.Answers
	input.consentData = req.ConsentData

	return f.run(ctx, campaign, input, f.reserveRandomCode, metadata)
}

// Register handles a registration; the code is the zero-padded sequence number
func (f *SubmissionFlowImpl) Register(ctx context.Context, req *dto.RegisterEntryRequest, metadata *ClientMetadata) (*dto.SubmitEntryResponse, error) {
	campaign, err := f.activeCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Type != models.SurveyCampaignTypeRegistration {
		submissionsTotal.WithLabelValues(OutcomeRejected).Inc()
		return nil, ErrNotRegistrationType
	}

	input, err := newEntryInput(req.Name, req.Phone, req.Company, req.AttributionRequest)
	if err != nil {
		return nil, err
	}
	input.consentData = req.ConsentData
	input.registrationData = req.RegistrationData

	return f.run(ctx, campaign, input, f.reserveSequenceCode, metadata)
}

func (f *SubmissionFlowImpl) reserveRandomCode(ctx context.Context, campaign *models.SurveyCampaign) (int64, string, error) {
	seq, err := f.allocator.Allocate(ctx, campaign.ID)
	if err != nil {
		return 0, "", err
	}
	code, err := f.codes.Generate(ctx, campaign.ID)
	if err != nil {
		return 0, "", err
	}
	return seq, code, nil
}

func (f *SubmissionFlowImpl) reserveSequenceCode(ctx context.Context, campaign *models.SurveyCampaign) (int64, string, error) {
	seq, err := f.allocator.AllocateWithRetry(ctx, campaign.ID, 1)
	if err != nil {
		return 0, "", err
	}
	return seq, PaddedSequenceCode(seq), nil
}

func (f *SubmissionFlowImpl) activeCampaign(ctx context.Context, id uuid.UUID) (*models.SurveyCampaign, error) {
	campaign, err := f.campaignRepo.ByUUID(ctx, id)
	if err != nil {
		submissionsTotal.WithLabelValues(OutcomeFailed).Inc()
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil || !campaign.AcceptsSubmissions() {
		submissionsTotal.WithLabelValues(OutcomeRejected).Inc()
		return nil, ErrCampaignNotFound
	}
	return campaign, nil
}

func newEntryInput(name, phone string, company *string, attribution dto.AttributionRequest) (*entryInput, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		submissionsTotal.WithLabelValues(OutcomeRejected).Inc()
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(phone) == "" {
		submissionsTotal.WithLabelValues(OutcomeRejected).Inc()
		return nil, ErrPhoneRequired
	}
	phoneNorm := utils.DigitsOnly(phone)
	if phoneNorm == "" {
		submissionsTotal.WithLabelValues(OutcomeRejected).Inc()
		return nil, ErrPhoneInvalid
	}
	return &entryInput{
		name:        trimmedName,
		phoneNorm:   phoneNorm,
		company:     utils.TrimmedOrNil(company),
		attribution: attribution,
	}, nil
}

func (f *SubmissionFlowImpl) run(ctx context.Context, campaign *models.SurveyCampaign, input *entryInput, reserve reserveFunc, metadata *ClientMetadata) (*dto.SubmitEntryResponse, error) {
	var (
		attribution Attribution
		existing    *models.SurveyEntry
	)

	// attribution never fails, so only the idempotency lookup can abort the group
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		attribution = f.resolver.Resolve(gctx, campaign, toAttributionInput(input.attribution))
		return nil
	})
	g.Go(func() error {
		var err error
		existing, err = f.entryRepo.ByCampaignPhone(gctx, campaign.ID, input.phoneNorm)
		return err
	})
	if err := g.Wait(); err != nil {
		submissionsTotal.WithLabelValues(OutcomeFailed).Inc()
		return nil, NewBusinessError("ENTRY_LOOKUP_FAILED", "Failed to check previous submission", err)
	}
	if existing != nil {
		submissionsTotal.WithLabelValues(OutcomeReplay).Inc()
		return replayResponse(existing), nil
	}

	seq, code, err := reserve(ctx, campaign)
	if err != nil {
		switch {
		case IsSequenceContention(err):
			submissionsTotal.WithLabelValues(OutcomeContention).Inc()
			return nil, err
		case IsConfirmationCodeExhausted(err), IsCampaignNotFound(err):
			submissionsTotal.WithLabelValues(OutcomeFailed).Inc()
			return nil, err
		default:
			submissionsTotal.WithLabelValues(OutcomeFailed).Inc()
			return nil, NewBusinessError("SEQUENCE_ALLOCATION_FAILED", "Failed to allocate submission number", err)
		}
	}

	entry, err := f.writeEntry(ctx, campaign, input, attribution, seq, code, metadata)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			// lost the idempotency race to a concurrent submission with the same phone
			winner, lookupErr := f.entryRepo.ByCampaignPhone(ctx, campaign.ID, input.phoneNorm)
			if lookupErr == nil && winner != nil {
				submissionsTotal.WithLabelValues(OutcomeReplay).Inc()
				return replayResponse(winner), nil
			}
		}
		submissionsTotal.WithLabelValues(OutcomeFailed).Inc()
		return nil, err
	}

	f.linker.Link(ctx, campaign.ID, input.attribution.SessionID, entry.ID)

	submissionsTotal.WithLabelValues(OutcomeCreated).Inc()
	return &dto.SubmitEntryResponse{
		Success:  true,
		SurveyNo: entry.SequenceNumber,
		Code6:    entry.ConfirmationCode,
		EntryID:  entry.UUID.String(),
	}, nil
}

// writeEntry persists the optional form submission, its answers and then the entry.
// There is no enclosing transaction: an answers failure is logged and the entry is still written.
func (f *SubmissionFlowImpl) writeEntry(
	ctx context.Context,
	campaign *models.SurveyCampaign,
	input *entryInput,
	attribution Attribution,
	seq int64,
	code string,
	metadata *ClientMetadata,
) (*models.SurveyEntry, error) {
	now := f.now()

	var submissionID *uint
	if len(input.answers) > 0 && campaign.FormID != nil {
		submission := &models.FormSubmission{
			UUID:       uuid.New(),
			FormID:     *campaign.FormID,
			CampaignID: campaign.ID,
		}
		if err := f.formRepo.Save(ctx, submission); err != nil {
			logEvent("[EntryTrackFail]", map[string]any{
				"campaignId": campaign.UUID.String(),
				"requestId":  requestID(metadata),
				"reason":     "FORM_SUBMISSION_INSERT_FAILED",
				"error":      err.Error(),
			})
			return nil, NewBusinessError("FORM_SUBMISSION_FAILED", "Failed to save form submission", err)
		}
		submissionID = &submission.ID

		if err := f.formRepo.SaveAnswers(ctx, buildAnswers(submission, input.answers)); err != nil {
			logEvent("[EntryAnswersFail]", map[string]any{
				"campaignId":   campaign.UUID.String(),
				"submissionId": submission.ID,
				"answers":      len(input.answers),
				"error":        err.Error(),
			})
		}
	}

	entry := &models.SurveyEntry{
		UUID:             uuid.New(),
		CampaignID:       campaign.ID,
		Name:             input.name,
		Company:          input.company,
		PhoneNorm:        input.phoneNorm,
		SequenceNumber:   seq,
		ConfirmationCode: code,
		UTMFields:        attribution.UTM,
		UTMFirstVisitAt:  attribution.FirstVisitAt,
		UTMReferrer:      attribution.Referrer,
		MarketingLinkID:  attribution.MarketingLinkID,
		FormSubmissionID: submissionID,
		CreatedAt:        now,
	}
	if hasJSON(input.consentData) {
		entry.ConsentData = datatypes.JSON(input.consentData)
		entry.ConsentedAt = &now
	}
	if hasJSON(input.registrationData) {
		entry.RegistrationData = datatypes.JSON(input.registrationData)
	}

	if err := f.entryRepo.Save(ctx, entry); err != nil {
		if !repository.IsUniqueViolation(err) {
			logEvent("[EntryTrackFail]", map[string]any{
				"campaignId": campaign.UUID.String(),
				"requestId":  requestID(metadata),
				"sessionId":  input.attribution.SessionID,
				"reason":     "DB_INSERT_FAILED",
				"error":      err.Error(),
			})
			return nil, NewBusinessError("ENTRY_WRITE_FAILED", "Failed to save entry", err)
		}
		return nil, err
	}
	return entry, nil
}

func buildAnswers(submission *models.FormSubmission, answers []dto.SubmissionAnswerRequest) []*models.FormAnswer {
	rows := make([]*models.FormAnswer, 0, len(answers))
	for _, a := range answers {
		row := &models.FormAnswer{
			SubmissionID: submission.ID,
			FormID:       submission.FormID,
			QuestionID:   strings.TrimSpace(a.QuestionID),
			TextAnswer:   utils.TrimmedOrNil(a.TextAnswer),
		}
		if len(a.ChoiceIDs) > 0 {
			if raw, err := json.Marshal(a.ChoiceIDs); err == nil {
				row.ChoiceIDs = datatypes.JSON(raw)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func toAttributionInput(req dto.AttributionRequest) AttributionInput {
	return AttributionInput{
		UTM: models.UTMFields{
			UTMSource:   req.UTMSource,
			UTMMedium:   req.UTMMedium,
			UTMCampaign: req.UTMCampaign,
			UTMTerm:     req.UTMTerm,
			UTMContent:  req.UTMContent,
		},
		CID:                     req.CID,
		MarketingCampaignLinkID: req.MarketingCampaignLinkID,
		TrackingCookie:          req.TrackingCookie,
		FirstVisitAt:            req.UTMFirstVisitAt,
		Referrer:                req.UTMReferrer,
	}
}

func replayResponse(entry *models.SurveyEntry) *dto.SubmitEntryResponse {
	return &dto.SubmitEntryResponse{
		Success:          true,
		SurveyNo:         entry.SequenceNumber,
		Code6:            entry.ConfirmationCode,
		EntryID:          entry.UUID.String(),
		AlreadySubmitted: true,
	}
}

func hasJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
