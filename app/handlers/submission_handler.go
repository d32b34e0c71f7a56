package handlers

import (
	"log"

	"github.com/amirphl/event-funnel/app/dto"
	businessflow "github.com/amirphl/event-funnel/business_flow"
	"github.com/amirphl/event-funnel/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// SubmissionHandlerInterface defines the public conversion endpoints
type SubmissionHandlerInterface interface {
	Submit(c fiber.Ctx) error
	Register(c fiber.Ctx) error
}

type SubmissionHandler struct {
	baseHandler
	flow businessflow.SubmissionFlow
}

func NewSubmissionHandler(flow businessflow.SubmissionFlow) *SubmissionHandler {
	return &SubmissionHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// Submit Survey Entry
// @Summary Submit survey
// @Description Public survey submission. Replays the original survey number when the phone already submitted.
// @Tags Public
// @Accept json
// @Produce json
// @Param campaignId path string true "Campaign UUID"
// @Param request body dto.SubmitEntryRequest true "Submission"
// @Success 200 {object} dto.SubmitEntryResponse
// @Failure 400 {object} dto.APIResponse "Validation error, form not configured"
// @Failure 404 {object} dto.APIResponse "Campaign not found or not active"
// @Failure 409 {object} dto.APIResponse "Concurrent submission, retry"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/public/campaigns/{campaignId}/submit [post]
func (h *SubmissionHandler) Submit(c fiber.Ctx) error {
	campaignID, err := uuid.Parse(c.Params("campaignId"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	var req dto.SubmitEntryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if errs := h.validate(&req); errs != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", errs)
	}
	req.CampaignID = campaignID
	applyTrackingCookies(c, &req.AttributionRequest)

	ctx, cancel := h.createRequestContext(c, "/api/v1/public/campaigns/"+campaignID.String()+"/submit")
	defer cancel()

	result, err := h.flow.Submit(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.submissionError(c, err, "Failed to submit survey")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// Register Entry
// @Summary Register for an event
// @Description Public registration. The confirmation code is the zero-padded registration number.
// @Tags Public
// @Accept json
// @Produce json
// @Param campaignId path string true "Campaign UUID"
// @Param request body dto.RegisterEntryRequest true "Registration"
// @Success 200 {object} dto.SubmitEntryResponse
// @Failure 400 {object} dto.APIResponse "Validation error, not a registration campaign"
// @Failure 404 {object} dto.APIResponse "Campaign not found or not active"
// @Failure 409 {object} dto.APIResponse "Concurrent registration, retry"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/public/campaigns/{campaignId}/register [post]
func (h *SubmissionHandler) Register(c fiber.Ctx) error {
	campaignID, err := uuid.Parse(c.Params("campaignId"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	var req dto.RegisterEntryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if errs := h.validate(&req); errs != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", errs)
	}
	req.CampaignID = campaignID
	applyTrackingCookies(c, &req.AttributionRequest)

	ctx, cancel := h.createRequestContext(c, "/api/v1/public/campaigns/"+campaignID.String()+"/register")
	defer cancel()

	result, err := h.flow.Register(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.submissionError(c, err, "Failed to register")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *SubmissionHandler) submissionError(c fiber.Ctx, err error, fallback string) error {
	switch {
	case businessflow.IsSubmissionValidation(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", []string{err.Error()})
	case businessflow.IsFormNotConfigured(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign has no form configured", "FORM_NOT_CONFIGURED", nil)
	case businessflow.IsNotRegistrationType(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign does not accept registrations", "NOT_REGISTRATION_CAMPAIGN", nil)
	case businessflow.IsNotSurveyType(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign does not accept survey submissions", "NOT_SURVEY_CAMPAIGN", nil)
	case businessflow.IsCampaignNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
	case businessflow.IsSequenceContention(err):
		c.Set(fiber.HeaderRetryAfter, "1")
		return h.ErrorResponse(c, fiber.StatusConflict, "Another submission was processed at the same time. Please retry.", "SEQUENCE_CONTENTION", nil)
	case businessflow.IsConfirmationCodeExhausted(err):
		log.Printf("Confirmation code exhausted: %v", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Could not allocate a confirmation code", "CONFIRMATION_CODE_EXHAUSTED", nil)
	}

	if be, ok := err.(*businessflow.BusinessError); ok {
		log.Printf("Submission failed: %v", be)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, fallback, be.Code, nil)
	}
	log.Printf("Submission failed: %v", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallback, "SUBMISSION_FAILED", nil)
}

// applyTrackingCookies fills the session id and tracking cookie the landing page stored
func applyTrackingCookies(c fiber.Ctx, attribution *dto.AttributionRequest) {
	if utils.TrimmedOrNil(attribution.SessionID) == nil {
		if sid := c.Cookies(utils.SessionCookieName); sid != "" {
			attribution.SessionID = utils.ToPtr(sid)
		}
	}
	if raw := c.Cookies(utils.TrackingCookieName); raw != "" {
		attribution.TrackingCookie = utils.ToPtr(raw)
	}
}
