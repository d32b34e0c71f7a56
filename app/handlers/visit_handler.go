package handlers

import (
	"log"
	"time"

	"github.com/amirphl/event-funnel/app/dto"
	businessflow "github.com/amirphl/event-funnel/business_flow"
	"github.com/amirphl/event-funnel/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// CookieSettings controls the session cookie written on visits
type CookieSettings struct {
	Secure     bool
	SameSite   string
	Domain     string
	SessionTTL time.Duration
}

type VisitHandlerInterface interface {
	RecordVisit(c fiber.Ctx) error
}

type VisitHandler struct {
	baseHandler
	flow    businessflow.VisitFlow
	cookies CookieSettings
}

func NewVisitHandler(flow businessflow.VisitFlow, cookies CookieSettings) *VisitHandler {
	return &VisitHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
		cookies:     cookies,
	}
}

// RecordVisit records a landing page visit
// @Summary Record campaign visit
// @Description Stores an anonymous visit so a later submission of the same session can be linked to it.
// @Description Storage failures still answer 200 with recorded=false.
// @Tags Public
// @Accept json
// @Produce json
// @Param campaignId path string true "Campaign UUID"
// @Param request body dto.RecordVisitRequest true "Visit"
// @Success 200 {object} dto.RecordVisitResponse
// @Failure 400 {object} dto.APIResponse "Missing session id"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/public/campaigns/{campaignId}/visit [post]
func (h *VisitHandler) RecordVisit(c fiber.Ctx) error {
	campaignID, err := uuid.Parse(c.Params("campaignId"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	var req dto.RecordVisitRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}
	if errs := h.validate(&req); errs != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", errs)
	}
	req.CampaignID = campaignID
	if utils.TrimmedOrNil(req.SessionID) == nil {
		if sid := c.Cookies(utils.SessionCookieName); sid != "" {
			req.SessionID = utils.ToPtr(sid)
		}
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/public/campaigns/"+campaignID.String()+"/visit")
	defer cancel()

	result, err := h.flow.RecordVisit(ctx, &req, h.clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsSessionIDRequired(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Session id is required", "SESSION_ID_REQUIRED", nil)
		case businessflow.IsCampaignNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		log.Printf("Record visit failed: %v", err)
		if be, ok := err.(*businessflow.BusinessError); ok {
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record visit", be.Code, nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record visit", "VISIT_RECORD_FAILED", nil)
	}

	if sid := utils.TrimmedOrNil(req.SessionID); sid != nil {
		h.setSessionCookie(c, *sid)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *VisitHandler) setSessionCookie(c fiber.Ctx, sessionID string) {
	if h.cookies.SessionTTL <= 0 || c.Cookies(utils.SessionCookieName) == sessionID {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     utils.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   int(h.cookies.SessionTTL.Seconds()),
		Secure:   h.cookies.Secure,
		HTTPOnly: false,
		SameSite: h.cookies.SameSite,
	})
}
