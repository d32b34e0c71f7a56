package handlers

import (
	"log"

	"github.com/amirphl/event-funnel/app/dto"
	"github.com/amirphl/event-funnel/app/middleware"
	businessflow "github.com/amirphl/event-funnel/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// MarketingLinkHandlerInterface defines the client-facing marketing link endpoints
type MarketingLinkHandlerInterface interface {
	ListTemplates(c fiber.Ctx) error
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	UpdateStatus(c fiber.Ctx) error
}

type MarketingLinkHandler struct {
	baseHandler
	flow businessflow.MarketingLinkFlow
}

func NewMarketingLinkHandler(flow businessflow.MarketingLinkFlow) *MarketingLinkHandler {
	return &MarketingLinkHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// ListTemplates returns the channel presets
// @Summary List marketing link templates
// @Tags MarketingLinks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ListMarketingLinkTemplatesResponse}
// @Router /api/v1/marketing-links/templates [get]
func (h *MarketingLinkHandler) ListTemplates(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/marketing-links/templates")
	defer cancel()
	return h.SuccessResponse(c, fiber.StatusOK, "Templates retrieved successfully", h.flow.ListTemplates(ctx))
}

// Create Marketing Link
// @Summary Create marketing link
// @Description Creates a tracked link with a generated cid. utm_campaign is generated when omitted.
// @Tags MarketingLinks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param campaignId path string true "Campaign UUID"
// @Param request body dto.CreateMarketingLinkRequest true "Link"
// @Success 201 {object} dto.APIResponse{data=dto.CreateMarketingLinkResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 409 {object} dto.APIResponse "CID conflict"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{campaignId}/marketing-links [post]
func (h *MarketingLinkHandler) Create(c fiber.Ctx) error {
	clientID, ok := middleware.GetClientIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Client ID not found in context", "MISSING_CLIENT_ID", nil)
	}
	campaignID, err := uuid.Parse(c.Params("campaignId"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	var req dto.CreateMarketingLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if errs := h.validate(&req); errs != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", errs)
	}
	req.ClientID = clientID
	req.ClientName = middleware.GetClientNameFromContext(c)
	req.CampaignID = campaignID

	ctx, cancel := h.createRequestContext(c, "/api/v1/campaigns/"+campaignID.String()+"/marketing-links")
	defer cancel()

	result, err := h.flow.Create(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.linkError(c, err, "Failed to create marketing link", "MARKETING_LINK_CREATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// List Marketing Links
// @Summary List marketing links of a campaign
// @Tags MarketingLinks
// @Produce json
// @Security BearerAuth
// @Param campaignId path string true "Campaign UUID"
// @Param status query string false "active, paused or archived"
// @Success 200 {object} dto.APIResponse{data=dto.ListMarketingLinksResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/campaigns/{campaignId}/marketing-links [get]
func (h *MarketingLinkHandler) List(c fiber.Ctx) error {
	clientID, ok := middleware.GetClientIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Client ID not found in context", "MISSING_CLIENT_ID", nil)
	}
	campaignID, err := uuid.Parse(c.Params("campaignId"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	var req dto.ListMarketingLinksRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if errs := h.validate(&req); errs != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", errs)
	}
	req.ClientID = clientID
	req.CampaignID = campaignID

	ctx, cancel := h.createRequestContext(c, "/api/v1/campaigns/"+campaignID.String()+"/marketing-links")
	defer cancel()

	result, err := h.flow.List(ctx, &req)
	if err != nil {
		return h.linkError(c, err, "Failed to list marketing links", "MARKETING_LINK_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Marketing links retrieved successfully", result)
}

// UpdateStatus pauses, archives or reactivates a link
// @Summary Update marketing link status
// @Tags MarketingLinks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param linkId path string true "Marketing link UUID"
// @Param request body dto.UpdateMarketingLinkStatusRequest true "Status"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateMarketingLinkStatusResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Link not found"
// @Failure 409 {object} dto.APIResponse "Another active link uses the cid"
// @Router /api/v1/marketing-links/{linkId}/status [patch]
func (h *MarketingLinkHandler) UpdateStatus(c fiber.Ctx) error {
	clientID, ok := middleware.GetClientIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Client ID not found in context", "MISSING_CLIENT_ID", nil)
	}
	linkID, err := uuid.Parse(c.Params("linkId"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid link id", "INVALID_LINK_ID", nil)
	}

	var req dto.UpdateMarketingLinkStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if errs := h.validate(&req); errs != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", errs)
	}
	req.ClientID = clientID
	req.LinkID = linkID

	ctx, cancel := h.createRequestContext(c, "/api/v1/marketing-links/"+linkID.String()+"/status")
	defer cancel()

	result, err := h.flow.UpdateStatus(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.linkError(c, err, "Failed to update marketing link", "MARKETING_LINK_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *MarketingLinkHandler) linkError(c fiber.Ctx, err error, message, fallbackCode string) error {
	switch {
	case businessflow.IsLinkNameRequired(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Link name is required", "LINK_NAME_REQUIRED", nil)
	case businessflow.IsInvalidChannel(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown channel", "INVALID_CHANNEL", nil)
	case businessflow.IsInvalidLinkStatus(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid link status", "INVALID_LINK_STATUS", nil)
	case businessflow.IsCampaignNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
	case businessflow.IsMarketingLinkNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Marketing link not found", "MARKETING_LINK_NOT_FOUND", nil)
	case businessflow.IsCIDConflict(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "The cid is already used by an active link", "CID_CONFLICT", nil)
	case businessflow.IsCIDExhausted(err):
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Could not generate a unique cid", "CID_EXHAUSTED", nil)
	}

	log.Printf("%s: %v", message, err)
	if be, ok := err.(*businessflow.BusinessError); ok {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, message, be.Code, nil)
	}
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, fallbackCode, nil)
}
