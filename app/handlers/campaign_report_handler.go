package handlers

import (
	"log"
	"strconv"

	"github.com/amirphl/event-funnel/app/dto"
	"github.com/amirphl/event-funnel/app/middleware"
	businessflow "github.com/amirphl/event-funnel/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CampaignReportHandlerInterface defines the client reporting endpoints
type CampaignReportHandlerInterface interface {
	ExportEntries(c fiber.Ctx) error
	ListMarketingStats(c fiber.Ctx) error
}

type CampaignReportHandler struct {
	baseHandler
	exportFlow businessflow.EntryExportFlow
	statsFlow  businessflow.MarketingStatsFlow
}

func NewCampaignReportHandler(exportFlow businessflow.EntryExportFlow, statsFlow businessflow.MarketingStatsFlow) *CampaignReportHandler {
	return &CampaignReportHandler{
		baseHandler: newBaseHandler(),
		exportFlow:  exportFlow,
		statsFlow:   statsFlow,
	}
}

// ExportEntries downloads the campaign entries as xlsx
// @Summary Export campaign entries
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param campaignId path string true "Campaign UUID"
// @Success 200 {file} file "Excel workbook"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/campaigns/{campaignId}/entries/export [get]
func (h *CampaignReportHandler) ExportEntries(c fiber.Ctx) error {
	clientID, ok := middleware.GetClientIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Client ID not found in context", "MISSING_CLIENT_ID", nil)
	}
	campaignID, err := uuid.Parse(c.Params("campaignId"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/campaigns/"+campaignID.String()+"/entries/export")
	defer cancel()

	result, err := h.exportFlow.Export(ctx, &dto.ExportEntriesRequest{ClientID: clientID, CampaignID: campaignID})
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		log.Printf("Export entries failed: %v", err)
		if be, ok := err.(*businessflow.BusinessError); ok {
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export entries", be.Code, nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export entries", "EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", xlsxContentType)
	c.Set("Content-Disposition", "attachment; filename="+result.Filename)
	c.Set("X-Total-Rows", strconv.Itoa(result.Rows))
	return c.Send(result.Content)
}

// ListMarketingStats returns the daily stats rollup of a campaign
// @Summary List marketing stats
// @Description Defaults to the last 30 days. Dates are UTC days formatted 2006-01-02.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param campaignId path string true "Campaign UUID"
// @Param from query string false "First day"
// @Param to query string false "Last day"
// @Success 200 {object} dto.APIResponse{data=dto.ListMarketingStatsResponse}
// @Failure 400 {object} dto.APIResponse "Invalid date range"
// @Failure 404 {object} dto.APIResponse "Campaign not found"
// @Router /api/v1/campaigns/{campaignId}/marketing-stats [get]
func (h *CampaignReportHandler) ListMarketingStats(c fiber.Ctx) error {
	clientID, ok := middleware.GetClientIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Client ID not found in context", "MISSING_CLIENT_ID", nil)
	}
	campaignID, err := uuid.Parse(c.Params("campaignId"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign id", "INVALID_CAMPAIGN_ID", nil)
	}

	var req dto.ListMarketingStatsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if errs := h.validate(&req); errs != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", errs)
	}
	req.ClientID = clientID
	req.CampaignID = campaignID

	ctx, cancel := h.createRequestContext(c, "/api/v1/campaigns/"+campaignID.String()+"/marketing-stats")
	defer cancel()

	result, err := h.statsFlow.List(ctx, &req)
	if err != nil {
		switch {
		case businessflow.IsInvalidDateRange(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", "INVALID_DATE_RANGE", nil)
		case businessflow.IsCampaignNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		log.Printf("List marketing stats failed: %v", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list marketing stats", "STATS_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Marketing stats retrieved successfully", result)
}
