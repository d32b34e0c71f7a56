package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/amirphl/event-funnel/app/dto"
	"github.com/amirphl/event-funnel/models"
	"github.com/amirphl/event-funnel/repository"
	"github.com/amirphl/event-funnel/utils"
	"github.com/xuri/excelize/v2"
)

const exportPageSize = 1000

var entryExportHeader = []string{
	"survey_no", "code6", "name", "company", "phone", "created_at",
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"utm_first_visit_at", "utm_referrer", "marketing_link_id", "consented_at",
}

// EntryExportFlow writes a campaign's entries to an xlsx workbook
type EntryExportFlow interface {
	Export(ctx context.Context, req *dto.ExportEntriesRequest) (*dto.ExportEntriesResponse, error)
}

type EntryExportFlowImpl struct {
	campaignRepo repository.SurveyCampaignRepository
	entryRepo    repository.SurveyEntryRepository
}

func NewEntryExportFlow(campaignRepo repository.SurveyCampaignRepository, entryRepo repository.SurveyEntryRepository) EntryExportFlow {
	return &EntryExportFlowImpl{campaignRepo: campaignRepo, entryRepo: entryRepo}
}

func (f *EntryExportFlowImpl) Export(ctx context.Context, req *dto.ExportEntriesRequest) (*dto.ExportEntriesResponse, error) {
	campaign, err := f.campaignRepo.ByUUID(ctx, req.CampaignID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil || campaign.ClientID != req.ClientID {
		return nil, ErrCampaignNotFound
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "entries"
	xl.SetSheetName(xl.GetSheetName(0), sheet)
	header := entryExportHeader
	if err := xl.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel header", err)
	}

	filter := models.SurveyEntryFilter{CampaignID: &campaign.ID}
	written := 0
	for offset := 0; ; offset += exportPageSize {
		rows, err := f.entryRepo.ByFilter(ctx, filter, "sequence_number ASC", exportPageSize, offset)
		if err != nil {
			return nil, NewBusinessError("FETCH_ENTRIES_FAILED", "Failed to fetch entries", err)
		}
		for _, e := range rows {
			record := entryRecord(e)
			cellRef, _ := excelize.CoordinatesToCellName(1, written+2)
			if err := xl.SetSheetRow(sheet, cellRef, &record); err != nil {
				return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel row", err)
			}
			written++
		}
		if len(rows) < exportPageSize {
			break
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return &dto.ExportEntriesResponse{
		Filename: fmt.Sprintf("entries_%s_%s.xlsx", campaign.UUID, utils.UTCNow().Format("20060102")),
		Content:  buf.Bytes(),
		Rows:     written,
	}, nil
}

func entryRecord(e *models.SurveyEntry) []string {
	linkID := ""
	if e.MarketingLinkID != nil {
		linkID = strconv.FormatUint(uint64(*e.MarketingLinkID), 10)
	}
	return []string{
		strconv.FormatInt(e.SequenceNumber, 10),
		e.ConfirmationCode,
		e.Name,
		utils.Deref(e.Company),
		e.PhoneNorm,
		e.CreatedAt.UTC().Format(time.RFC3339),
		utils.Deref(e.UTMSource),
		utils.Deref(e.UTMMedium),
		utils.Deref(e.UTMCampaign),
		utils.Deref(e.UTMTerm),
		utils.Deref(e.UTMContent),
		formatTimePtr(e.UTMFirstVisitAt),
		utils.Deref(e.UTMReferrer),
		linkID,
		formatTimePtr(e.ConsentedAt),
	}
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
