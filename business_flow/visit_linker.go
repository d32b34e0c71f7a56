package businessflow

import (
	"context"
	"time"

	"github.com/amirphl/event-funnel/repository"
	"github.com/amirphl/event-funnel/utils"
)

// Visit link outcomes. Everything but VisitLinked is logged as [VisitMissingOnConvert].
const (
	VisitLinked               = "LINKED"
	VisitLinkNoSessionID      = "NO_SESSION_ID"
	VisitLinkNotFound         = "VISIT_NOT_FOUND"
	VisitLinkAlreadyConverted = "VISIT_ALREADY_CONVERTED"
	VisitLinkUpdateFailed     = "VISIT_UPDATE_FAILED"
)

// VisitLinker stitches the most recent unconverted visit of a session to a new entry.
// It is best-effort and never reports an error to the caller.
type VisitLinker interface {
	Link(ctx context.Context, campaignID uint, sessionID *string, entryID uint) string
}

type VisitLinkerImpl struct {
	visitRepo repository.CampaignVisitRepository
	now       func() time.Time
}

func NewVisitLinker(visitRepo repository.CampaignVisitRepository) VisitLinker {
	return &VisitLinkerImpl{visitRepo: visitRepo, now: utils.UTCNow}
}

func (l *VisitLinkerImpl) Link(ctx context.Context, campaignID uint, sessionID *string, entryID uint) string {
	session := utils.TrimmedOrNil(sessionID)
	if session == nil {
		l.report(campaignID, nil, entryID, VisitLinkNoSessionID, nil)
		return VisitLinkNoSessionID
	}

	visit, err := l.visitRepo.LatestUnconverted(ctx, campaignID, *session)
	if err != nil {
		l.report(campaignID, session, entryID, VisitLinkUpdateFailed, err)
		return VisitLinkUpdateFailed
	}
	if visit == nil {
		l.report(campaignID, session, entryID, VisitLinkNotFound, nil)
		return VisitLinkNotFound
	}

	updated, err := l.visitRepo.MarkConverted(ctx, visit.ID, entryID, l.now())
	if err != nil {
		l.report(campaignID, session, entryID, VisitLinkUpdateFailed, err)
		return VisitLinkUpdateFailed
	}
	if !updated {
		l.report(campaignID, session, entryID, VisitLinkAlreadyConverted, nil)
		return VisitLinkAlreadyConverted
	}
	return VisitLinked
}

func (l *VisitLinkerImpl) report(campaignID uint, sessionID *string, entryID uint, reason string, err error) {
	attributionDegradedTotal.WithLabelValues("visit_link").Inc()
	fields := map[string]any{
		"campaignId": campaignID,
		"sessionId":  sessionID,
		"entryId":    entryID,
		"reason":     reason,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	logEvent("[VisitMissingOnConvert]", fields)
}
