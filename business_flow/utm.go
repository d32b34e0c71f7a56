package businessflow

import (
	"fmt"
	"time"

	"github.com/amirphl/event-funnel/models"
	"github.com/amirphl/event-funnel/utils"
)

// NormalizeUTM trims every field; absent or blank values become nil
func NormalizeUTM(raw models.UTMFields) models.UTMFields {
	return models.UTMFields{
		UTMSource:   utils.TrimmedOrNil(raw.UTMSource),
		UTMMedium:   utils.TrimmedOrNil(raw.UTMMedium),
		UTMCampaign: utils.TrimmedOrNil(raw.UTMCampaign),
		UTMTerm:     utils.TrimmedOrNil(raw.UTMTerm),
		UTMContent:  utils.TrimmedOrNil(raw.UTMContent),
	}
}

// TryNormalizeUTM is NormalizeUTM behind a recover; on failure it returns an empty tuple
func TryNormalizeUTM(raw models.UTMFields) (utm models.UTMFields, err error) {
	defer func() {
		if r := recover(); r != nil {
			utm = models.UTMFields{}
			err = fmt.Errorf("utm normalization panicked: %v", r)
		}
	}()
	return NormalizeUTM(raw), nil
}

// parseFirstVisitAt accepts RFC3339 timestamps; anything else is dropped
func parseFirstVisitAt(raw *string) *time.Time {
	s := utils.TrimmedOrNil(raw)
	if s == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return utils.TimeToUTCPtr(&t)
}
