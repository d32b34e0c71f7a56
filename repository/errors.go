package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

// Unique constraint names from migrations/000001_init.up.sql
const (
	ConstraintEntryCampaignPhone = "uk_survey_entries_campaign_phone"
	ConstraintEntryCampaignSeq   = "uk_survey_entries_campaign_seq"
	ConstraintEntryCampaignCode  = "uk_survey_entries_campaign_code"
	ConstraintMarketingLinkCID   = "uk_marketing_links_client_cid_active"
)

// IsUniqueViolation reports whether err carries SQLSTATE 23505 from either postgres driver
func IsUniqueViolation(err error) bool {
	_, ok := uniqueViolation(err)
	return ok
}

// ViolatedConstraint returns the constraint name of a unique violation, or "" when
// err is not one or the driver did not report it
func ViolatedConstraint(err error) string {
	name, _ := uniqueViolation(err)
	return name
}

func uniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
		return pqErr.Constraint, true
	}
	return "", false
}
