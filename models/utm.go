package models

// UTMFields is the attribution tuple shared by links, visits and entries.
// A nil field means the parameter was absent or blank.
type UTMFields struct {
	UTMSource   *string `gorm:"column:utm_source;size:255" json:"utm_source"`
	UTMMedium   *string `gorm:"column:utm_medium;size:255" json:"utm_medium"`
	UTMCampaign *string `gorm:"column:utm_campaign;size:255" json:"utm_campaign"`
	UTMTerm     *string `gorm:"column:utm_term;size:255" json:"utm_term"`
	UTMContent  *string `gorm:"column:utm_content;size:255" json:"utm_content"`
}

// IsEmpty reports whether no field is set
func (u UTMFields) IsEmpty() bool {
	return u.UTMSource == nil && u.UTMMedium == nil && u.UTMCampaign == nil && u.UTMTerm == nil && u.UTMContent == nil
}

// Merge returns u with every nil field taken from fallback
func (u UTMFields) Merge(fallback UTMFields) UTMFields {
	if u.UTMSource == nil {
		u.UTMSource = fallback.UTMSource
	}
	if u.UTMMedium == nil {
		u.UTMMedium = fallback.UTMMedium
	}
	if u.UTMCampaign == nil {
		u.UTMCampaign = fallback.UTMCampaign
	}
	if u.UTMTerm == nil {
		u.UTMTerm = fallback.UTMTerm
	}
	if u.UTMContent == nil {
		u.UTMContent = fallback.UTMContent
	}
	return u
}
