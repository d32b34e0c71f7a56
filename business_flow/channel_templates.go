package businessflow

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// ChannelTemplate presets the utm_source/utm_medium of a new marketing link
type ChannelTemplate struct {
	ID                string
	Name              string
	UTMSource         string
	UTMMedium         string
	PreferredLinkType string
}

const (
	linkTypeShare    = "share"
	linkTypeCampaign = "campaign"
)

var channelTemplates = []ChannelTemplate{
	{ID: "newsletter", Name: "Newsletter", UTMSource: "newsletter", UTMMedium: "email", PreferredLinkType: linkTypeCampaign},
	{ID: "sms", Name: "SMS / messenger", UTMSource: "sms", UTMMedium: "sms", PreferredLinkType: linkTypeShare},
	{ID: "google", Name: "Google Ads", UTMSource: "google", UTMMedium: "cpc", PreferredLinkType: linkTypeCampaign},
	{ID: "meta", Name: "Meta Ads", UTMSource: "facebook", UTMMedium: "cpc", PreferredLinkType: linkTypeCampaign},
	{ID: "partner", Name: "Partner / affiliate", UTMSource: "partner", UTMMedium: "referral", PreferredLinkType: linkTypeShare},
	{ID: "custom", Name: "Custom", PreferredLinkType: linkTypeCampaign},
}

// channel keywords used to guess a channel from the link name of custom links
var channelKeywords = []struct {
	channel  string
	keywords []string
}{
	{"newsletter", []string{"newsletter", "뉴스레터"}},
	{"sms", []string{"sms", "문자"}},
	{"google", []string{"google", "구글"}},
	{"meta", []string{"meta", "facebook", "메타"}},
	{"partner", []string{"partner", "파트너"}},
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9\p{Hangul}]+`)

func channelTemplate(id string) (ChannelTemplate, bool) {
	for _, t := range channelTemplates {
		if t.ID == id {
			return t, true
		}
	}
	return ChannelTemplate{}, false
}

// GenerateUTMCampaign builds {client_slug}_{target_slug}_{yyyymm}_{channel}; empty parts are skipped
func GenerateUTMCampaign(linkName, clientName, campaignTitle, channel string, at time.Time) string {
	if channel == "" || channel == "custom" {
		channel = guessChannel(linkName)
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{
		slugify(clientName, 20),
		slugify(campaignTitle, 30),
		at.UTC().Format("200601"),
		channel,
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return truncateRunes(strings.Join(parts, "_"), 200)
}

func guessChannel(linkName string) string {
	lower := strings.ToLower(linkName)
	for _, c := range channelKeywords {
		for _, k := range c.keywords {
			if strings.Contains(lower, k) {
				return c.channel
			}
		}
	}
	return "custom"
}

func slugify(s string, max int) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(s), "_")
	slug = strings.Trim(slug, "_")
	return strings.TrimRight(truncateRunes(slug, max), "_")
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
