package businessflow

import (
	"encoding/json"
	"log"
	"time"

	"github.com/amirphl/event-funnel/app/dto"
	"github.com/amirphl/event-funnel/models"
)

// ClientMetadata holds request-scoped information about the caller
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

func requestID(metadata *ClientMetadata) string {
	if metadata == nil {
		return ""
	}
	return metadata.RequestID
}

// logEvent writes a tagged structured line, e.g. [VisitTrackFail] {"campaignId":...}
func logEvent(tag string, fields map[string]any) {
	fields["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	payload, err := json.Marshal(fields)
	if err != nil {
		log.Printf("%s %v", tag, fields)
		return
	}
	log.Printf("%s %s", tag, payload)
}

// ToMarketingLinkDTO converts a marketing link model for client responses
func ToMarketingLinkDTO(link *models.MarketingLink, shareURL, campaignURL string) dto.MarketingLinkDTO {
	return dto.MarketingLinkDTO{
		ID:          link.ID,
		UUID:        link.UUID.String(),
		Name:        link.Name,
		Channel:     link.Channel,
		CID:         link.CID,
		Status:      link.Status.String(),
		UTMSource:   link.UTMSource,
		UTMMedium:   link.UTMMedium,
		UTMCampaign: link.UTMCampaign,
		UTMTerm:     link.UTMTerm,
		UTMContent:  link.UTMContent,
		ShareURL:    shareURL,
		CampaignURL: campaignURL,
		CreatedAt:   link.CreatedAt.UTC().Format(time.RFC3339),
	}
}
