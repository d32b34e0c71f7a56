package utils

import (
	"time"
)

// Request context keys populated by handlers
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserAgentKey ContextKey = "user_agent"
	IPAddressKey ContextKey = "ip_address"
	EndpointKey  ContextKey = "endpoint"
	TimeoutKey   ContextKey = "timeout"
)

// Tracking defaults
const (
	// ConfirmationCodeLength is the length of survey confirmation codes
	ConfirmationCodeLength = 6

	// ConfirmationCodeAlphabet is the 36-character alphabet codes are drawn from
	ConfirmationCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// DefaultCodeAttempts bounds the collision-retry loop of the code generator
	DefaultCodeAttempts = 100

	// DefaultCIDAttempts bounds the collision-retry loop of CID generation
	DefaultCIDAttempts = 10

	// DefaultCookieTrustWindow is how long a tracking cookie is honored
	DefaultCookieTrustWindow = 24 * time.Hour

	// TrackingCookieName carries {cid, utm_*, captured_at} set by the landing page
	TrackingCookieName = "ef_tracking"

	// SessionCookieName carries the anonymous session id
	SessionCookieName = "ef_session_id"
)
