// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/amirphl/event-funnel/app/dto"
	"github.com/amirphl/event-funnel/app/services"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// Locals keys set by Authenticate
const (
	ClientIDKey     = "client_id"
	ClientNameKey   = "client_name"
	TokenClaimsKey  = "token_claims"
	RequestIDLocals = "request_id"
)

// AuthMiddleware verifies bearer tokens issued by the hosted auth provider
type AuthMiddleware struct {
	tokenService services.TokenService
}

func NewAuthMiddleware(tokenService services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

func unauthorized(c fiber.Ctx, message, code string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: code,
		},
	})
}

// Authenticate validates the client token and stores the client identity in Locals
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required", "MISSING_AUTHORIZATION_HEADER")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "Invalid authorization header format. Expected 'Bearer <token>'", "INVALID_AUTHORIZATION_FORMAT")
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return unauthorized(c, "Access token is required", "MISSING_ACCESS_TOKEN")
		}

		claims, err := m.tokenService.ValidateClientToken(token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				return unauthorized(c, "Access token has expired", "TOKEN_EXPIRED")
			case errors.Is(err, services.ErrTokenInvalid):
				return unauthorized(c, "Invalid access token", "TOKEN_INVALID")
			default:
				return unauthorized(c, "Token validation failed", "TOKEN_VALIDATION_FAILED")
			}
		}

		c.Locals(ClientIDKey, claims.ClientID)
		c.Locals(ClientNameKey, claims.ClientName)
		c.Locals(TokenClaimsKey, claims)

		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals(RequestIDLocals, requestID)
		}

		return c.Next()
	}
}

// GetClientIDFromContext extracts the authenticated client id
func GetClientIDFromContext(c fiber.Ctx) (uuid.UUID, bool) {
	clientID, ok := c.Locals(ClientIDKey).(uuid.UUID)
	if !ok || clientID == uuid.Nil {
		return uuid.Nil, false
	}
	return clientID, true
}

// GetClientNameFromContext returns the optional display name of the client
func GetClientNameFromContext(c fiber.Ctx) string {
	name, _ := c.Locals(ClientNameKey).(string)
	return name
}

func GetTokenClaimsFromContext(c fiber.Ctx) (*services.ClientTokenClaims, bool) {
	claims, ok := c.Locals(TokenClaimsKey).(*services.ClientTokenClaims)
	return claims, ok
}

// RequireClient ensures a client identity is present
func RequireClient(c fiber.Ctx) error {
	if _, ok := GetClientIDFromContext(c); !ok {
		return unauthorized(c, "Authentication required", "AUTHENTICATION_REQUIRED")
	}
	return nil
}
