// Package services provides technical concerns behind the flows: token verification, caching and dedup on redis
package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/event-funnel/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token service error constants
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenService verifies the bearer tokens clients obtain from the hosted auth provider.
// Issuing is only used by tooling and tests.
type TokenService interface {
	GenerateClientToken(clientID uuid.UUID, clientName string, ttl time.Duration) (string, error)
	ValidateClientToken(token string) (*ClientTokenClaims, error)
}

// ClientTokenClaims represents the claims of a client access token
type ClientTokenClaims struct {
	ClientID   uuid.UUID `json:"client_id"`
	ClientName string    `json:"client_name"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	TokenID    string    `json:"jti"`
}

// TokenServiceImpl implements TokenService with an HS256 shared secret
type TokenServiceImpl struct {
	secretKey []byte
	issuer    string
	audience  string
	leeway    time.Duration
}

// NewTokenService creates a new token service. Empty issuer or audience disables that check.
func NewTokenService(secretKey, issuer, audience string, leeway time.Duration) (TokenService, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("secret key is required")
	}
	return &TokenServiceImpl{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		audience:  audience,
		leeway:    leeway,
	}, nil
}

func (s *TokenServiceImpl) GenerateClientToken(clientID uuid.UUID, clientName string, ttl time.Duration) (string, error) {
	now := utils.UTCNow()

	tokenID, err := generateTokenID()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"client_id": clientID.String(),
		"jti":       tokenID,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	if clientName != "" {
		claims["client_name"] = clientName
	}
	if s.issuer != "" {
		claims["iss"] = s.issuer
	}
	if s.audience != "" {
		claims["aud"] = s.audience
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
}

// ValidateClientToken validates a JWT token and returns claims
func (s *TokenServiceImpl) ValidateClientToken(token string) (*ClientTokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	claims := jwt.MapClaims{}
	parsedToken, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsedToken.Valid {
		return nil, ErrTokenInvalid
	}

	rawClientID, ok := claims["client_id"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}
	clientID, err := uuid.Parse(strings.TrimSpace(rawClientID))
	if err != nil || clientID == uuid.Nil {
		return nil, ErrTokenInvalid
	}

	result := &ClientTokenClaims{ClientID: clientID}
	if name, ok := claims["client_name"].(string); ok {
		result.ClientName = strings.TrimSpace(name)
	}
	if jti, ok := claims["jti"].(string); ok {
		result.TokenID = jti
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		result.IssuedAt = iat.UTC()
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		result.ExpiresAt = exp.UTC()
	}
	return result, nil
}

// generateTokenID generates a unique token ID
func generateTokenID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", bytes), nil
}
