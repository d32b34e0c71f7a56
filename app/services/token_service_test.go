package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-32-chars"

// createTestTokenService creates a token service for testing with symmetric key
func createTestTokenService(t *testing.T) TokenService {
	t.Helper()
	service, err := NewTokenService(testSecret, "test-issuer", "test-audience", 0)
	require.NoError(t, err)
	return service
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name        string
		secretKey   string
		issuer      string
		audience    string
		expectError bool
	}{
		{name: "valid configuration", secretKey: testSecret, issuer: "test-issuer", audience: "test-audience"},
		{name: "missing secret key", secretKey: "", expectError: true},
		{name: "empty issuer and audience", secretKey: testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewTokenService(tt.secretKey, tt.issuer, tt.audience, time.Second)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, service)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, service)
			}
		})
	}
}

func TestValidateClientToken(t *testing.T) {
	service := createTestTokenService(t)
	clientID := uuid.New()

	valid, err := service.GenerateClientToken(clientID, " Acme Corp ", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, valid, "eyJ")

	t.Run("valid token", func(t *testing.T) {
		claims, err := service.ValidateClientToken(valid)
		require.NoError(t, err)
		assert.Equal(t, clientID, claims.ClientID)
		assert.Equal(t, "Acme Corp", claims.ClientName)
		assert.NotEmpty(t, claims.TokenID)
		assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := service.GenerateClientToken(clientID, "", -time.Minute)
		require.NoError(t, err)

		_, err = service.ValidateClientToken(expired)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenService("another-secret-key-for-jwt-signing-32", "test-issuer", "test-audience", 0)
		require.NoError(t, err)
		forged, err := other.GenerateClientToken(clientID, "", time.Hour)
		require.NoError(t, err)

		_, err = service.ValidateClientToken(forged)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other, err := NewTokenService(testSecret, "test-issuer", "someone-else", 0)
		require.NoError(t, err)
		token, err := other.GenerateClientToken(clientID, "", time.Hour)
		require.NoError(t, err)

		_, err = service.ValidateClientToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("missing client id", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
			"iss": "test-issuer",
			"aud": "test-audience",
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = service.ValidateClientToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("unsigned token", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"client_id": clientID.String(),
			"exp":       time.Now().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.ValidateClientToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	for _, malformed := range []string{"", "invalid.token.format", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature"} {
		t.Run("malformed "+malformed, func(t *testing.T) {
			_, err := service.ValidateClientToken(malformed)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}
