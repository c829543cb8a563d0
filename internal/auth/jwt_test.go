package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute/internal/auth"
)

func testJWTConfig() auth.JWTConfig {
	return auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "saferoute",
		Audience:   "saferoute-api",
	}
}

func TestJWTService_GenerateAndValidateAccessToken(t *testing.T) {
	svc := auth.NewJWTService(testJWTConfig())

	user := &auth.User{
		ID:        "usr_test123",
		Email:     "test@example.com",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(auth.DefaultAccessTokenExpiry), expiresAt, 5*time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, "saferoute", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_CustomExpiry(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Expiry = 15 * time.Minute
	svc := auth.NewJWTService(cfg)

	_, expiresAt, err := svc.GenerateAccessToken(&auth.User{ID: "usr_1"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := auth.NewJWTService(testJWTConfig())

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_ExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	past := time.Now().Add(-48 * time.Hour)
	claims := auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "usr_old",
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
		UserID: "usr_old",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SigningKey))
	require.NoError(t, err)

	_, err = auth.NewJWTService(cfg).ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	cfg := testJWTConfig()
	claims := auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "usr_1",
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: "usr_1",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = auth.NewJWTService(cfg).ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_MismatchedConfig(t *testing.T) {
	user := &auth.User{ID: "usr_test123"}
	token, _, err := auth.NewJWTService(testJWTConfig()).GenerateAccessToken(user)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*auth.JWTConfig)
	}{
		{"wrong signing key", func(c *auth.JWTConfig) { c.SigningKey = "another-key" }},
		{"wrong issuer", func(c *auth.JWTConfig) { c.Issuer = "someone-else" }},
		{"wrong audience", func(c *auth.JWTConfig) { c.Audience = "other-api" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testJWTConfig()
			tt.mutate(&cfg)
			_, err := auth.NewJWTService(cfg).ValidateAccessToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}
