package util

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publicPEM(t *testing.T, pub any) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func claims(sub string, exp time.Time) Claims {
	return Claims{
		Email:            "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: sub, ExpiresAt: jwt.NewNumericDate(exp)},
	}
}

func TestLooksLikeJWT(t *testing.T) {
	assert.True(t, LooksLikeJWT("a.b.c"))
	assert.False(t, LooksLikeJWT("opaque"))
	assert.False(t, LooksLikeJWT("token.signature"))
}

func TestValidateJWTHMAC(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims("u1", time.Now().Add(time.Hour)))
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	c, err := ValidateJWT(s, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", c.Subject)
	assert.Equal(t, "a@example.com", c.Email)

	_, err = ValidateJWT(s, "other")
	assert.Error(t, err)
}

func TestValidateJWTECDSA(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	s, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims("u1", time.Now().Add(time.Hour))).SignedString(key)
	require.NoError(t, err)

	c, err := ValidateJWT(s, publicPEM(t, &key.PublicKey))
	require.NoError(t, err)
	assert.Equal(t, "u1", c.Subject)
}

func TestValidateJWTRSA(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims("u1", time.Now().Add(time.Hour))).SignedString(key)
	require.NoError(t, err)

	_, err = ValidateJWT(s, publicPEM(t, &key.PublicKey))
	require.NoError(t, err)

	_, err = ParseECDSAPublicKey(publicPEM(t, &key.PublicKey))
	assert.Error(t, err)
}

func TestValidateJWTRejects(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims("u1", time.Now().Add(-time.Hour))).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ValidateJWT(expired, "secret")
	assert.Error(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims("", time.Now().Add(time.Hour))).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ValidateJWT(noSubject, "secret")
	assert.Error(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ValidateJWT(noExpiry, "secret")
	assert.Error(t, err)

	_, err = ValidateJWT("not-a-jwt", "secret")
	assert.Error(t, err)
}
