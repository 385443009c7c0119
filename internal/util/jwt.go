package util

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by session JWTs minted by the auth service. The user id is
// the registered subject.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// LooksLikeJWT reports whether token has the three dot-separated segments of
// a compact JWS. Opaque session tokens never do.
func LooksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

func parsePublicKey(pemKey string) (any, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("failed to decode PEM block containing public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return pub, nil
}

// ParseECDSAPublicKey parses a PEM-encoded ECDSA public key
func ParseECDSAPublicKey(pemKey string) (*ecdsa.PublicKey, error) {
	pub, err := parsePublicKey(pemKey)
	if err != nil {
		return nil, err
	}
	ecdsaPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not ECDSA")
	}
	return ecdsaPub, nil
}

// ParseRSAPublicKey parses a PEM-encoded RSA public key
func ParseRSAPublicKey(pemKey string) (*rsa.PublicKey, error) {
	pub, err := parsePublicKey(pemKey)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return rsaPub, nil
}

// keyFuncFor picks the verification key from the algorithm in the token
// header. keyMaterial is a shared secret for HS* and a PEM public key otherwise.
func keyFuncFor(alg, keyMaterial string) (jwt.Keyfunc, error) {
	switch alg {
	case "HS256", "HS384", "HS512":
		secret := []byte(keyMaterial)
		return func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v (expected HMAC)", token.Header["alg"])
			}
			return secret, nil
		}, nil

	case "RS256", "RS384", "RS512":
		publicKey, err := ParseRSAPublicKey(keyMaterial)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
		}
		return func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v (expected RSA)", token.Header["alg"])
			}
			return publicKey, nil
		}, nil

	case "ES256", "ES384", "ES512":
		publicKey, err := ParseECDSAPublicKey(keyMaterial)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ECDSA public key: %w", err)
		}
		return func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v (expected ECDSA)", token.Header["alg"])
			}
			return publicKey, nil
		}, nil
	}
	return nil, fmt.Errorf("unsupported signing algorithm: %s", alg)
}

// ValidateJWT verifies tokenString against keyMaterial and returns its claims.
// Tokens without a subject are rejected.
func ValidateJWT(tokenString string, keyMaterial string) (*Claims, error) {
	unverified, _, err := jwt.NewParser().ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token header: %w", err)
	}
	alg, ok := unverified.Header["alg"].(string)
	if !ok {
		return nil, errors.New("token header missing 'alg' field")
	}

	keyFunc, err := keyFuncFor(alg, keyMaterial)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
