package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/wolfeidau/tracker/internal/models"
)

// DefaultIssuer is the JWT issuer used when none is configured.
const DefaultIssuer = "tracker"

// Claims are the JWT claims issued to users. The subject is the user ID.
type Claims struct {
	OrgID string      `json:"org,omitempty"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs ES256 access tokens for authenticated users.
type TokenIssuer struct {
	signingKey *ecdsa.PrivateKey
	issuer     string
	ttl        time.Duration
}

// NewTokenIssuer creates an issuer from a PEM-encoded ECDSA private key.
func NewTokenIssuer(signingKeyPEM string, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if signingKeyPEM == "" {
		return nil, errors.New("JWT signing key not provided")
	}

	signingKey, err := jwt.ParseECPrivateKeyFromPEM([]byte(signingKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}

	if issuer == "" {
		issuer = DefaultIssuer
	}

	return &TokenIssuer{signingKey: signingKey, issuer: issuer, ttl: ttl}, nil
}

// Issue creates a signed token for user and returns it with its expiry.
func (i *TokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(i.ttl)

	tokenID := uuid.Must(uuid.NewV7())

	claims := &Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        base58.Encode(tokenID[:]),
			Subject:   user.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    i.issuer,
		},
	}
	if user.OrgID != nil {
		claims.OrgID = user.OrgID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verifier returns a verifier for tokens signed by this issuer.
func (i *TokenIssuer) Verifier() *TokenVerifier {
	return &TokenVerifier{publicKey: &i.signingKey.PublicKey, issuer: i.issuer}
}

// GenerateSigningKey creates a new P-256 key pair and returns the private and
// public keys PEM encoded.
func GenerateSigningKey() (privatePEM string, publicPEM string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate key: %w", err)
	}

	privDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal private key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	privatePEM = string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: privDER}))
	publicPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))

	return privatePEM, publicPEM, nil
}
