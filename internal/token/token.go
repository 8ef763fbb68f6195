// Package token issues and decodes the stateless session artifact. Tokens
// are self-verifying: decoding never consults the identity store, so a role
// change to the underlying identity has no effect on tokens already issued.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuerName = "meridian"

var (
	// ErrInvalidToken indicates a bad signature or malformed structure.
	ErrInvalidToken = errors.New("token: invalid token")
	// ErrExpiredToken indicates a well-formed token past its expiry.
	ErrExpiredToken = errors.New("token: expired token")
	// ErrMissingSecret indicates the issuer was constructed without a signing secret.
	ErrMissingSecret = errors.New("token: signing secret is required")
)

// PTOBalances carries the paid-time-off claim values, in hours.
type PTOBalances struct {
	Vacation float64 `json:"vacation"`
	Sick     float64 `json:"sick"`
	Personal float64 `json:"personal"`
}

// Claims is the fixed claim set packed into every session token. Immutable
// once issued; used read-only for its lifetime.
type Claims struct {
	Email            string      `json:"email"`
	Role             string      `json:"role"`
	EmploymentType   string      `json:"employment_type"`
	OnboardingStatus string      `json:"onboarding_status"`
	PTO              PTOBalances `json:"pto"`
	jwt.RegisteredClaims
}

// SubjectID returns the identity id the token was issued for.
func (c *Claims) SubjectID() string {
	return c.Subject
}

// Issuer signs and validates session tokens using HS256.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer constructs an Issuer. An empty secret or non-positive lifetime
// fails here at startup, never per request.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, errors.New("token: lifetime must be greater than zero")
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// TTL exposes the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// IssueInput is the identity slice packaged into a token at login.
type IssueInput struct {
	SubjectID        string
	Email            string
	Role             string
	EmploymentType   string
	OnboardingStatus string
	PTO              PTOBalances
}

// Issue signs a token carrying exactly the fixed claim set, with
// issued-at = now and expires-at = now + the configured lifetime.
func (i *Issuer) Issue(in IssueInput) (string, error) {
	if strings.TrimSpace(in.SubjectID) == "" {
		return "", errors.New("token: subject id is required")
	}
	now := time.Now().UTC()
	claims := Claims{
		Email:            in.Email,
		Role:             in.Role,
		EmploymentType:   in.EmploymentType,
		OnboardingStatus: in.OnboardingStatus,
		PTO:              in.PTO,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   in.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and structure of a token and returns its
// claims. Fails with ErrExpiredToken when expires-at <= now and with
// ErrInvalidToken for every other defect.
func (i *Issuer) Decode(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := validateClaims(claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func validateClaims(claims *Claims) error {
	if claims.Issuer != issuerName {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}
