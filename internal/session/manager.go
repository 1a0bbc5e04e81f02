package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const issuer = "fil-vote"

// ErrMissingSecret is returned when a manager is created without a signing key
var ErrMissingSecret = errors.New("session signing secret is required")

// Manager issues and validates session tokens
type Manager struct {
	signingKey []byte
	algorithm  string
	keyID      string
	ttl        time.Duration
	tracer     trace.Tracer
}

// Claims identifies a dashboard session. The session id is the subject.
type Claims struct {
	jwt.RegisteredClaims
}

// NewManager creates a manager signing with HS256
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Manager{
		signingKey: []byte(secret),
		algorithm:  jwt.SigningMethodHS256.Alg(),
		keyID:      "default",
		ttl:        ttl,
		tracer:     otel.Tracer("fil-vote/session"),
	}, nil
}

// RandomSecret returns a fresh 256-bit signing secret. Tokens signed with it
// do not survive a restart, which matches the lifetime of session state.
func RandomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// TTL is the lifetime of issued tokens
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for sessionID
func (m *Manager) Issue(ctx context.Context, sessionID string) (string, error) {
	_, span := m.tracer.Start(ctx, "session.issue_token")
	defer span.End()

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   sessionID,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(m.algorithm), claims)
	token.Header["kid"] = m.keyID

	tokenString, err := token.SignedString(m.signingKey)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("jwt.id", claims.ID),
	)
	return tokenString, nil
}

// Validate parses tokenString and returns its claims if the signature,
// issuer and expiry check out.
func (m *Manager) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	_, span := m.tracer.Start(ctx, "session.validate_token")
	defer span.End()

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != m.algorithm {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.signingKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	span.SetAttributes(attribute.String("session.id", claims.Subject))
	return claims, nil
}
