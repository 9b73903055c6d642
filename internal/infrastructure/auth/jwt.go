package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingTenantID  = errors.New("missing tenant_id in claims")
	ErrMissingSubject   = errors.New("missing operator in claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// Claims carries the operator identity a POS terminal presents on every
// request. StoreID is empty for back-office operators not bound to a store.
type Claims struct {
	jwt.RegisteredClaims
	TenantID     string   `json:"tenant_id"`
	StoreID      string   `json:"store_id,omitempty"`
	OperatorName string   `json:"operator_name,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// IssuedToken is a signed access token together with its expiry
type IssuedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"` // Bearer
}

// TokenService signs and validates operator access tokens
type TokenService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewTokenService creates a token service from configuration
func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		secret:     []byte(cfg.Secret),
		expiration: cfg.AccessTokenExpiration,
		issuer:     cfg.Issuer,
	}
}

// IssueTokenInput contains input for token issuance
type IssueTokenInput struct {
	TenantID     uuid.UUID
	OperatorID   uuid.UUID
	OperatorName string
	StoreID      uuid.UUID
	Capabilities shared.CapabilitySet
}

// IssueToken signs an access token for a terminal operator
func (s *TokenService) IssueToken(input IssueTokenInput) (*IssuedToken, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiration)

	storeID := ""
	if input.StoreID != uuid.Nil {
		storeID = input.StoreID.String()
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.OperatorID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID:     input.TenantID.String(),
		StoreID:      storeID,
		OperatorName: input.OperatorName,
		Capabilities: capabilityStrings(input.Capabilities),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &IssuedToken{
		AccessToken: signed,
		ExpiresAt:   expiresAt,
		TokenType:   "Bearer",
	}, nil
}

// ValidateToken verifies the signature and standard claims of an access
// token and returns its claims
func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if claims.TenantID == "" {
		return nil, ErrMissingTenantID
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return claims, nil
}

// AccessTokenExpiration returns the configured token lifetime
func (s *TokenService) AccessTokenExpiration() time.Duration {
	return s.expiration
}

// TenantUUID extracts and parses the tenant ID from claims
func (c *Claims) TenantUUID() (uuid.UUID, error) {
	return uuid.Parse(c.TenantID)
}

// OperatorUUID extracts and parses the operator ID from claims
func (c *Claims) OperatorUUID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// StoreUUID parses the store ID from claims. Returns uuid.Nil without error
// when the operator is not bound to a store.
func (c *Claims) StoreUUID() (uuid.UUID, error) {
	if c.StoreID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(c.StoreID)
}

// CapabilitySet returns the operator's capability tags as a set
func (c *Claims) CapabilitySet() shared.CapabilitySet {
	set := make(shared.CapabilitySet, len(c.Capabilities))
	for _, raw := range c.Capabilities {
		capability := shared.Capability(raw)
		if capability.IsValid() {
			set = set.Add(capability)
		}
	}
	return set
}

// IssuedAtTime returns the token's issued-at time as time.Time
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt != nil {
		return c.IssuedAt.Time
	}
	return time.Time{}
}

// RemainingTTL returns the remaining time until the token expires
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(c.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func capabilityStrings(set shared.CapabilitySet) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for capability := range set {
		out = append(out, capability.String())
	}
	return out
}
