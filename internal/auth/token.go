package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Identity is the actor data carried by a token. Capabilities are not part of
// the token; they are derived from Profile when the token is verified.
type Identity struct {
	ID            string
	Name          string
	Email         string
	Profile       string
	ClientScopeID *string
}

// Claims describes JWT payload.
type Claims struct {
	Name        string  `json:"name"`
	Email       string  `json:"email,omitempty"`
	Profile     string  `json:"profile"`
	ClientScope *string `json:"client_scope,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a JWT for identity.
func (tm *TokenManager) GenerateToken(identity Identity) (string, time.Time, error) {
	if strings.TrimSpace(identity.ID) == "" || strings.TrimSpace(identity.Profile) == "" {
		return "", time.Time{}, errors.New("identity requires id and profile")
	}
	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Name:        identity.Name,
		Email:       identity.Email,
		Profile:     identity.Profile,
		ClientScope: identity.ClientScopeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" || claims.Profile == "" {
		return nil, errors.New("token lacks subject or profile")
	}
	return claims, nil
}
