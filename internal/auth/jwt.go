package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
)

// TokenService issues and validates HS256 bearer tokens carrying the
// subject id and role. The core never touches tokens; the HTTP layer
// resolves them into a models.Identity before calling in.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

func (s *TokenService) Issue(id models.Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  id.ID,
		"role": string(id.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Validate parses a signed token and returns the identity it carries.
// Expired, malformed, or wrongly-signed tokens all come back as
// Unauthorized so the transport maps them to 401 uniformly.
func (s *TokenService) Validate(tokenStr string) (models.Identity, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return models.Identity{}, apperr.Wrap(apperr.KindUnauthorized, "invalid token", err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, apperr.Unauthorized("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || role == "" {
		return models.Identity{}, apperr.Unauthorized("invalid token claims")
	}
	return models.Identity{ID: sub, Role: models.Role(role)}, nil
}
