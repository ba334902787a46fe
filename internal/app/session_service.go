package app

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// SessionService mints and verifies the signed tokens that bind a user to a
// match seat, so a reconnecting client can prove which seat it owns before
// the server re-sends its private projection.
type SessionService struct {
	secret string
	issuer string
	ttl    time.Duration
}

func NewSessionService(secret, issuer string, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionService{secret: secret, issuer: issuer, ttl: ttl}
}

// GenerateToken returns a signed HS256 token for a user in a match.
func (s *SessionService) GenerateToken(userID, matchID string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("session service is nil")
	}
	if userID == "" || matchID == "" {
		return "", fmt.Errorf("user and match are required")
	}
	if s.secret == "" {
		return "", fmt.Errorf("session token secret is not configured")
	}

	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": userID,
		"mid": matchID,
		"exp": time.Now().Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// VerifyToken checks signature and expiry and returns the bound user and
// match IDs.
func (s *SessionService) VerifyToken(tokenString string) (userID, matchID string, err error) {
	if s == nil || s.secret == "" {
		return "", "", fmt.Errorf("session token secret is not configured")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid session token")
	}
	if s.issuer != "" {
		if iss, _ := claims["iss"].(string); iss != s.issuer {
			return "", "", fmt.Errorf("unexpected token issuer")
		}
	}

	userID, _ = claims["sub"].(string)
	matchID, _ = claims["mid"].(string)
	if userID == "" || matchID == "" {
		return "", "", fmt.Errorf("session token is missing bindings")
	}
	return userID, matchID, nil
}
