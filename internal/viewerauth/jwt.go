// Package viewerauth implements the history viewer's OAuth2 login and
// short-lived JWT, entirely separate from gameplay identity (SPEC_FULL
// §4.7). Narrowed from the teacher's local-account JWT/OAuth pair:
// no password accounts, no refresh tokens, a single read scope.
package viewerauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid viewer token")
	ErrExpiredToken = errors.New("viewer token has expired")
)

// ViewerClaims identifies the Google account that logged into the
// history viewer. It carries no gameplay authorization: joining a
// room and submitting moves is authorized by the session id +
// username pair from `join`, never by this token.
type ViewerClaims struct {
	Subject     string `json:"sub"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTService builds the viewer token service. ttlMinutes <= 0
// falls back to the spec's 15-minute default.
func NewJWTService(secret string, ttlMinutes int) *JWTService {
	ttl := 15 * time.Minute
	if ttlMinutes > 0 {
		ttl = time.Duration(ttlMinutes) * time.Minute
	}
	return &JWTService{secret: []byte(secret), ttl: ttl}
}

// GenerateViewerToken issues a token scoped to the history viewer
// routes only (GET /api/games and GET /api/auth/me).
func (s *JWTService) GenerateViewerToken(subject, email, displayName string) (string, error) {
	now := time.Now()
	claims := ViewerClaims{
		Subject:     subject,
		Email:       email,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ValidateViewerToken(tokenString string) (*ViewerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ViewerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*ViewerClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTService) TTL() time.Duration { return s.ttl }
