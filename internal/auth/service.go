// Package auth issues and checks the signed session tokens that identify a
// user to the document API and the collaboration socket.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/inamate/vecta/backend-go/internal/typeid"
)

var ErrInvalidToken = errors.New("invalid token")

// DefaultTTL is how long an issued session stays valid.
const DefaultTTL = 24 * time.Hour

const maxDisplayName = 64

type Service struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewService(jwtSecret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Identity is who a token speaks for.
type Identity struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type Session struct {
	Token     string    `json:"token"`
	User      Identity  `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type sessionClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// IssueSession creates an anonymous user and a token for it.
func (s *Service) IssueSession(displayName string) (*Session, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = "Anonymous"
	}
	if r := []rune(displayName); len(r) > maxDisplayName {
		displayName = string(r[:maxDisplayName])
	}

	user := Identity{
		UserID:      "anon-" + uuid.NewString()[:8],
		DisplayName: displayName,
	}
	token, expires, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user, ExpiresAt: expires}, nil
}

// ValidateToken checks the signature and expiry of tokenString.
func (s *Service) ValidateToken(tokenString string) (Identity, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	// Only tokens minted by IssueSession carry a session id.
	if err := typeid.Validate(claims.ID, typeid.PrefixSession); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Identity{UserID: claims.Subject, DisplayName: claims.Name}, nil
}

func (s *Service) issueToken(user Identity) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := sessionClaims{
		Name: user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        typeid.NewSessionID(),
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expires, nil
}
