package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	stateIssuer = "portal-social"
	StateTTL    = 10 * time.Minute
)

var ErrInvalidState = errors.New("invalid oauth state")

type StateClaims struct {
	OperatorID string `json:"operator_id"`
	Platform   string `json:"platform"`
	jwt.RegisteredClaims
}

// StateIssuer signs and verifies the value round-tripped through an OAuth redirect.
// Nothing is stored; the signature and expiry are the whole check.
type StateIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewStateIssuer(secret string) *StateIssuer {
	return &StateIssuer{secret: []byte(secret), ttl: StateTTL, now: time.Now}
}

func (s *StateIssuer) Issue(operatorID, platform string) (string, error) {
	nonce, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := StateClaims{
		OperatorID: operatorID,
		Platform:   platform,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        nonce,
			Issuer:    stateIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature, expiry and that the state was issued for platform.
func (s *StateIssuer) Verify(state, platform string) (*StateClaims, error) {
	claims := &StateClaims{}
	_, err := jwt.ParseWithClaims(state, claims, s.keyFunc,
		jwt.WithIssuer(stateIssuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if claims.Platform != platform {
		return nil, fmt.Errorf("%w: issued for %q", ErrInvalidState, claims.Platform)
	}
	if claims.OperatorID == "" {
		return nil, fmt.Errorf("%w: missing operator", ErrInvalidState)
	}

	return claims, nil
}

func (s *StateIssuer) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("invalid token signing method")
	}
	return s.secret, nil
}

type SessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// ValidateSession checks an admin session token issued by the portal back office.
func ValidateSession(secretKey, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid && claims.UserID != "" {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
