package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"

	kindAccess  = "access"
	kindRefresh = "refresh"
)

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// Claims represents JWT payload.
type Claims struct {
	Role string `json:"role"`
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// Signer issues and validates HS256 tokens for one issuer.
type Signer struct {
	Issuer     string
	Key        []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	now        func() time.Time
}

func NewSigner(issuer, key string, accessTTL, refreshTTL time.Duration) *Signer {
	return &Signer{Issuer: issuer, Key: []byte(key), AccessTTL: accessTTL, RefreshTTL: refreshTTL, now: time.Now}
}

// Issue issues signed access and refresh tokens.
func (s *Signer) Issue(subject, role string) (TokenPair, error) {
	now := s.now()
	accessExp := now.Add(s.AccessTTL)
	refreshExp := now.Add(s.RefreshTTL)

	accessToken, err := s.sign(subject, role, kindAccess, now, accessExp)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := s.sign(subject, role, kindRefresh, now, refreshExp)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *Signer) sign(subject, role, kind string, issued, exp time.Time) (string, error) {
	claims := Claims{
		Role: role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.Issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(issued),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Key)
}

// ParseAccess validates an access token and returns its claims.
func (s *Signer) ParseAccess(tokenStr string) (Claims, error) {
	return s.parse(tokenStr, kindAccess)
}

// ParseRefresh validates a refresh token and returns its claims.
func (s *Signer) ParseRefresh(tokenStr string) (Claims, error) {
	return s.parse(tokenStr, kindRefresh)
}

func (s *Signer) parse(tokenStr, kind string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.Key, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if s.Issuer != "" && claims.Issuer != s.Issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	if claims.Kind != kind {
		return Claims{}, errors.New("wrong token kind")
	}
	return *claims, nil
}
