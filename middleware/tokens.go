package middleware

import (
	"errors"
	"time"

	"parcel-delivery-api/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

type Claims struct {
	UserID string          `json:"userId"`
	Role   models.UserRole `json:"role"`
	Email  string          `json:"email"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	Access  string
	Refresh string
}

// TokenService signs and verifies the session JWTs. Access and refresh
// tokens use separate secrets so one can never stand in for the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock replaces the time source used for issuing and verifying
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) secret(kind TokenKind) []byte {
	if kind == RefreshToken {
		return s.refreshSecret
	}
	return s.accessSecret
}

func (s *TokenService) ttl(kind TokenKind) time.Duration {
	if kind == RefreshToken {
		return s.refreshTTL
	}
	return s.accessTTL
}

func (s *TokenService) sign(kind TokenKind, userID string, role models.UserRole, email string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl(kind))),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret(kind))
}

// Issue creates a fresh access/refresh pair for the user
func (s *TokenService) Issue(u *models.User) (TokenPair, error) {
	access, err := s.sign(AccessToken, u.ID, u.Role, u.Email)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(RefreshToken, u.ID, u.Role, u.Email)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Verify checks signature, algorithm and expiry. Expiry is reported as
// ErrTokenExpired; every other failure as ErrTokenInvalid.
func (s *TokenService) Verify(tokenStr string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret(kind), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Refresh verifies a refresh token and issues a new access token carrying
// the same user id, role and email.
func (s *TokenService) Refresh(refreshToken string) (string, *Claims, error) {
	claims, err := s.Verify(refreshToken, RefreshToken)
	if err != nil {
		return "", nil, err
	}
	access, err := s.sign(AccessToken, claims.UserID, claims.Role, claims.Email)
	if err != nil {
		return "", nil, err
	}
	return access, claims, nil
}
