package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"eco-route-planner/internal/models"
)

const (
	RoleAdmin = "admin"
	tokenTTL  = 30 * time.Minute
	issuer    = "eco-route-planner"
)

// ServiceInterface issues and checks operator tokens.
type ServiceInterface interface {
	IssueToken(ctx context.Context, req models.TokenRequest) (*models.TokenResponse, error)
	ParseToken(token string) (*models.AdminClaims, error)
	SigningKey() []byte
}

type service struct {
	username     string
	passwordHash []byte
	secret       []byte
	now          func() time.Time
}

// NewService configures the single operator account. An empty password hash
// disables token issuing.
func NewService(username, passwordHash, secret string) ServiceInterface {
	return &service{
		username:     username,
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		now:          time.Now,
	}
}

func (s *service) SigningKey() []byte { return s.secret }

// IssueToken checks the credentials against the bcrypt hash and returns a
// short-lived HS256 token.
func (s *service) IssueToken(ctx context.Context, req models.TokenRequest) (*models.TokenResponse, error) {
	if len(s.passwordHash) == 0 || len(s.secret) == 0 {
		return nil, models.ErrInvalidCredentials
	}
	if req.Username != s.username {
		return nil, models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("IssueToken: compare hash: %w", err)
	}

	now := s.now()
	claims := models.AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   req.Username,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("IssueToken: sign: %w", err)
	}
	return &models.TokenResponse{Token: signed, ExpiresIn: int64(tokenTTL.Seconds())}, nil
}

// ParseToken validates signature, expiry and role.
func (s *service) ParseToken(token string) (*models.AdminClaims, error) {
	claims := &models.AdminClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}
	if claims.Role != RoleAdmin {
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}
