package models

import "github.com/golang-jwt/jwt/v5"

// TokenRequest is the body of POST /api/auth/token.
type TokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// AdminClaims are carried by tokens issued to the operator.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
