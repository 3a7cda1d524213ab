package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ResearcherClaims are JWT claims for researcher access to stored responses
type ResearcherClaims struct {
	ResearcherID string `json:"researcherId"`
	jwt.RegisteredClaims
}

// RespondentClaims bind a respondent token to one survey session
type RespondentClaims struct {
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for researcher login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token        string    `json:"token"`
	ResearcherID string    `json:"researcherId"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
