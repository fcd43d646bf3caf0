package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the JWT claims issued by the main LegalEase backend and
// verified by this service. Access tokens carry the operator's role so the
// superadmin gate can be enforced without a round trip.
type TokenClaims struct {
	Type   string `json:"type"` // "access" or "refresh"
	UserID int64  `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
