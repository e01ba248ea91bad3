package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the JWT payload for access tokens. The tenant is only
// ever taken from a verified token, never from request headers.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	TenantID string   `json:"tenant_id"`
	Role     UserRole `json:"role"`
	Name     string   `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Caller converts verified claims into the identity handed to services.
func (c *JWTClaims) Caller() Caller {
	return Caller{Tenant: TenantScope(c.TenantID), ActorID: c.UserID, Role: c.Role}
}
