package models

import "github.com/golang-jwt/jwt/v5"

// Role values recognised by the API.
const (
	RoleAdmin   = "admin"
	RoleTrainer = "trainer"
	RolePlayer  = "player"
)

// JWTClaims represents the JWT payload for access tokens. Tokens are minted
// by the identity provider; this API only verifies them.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	ClubID   string `json:"club_id,omitempty"`
	jwt.RegisteredClaims
}

// IsStaff reports whether the claims belong to an admin or trainer.
func (c *JWTClaims) IsStaff() bool {
	if c == nil {
		return false
	}
	return c.Role == RoleAdmin || c.Role == RoleTrainer
}
