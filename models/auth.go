package models

import "github.com/golang-jwt/jwt/v5"

// ActorRole identifies which side of the marketplace a caller acts for.
type ActorRole string

const (
	RoleClient ActorRole = "client"
	RoleAdmin  ActorRole = "admin"
	RoleCrew   ActorRole = "crew"
)

// JWTClaims carries the acting party on every authenticated request. The
// role feeds the capability table; the user ID becomes updatedBy on
// mutations.
type JWTClaims struct {
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name,omitempty"`
	Role     ActorRole `json:"role"`
	jwt.RegisteredClaims
}
