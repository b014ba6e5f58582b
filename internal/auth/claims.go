package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// PrincipalID is the users.id credited in audit records.
type Claims struct {
	jwt.RegisteredClaims

	PrincipalID int64     `json:"principal_id"`
	Role        string    `json:"role"`
	TokenType   TokenType `json:"token_type"`
}
