package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token (JWT) claims for the
// operator API. It includes standard claims required by the JWT specification
// and custom claims identifying the operator on protected endpoints.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// Operator is the name the operator's actions are attributed to in logs
	// and in announcements posted through the API.
	Operator string `json:"operator"`

	// Role defines the operator's permission tier ("admin" or "superadmin"),
	// allowing the server to gate destructive endpoints such as ban management.
	Role string `json:"role"`
}
