package vault

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the account role carried in a credential's claims.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Claims are the non-authoritative fields of a credential's payload.
// They drive view selection and the Uploader header only; they must never
// be used to authorize anything.
type Claims struct {
	Username string `json:"username"`
	Role     Role   `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// EffectiveRole returns the role, defaulting to RoleUser when unset.
func (c *Claims) EffectiveRole() Role {
	if c == nil || c.Role == "" {
		return RoleUser
	}
	return c.Role
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeClaims decodes the payload segment of c without verifying the
// signature. It returns nil for an empty credential and for any malformed
// one; decode errors never leave this function.
func DecodeClaims(c Credential) *Claims {
	if c == "" {
		return nil
	}
	parts := strings.Split(string(c), ".")
	if len(parts) != 3 {
		return nil
	}
	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil || !utf8.Valid(payload) {
		return nil
	}
	var claims *Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil
	}
	return claims
}
