// Package auth provides a role check on bearer credentials.
//
// The guard decodes the credential's claims without verifying its signature.
// Signature and expiry verification belong to the perimeter in front of the
// gateway; this check only narrows access to callers holding a given role.
package auth

import (
	"encoding/json"
	"regexp"
	"slices"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// DefaultRoleClaims lists the claim names searched for roles, in order.
var DefaultRoleClaims = []string{"roles", "custom:roles"}

var bearerPrefix = regexp.MustCompile(`(?i)^Bearer\s+`)

// Guard grants access to credentials carrying RequiredRole.
type Guard struct {
	RequiredRole string
	RoleClaims   []string
}

// New constructs a guard. An empty claims list falls back to DefaultRoleClaims.
func New(requiredRole string, roleClaims []string) *Guard {
	if len(roleClaims) == 0 {
		roleClaims = DefaultRoleClaims
	}
	return &Guard{RequiredRole: requiredRole, RoleClaims: roleClaims}
}

// Authorize checks the raw Authorization header value. It never panics or
// returns an error; any decoding problem denies access.
func (g *Guard) Authorize(header string) bool {
	token := strings.TrimSpace(bearerPrefix.ReplaceAllString(strings.TrimSpace(header), ""))
	if token == "" {
		return false
	}
	return HasRole(token, g.RequiredRole, g.RoleClaims)
}

// HasRole decodes the payload segment of a three-segment credential and
// reports whether the first non-empty role claim contains role.
func HasRole(token, role string, roleClaims []string) bool {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return false
	}

	claims, ok := decodeClaims(segments[1])
	if !ok {
		return false
	}

	for _, name := range roleClaims {
		value, present := claims[name]
		if !present || value == nil || value == "" {
			continue
		}
		return containsRole(value, role)
	}
	return false
}

var segmentParser = jwtlib.NewParser(jwtlib.WithPaddingAllowed())

// decodeClaims accepts both base64url and standard base64 alphabets.
func decodeClaims(segment string) (jwtlib.MapClaims, bool) {
	segment = strings.NewReplacer("+", "-", "/", "_").Replace(segment)
	payload, err := segmentParser.DecodeSegment(segment)
	if err != nil {
		return nil, false
	}

	var claims jwtlib.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil || claims == nil {
		return nil, false
	}
	return claims, true
}

// containsRole tests membership in an array claim, a JSON-array string, or a
// comma-separated string.
func containsRole(value any, role string) bool {
	switch v := value.(type) {
	case []any:
		return containsString(v, role)
	case string:
		var parsed []any
		if err := json.Unmarshal([]byte(v), &parsed); err == nil {
			return containsString(parsed, role)
		}
		for _, item := range strings.Split(v, ",") {
			if strings.TrimSpace(item) == role {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func containsString(items []any, role string) bool {
	return slices.ContainsFunc(items, func(item any) bool {
		s, ok := item.(string)
		return ok && s == role
	})
}
