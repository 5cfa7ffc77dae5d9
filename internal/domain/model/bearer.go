package model

import "strings"

// AuthorizationHeader is the canonical name of the header carrying credentials.
const AuthorizationHeader = "Authorization"

const bearerPrefix = "Bearer "

// ParseBearer extracts the token from an Authorization value of the form
// "Bearer <token>". The scheme word is matched case-insensitively. An empty
// token is not a match.
func ParseBearer(value string) (string, bool) {
	if !hasBearerPrefix(value) {
		return "", false
	}
	token := value[len(bearerPrefix):]
	if token == "" {
		return "", false
	}
	return token, true
}

// FindBearer returns the token of the first Authorization header in headers
// that carries a non-empty bearer credential.
func FindBearer(headers []Header) (string, bool) {
	for _, h := range headers {
		if !strings.EqualFold(h.Name, AuthorizationHeader) {
			continue
		}
		if token, ok := ParseBearer(h.Value); ok {
			return token, true
		}
	}
	return "", false
}

// FormatCredential returns an Authorization value as consumers should see it.
// With includeSchemePrefix the value is returned unmodified; otherwise a
// leading "Bearer " (any case) is stripped.
func FormatCredential(value string, includeSchemePrefix bool) string {
	if includeSchemePrefix || !hasBearerPrefix(value) {
		return value
	}
	return value[len(bearerPrefix):]
}

// MaskToken shortens a credential for log output, keeping four characters at
// each end. Short values are fully masked.
func MaskToken(token string) string {
	const keep = 4
	if len(token) <= 3*keep {
		return "****"
	}
	return token[:keep] + "..." + token[len(token)-keep:]
}

func hasBearerPrefix(value string) bool {
	return len(value) >= len(bearerPrefix) && strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix)
}
