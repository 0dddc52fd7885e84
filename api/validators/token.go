package validators

import (
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid auth token")

// BearerToken extracts the token from an Authorization header value. An empty
// header yields "" and no error; a header without a token is invalid.
func BearerToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	token := raw
	lower := strings.ToLower(token)
	if lower == "bearer" {
		return "", ErrInvalidToken
	}
	if strings.HasPrefix(lower, "bearer ") {
		token = strings.TrimSpace(token[len("bearer "):])
	}
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrInvalidToken
	}
	return token, nil
}
