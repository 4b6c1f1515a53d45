// Package auth guards the gateway's API with a static operator token.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingBearer = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrNotConfigured = errors.New("auth token not configured")
)

type Claims struct {
	Subject string
	Token   string
}

type Authenticator interface {
	Authenticate(r *http.Request) (Claims, error)
}

type TokenAuthenticator struct {
	APIToken string
}

func NewTokenAuthenticator(token string) *TokenAuthenticator {
	return &TokenAuthenticator{APIToken: token}
}

func (a *TokenAuthenticator) Authenticate(r *http.Request) (Claims, error) {
	if a.APIToken == "" {
		return Claims{}, ErrNotConfigured
	}

	bearer, err := extractBearer(r)
	if err != nil {
		return Claims{}, err
	}

	if subtle.ConstantTimeCompare([]byte(bearer), []byte(a.APIToken)) != 1 {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Subject: "operator", Token: bearer}, nil
}

func extractBearer(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingBearer
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
