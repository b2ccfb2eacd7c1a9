// Package social reads the Google Identity Services credential handed to the
// client after "Sign in with Google". The signature is not checked here; the
// identity API verifies the token it receives.
package social

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/techstore/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
)

const ProviderGoogle = "google"

var (
	ErrEmptyCredential = errors.New("empty google credential")
	ErrMissingEmail    = errors.New("google credential has no email")
)

type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// Credential is the profile carried in a Google ID token.
type Credential struct {
	IDToken       string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

func ParseGoogleCredential(token string) (Credential, error) {
	if token == "" {
		return Credential{}, ErrEmptyCredential
	}

	var claims googleClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Credential{}, fmt.Errorf("parse google credential: %w", err)
	}
	if claims.Email == "" {
		return Credential{}, ErrMissingEmail
	}

	return Credential{
		IDToken:       token,
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}

// AuthRequest is the google-auth body for this credential.
func (c Credential) AuthRequest() models.GoogleAuthRequest {
	return models.GoogleAuthRequest{
		Provider: ProviderGoogle,
		IDToken:  c.IDToken,
		Email:    c.Email,
		Name:     c.Name,
		Picture:  c.Picture,
	}
}
