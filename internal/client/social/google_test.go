package social

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, c googleClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("not-google"))
	require.NoError(t, err)
	return s
}

func TestParseGoogleCredential(t *testing.T) {
	tok := signed(t, googleClaims{
		Email:         "ann.lee@gmail.com",
		EmailVerified: true,
		Name:          "Ann Lee",
		Picture:       "https://lh3.googleusercontent.com/a/x",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1122334455",
			Issuer:    "https://accounts.google.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	c, err := ParseGoogleCredential(tok)
	require.NoError(t, err, "expiry and signature are left to the identity API")
	require.Equal(t, "ann.lee@gmail.com", c.Email)
	require.Equal(t, "1122334455", c.Subject)
	require.True(t, c.EmailVerified)

	req := c.AuthRequest()
	require.Equal(t, "google", req.Provider)
	require.Equal(t, tok, req.IDToken)
	require.Equal(t, "Ann Lee", req.Name)
	require.Equal(t, "https://lh3.googleusercontent.com/a/x", req.Picture)
}

func TestParseGoogleCredential_Errors(t *testing.T) {
	_, err := ParseGoogleCredential("")
	require.ErrorIs(t, err, ErrEmptyCredential)

	_, err = ParseGoogleCredential("not.a.jwt")
	require.Error(t, err)

	_, err = ParseGoogleCredential(signed(t, googleClaims{Name: "No Mail"}))
	require.ErrorIs(t, err, ErrMissingEmail)
}
