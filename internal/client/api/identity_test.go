package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/techstore/internal/client/models"
	"github.com/dmitrijs2005/techstore/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	Method  string
	Path    string
	Headers http.Header
	Body    map[string]any
}

// fakeIdentity records every request and replies with status/body.
type fakeIdentity struct {
	mu     sync.Mutex
	calls  []captured
	status int
	body   string
}

func (f *fakeIdentity) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.calls = append(f.calls, captured{Method: r.Method, Path: r.URL.Path, Headers: r.Header.Clone(), Body: body})
	status, resp := f.status, f.body
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(resp))
}

func (f *fakeIdentity) last(t *testing.T) captured {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func newIdentity(t *testing.T, status int, body string) (*IdentityClient, *fakeIdentity) {
	t.Helper()
	f := &fakeIdentity{status: status, body: body}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewIdentityClient(srv.URL+"/", WithHTTPClient(srv.Client())), f
}

func TestCall_SuccessSetsHeadersAndDecodes(t *testing.T) {
	c, f := newIdentity(t, http.StatusOK, `{"success":true,"message":"ok"}`)

	resp, err := c.Call(context.Background(), PathLogin, http.MethodPost, models.LoginRequest{Email: "a@b.co", Password: "x"})
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Message())

	got := f.last(t)
	require.Equal(t, http.MethodPost, got.Method)
	require.Equal(t, "/login", got.Path)
	require.Equal(t, "application/json", got.Headers.Get("Content-Type"))
	require.Equal(t, "application/json", got.Headers.Get("Accept"))
	_, err = uuid.Parse(got.Headers.Get(common.RequestIDHeaderName))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"email": "a@b.co", "password": "x"}, got.Body)
}

func TestCall_NilBodySendsNoPayload(t *testing.T) {
	c, f := newIdentity(t, http.StatusOK, `{}`)

	_, err := c.Call(context.Background(), PathLogout, http.MethodPost, nil)
	require.NoError(t, err)
	require.Nil(t, f.last(t).Body)
}

func TestCall_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", http.StatusBadRequest, `{"message":"User already exists"}`, "User already exists"},
		{"error field", http.StatusUnauthorized, `{"error":"Incorrect username or password."}`, "Incorrect username or password."},
		{"no message", http.StatusInternalServerError, `{}`, "HTTP error! status: 500"},
		{"success false on 200", http.StatusOK, `{"success":false,"error":"Invalid code"}`, "Invalid code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newIdentity(t, tt.status, tt.body)

			_, err := c.Call(context.Background(), PathVerifyEmail, http.MethodPost, nil)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tt.status, apiErr.Status)
			require.Equal(t, tt.wantMsg, apiErr.Error())
		})
	}
}

func TestCall_NonJSONBodyIsNetworkError(t *testing.T) {
	c, _ := newIdentity(t, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := c.Call(context.Background(), PathLogin, http.MethodPost, nil)
	require.ErrorIs(t, err, ErrNetwork)
}

func TestCall_TransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewIdentityClient(url)
	_, err := c.Call(context.Background(), PathLogin, http.MethodPost, nil)
	require.ErrorIs(t, err, ErrNetwork)
}

func TestCall_ContextCanceled(t *testing.T) {
	c, _ := newIdentity(t, http.StatusOK, `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Call(ctx, PathLogin, http.MethodPost, nil)
	require.ErrorIs(t, err, ErrNetwork)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCall_RateLimited(t *testing.T) {
	f := &fakeIdentity{body: `{}`}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c := NewIdentityClient(srv.URL, WithRateLimit(20))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Call(context.Background(), PathLogin, http.MethodPost, nil)
		require.NoError(t, err)
	}
	// burst 1 at 20/s: the 2nd and 3rd calls each wait ~50ms
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestWrappers_PathsAndBodies(t *testing.T) {
	c, f := newIdentity(t, http.StatusOK, `{"success":true}`)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		path string
		body map[string]any
	}{
		{"register", func() error {
			_, err := c.Register(ctx, models.RegisterRequest{FirstName: "Ann", LastName: "Lee", Email: "a@b.co", Password: "P@ssw0rd"})
			return err
		}, "/register", map[string]any{"firstName": "Ann", "lastName": "Lee", "email": "a@b.co", "password": "P@ssw0rd"}},
		{"login", func() error {
			_, err := c.Login(ctx, models.LoginRequest{Email: "a@b.co", Password: "pw"})
			return err
		}, "/login", map[string]any{"email": "a@b.co", "password": "pw"}},
		{"forgot", func() error {
			_, err := c.ForgotPassword(ctx, "a@b.co")
			return err
		}, "/forgot-password", map[string]any{"email": "a@b.co"}},
		{"reset", func() error {
			_, err := c.ResetPassword(ctx, "a@b.co", "123456", "N3w!pass")
			return err
		}, "/reset-password", map[string]any{"email": "a@b.co", "confirmationCode": "123456", "newPassword": "N3w!pass"}},
		{"verify", func() error {
			_, err := c.VerifyEmail(ctx, "a@b.co", "654321")
			return err
		}, "/verify-email", map[string]any{"email": "a@b.co", "confirmationCode": "654321"}},
		{"resend verification", func() error {
			_, err := c.ResendVerification(ctx, "a@b.co")
			return err
		}, "/resend-verification", map[string]any{"email": "a@b.co"}},
		{"resend reset", func() error {
			_, err := c.ResendResetCode(ctx, "a@b.co")
			return err
		}, "/resend-code-password", map[string]any{"email": "a@b.co"}},
		{"google", func() error {
			_, err := c.GoogleAuth(ctx, models.GoogleAuthRequest{Provider: "google", IDToken: "tok", Email: "a@b.co"})
			return err
		}, "/google-auth", map[string]any{"provider": "google", "idToken": "tok", "email": "a@b.co"}},
		{"get user info", func() error {
			_, err := c.GetUserInfo(ctx, "a@b.co")
			return err
		}, "/get-user-info", map[string]any{"email": "a@b.co"}},
		{"update user info", func() error {
			_, err := c.UpdateUserInfo(ctx, models.UpdateUserRequest{Email: "a@b.co", FirstName: "Ann", LastName: "Lee"})
			return err
		}, "/update-user-info", map[string]any{"email": "a@b.co", "firstName": "Ann", "lastName": "Lee"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			got := f.last(t)
			require.Equal(t, http.MethodPost, got.Method)
			require.Equal(t, tt.path, got.Path)
			require.Equal(t, tt.body, got.Body)
		})
	}

	_, err := c.Logout(ctx)
	require.NoError(t, err)
	require.Equal(t, "/logout", f.last(t).Path)
}

func TestWrappers_LabelFailures(t *testing.T) {
	c, _ := newIdentity(t, http.StatusUnauthorized, `{"message":"Incorrect username or password."}`)

	_, err := c.Login(context.Background(), models.LoginRequest{Email: "a@b.co", Password: "bad"})
	require.EqualError(t, err, "login failed: Incorrect username or password.")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestUserMessage(t *testing.T) {
	require.Equal(t, "User already exists",
		UserMessage(&APIError{Status: 400, Message: "User already exists"}, "fallback"))
	require.Equal(t, "fallback", UserMessage(&APIError{Status: 500}, "fallback"))
	require.Equal(t, "fallback", UserMessage(ErrNetwork, "fallback"))
}

func TestResponse_Helpers(t *testing.T) {
	r := Response{"success": true, "error": "e", "user": map[string]any{"email": "a@b.co", "firstName": "Ann"}}
	ok, present := r.Success()
	require.True(t, ok)
	require.True(t, present)
	require.Equal(t, "e", r.Message())

	var u models.UserInfo
	require.NoError(t, r.Decode("user", &u))
	require.Equal(t, "Ann", u.FirstName)

	_, present = Response{}.Success()
	require.False(t, present)
}
