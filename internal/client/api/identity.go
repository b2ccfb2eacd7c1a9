package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/techstore/internal/client/models"
	"github.com/dmitrijs2005/techstore/internal/common"
	"github.com/dmitrijs2005/techstore/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Identity API paths.
const (
	PathRegister           = "/register"
	PathLogin              = "/login"
	PathLogout             = "/logout"
	PathForgotPassword     = "/forgot-password"
	PathResetPassword      = "/reset-password"
	PathVerifyEmail        = "/verify-email"
	PathResendVerification = "/resend-verification"
	PathResendResetCode    = "/resend-code-password"
	PathGoogleAuth         = "/google-auth"
	PathGetUserInfo        = "/get-user-info"
	PathUpdateUserInfo     = "/update-user-info"
)

// IdentityAPI is the contract the auth flow, session and profile code use.
// All methods honor context cancellation.
type IdentityAPI interface {
	Register(ctx context.Context, req models.RegisterRequest) (Response, error)
	Login(ctx context.Context, req models.LoginRequest) (Response, error)
	Logout(ctx context.Context) (Response, error)
	ForgotPassword(ctx context.Context, email string) (Response, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) (Response, error)
	VerifyEmail(ctx context.Context, email, code string) (Response, error)
	ResendVerification(ctx context.Context, email string) (Response, error)
	ResendResetCode(ctx context.Context, email string) (Response, error)
	GoogleAuth(ctx context.Context, req models.GoogleAuthRequest) (Response, error)
	GetUserInfo(ctx context.Context, email string) (Response, error)
	UpdateUserInfo(ctx context.Context, req models.UpdateUserRequest) (Response, error)
}

// IdentityClient is the HTTP implementation of IdentityAPI.
type IdentityClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     logging.Logger
}

type IdentityOption func(*IdentityClient)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) IdentityOption {
	return func(ic *IdentityClient) { ic.http = c }
}

// WithRateLimit caps outbound calls at perSecond with a burst of one.
// perSecond <= 0 disables limiting.
func WithRateLimit(perSecond float64) IdentityOption {
	return func(ic *IdentityClient) {
		if perSecond > 0 {
			ic.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func WithLogger(l logging.Logger) IdentityOption {
	return func(ic *IdentityClient) { ic.log = l }
}

func NewIdentityClient(baseURL string, opts ...IdentityOption) *IdentityClient {
	c := &IdentityClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		log:     logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("component", "identity_api")
	return c
}

// Call sends body (JSON-encoded when non-nil) to endpoint and decodes the
// JSON reply. See the package doc for the error contract.
func (c *IdentityClient) Call(ctx context.Context, endpoint, method string, body any) (Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
		}
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, requestID)

	log := c.log.With("endpoint", endpoint, "request_id", requestID)
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn(ctx, "identity call failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Warn(ctx, "identity response not JSON", "status", resp.StatusCode, "error", err)
		return nil, fmt.Errorf("%w: decode response: %w", ErrNetwork, err)
	}
	log.Debug(ctx, "identity call", "status", resp.StatusCode, "elapsed", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &APIError{Status: resp.StatusCode, Message: out.Message()}
	}
	if ok, present := out.Success(); present && !ok {
		return out, &APIError{Status: resp.StatusCode, Message: out.Message()}
	}
	return out, nil
}

func (c *IdentityClient) post(ctx context.Context, op, endpoint string, body any) (Response, error) {
	resp, err := c.Call(ctx, endpoint, http.MethodPost, body)
	if err != nil {
		return resp, fmt.Errorf("%s failed: %w", op, err)
	}
	return resp, nil
}

func (c *IdentityClient) Register(ctx context.Context, req models.RegisterRequest) (Response, error) {
	return c.post(ctx, "registration", PathRegister, req)
}

func (c *IdentityClient) Login(ctx context.Context, req models.LoginRequest) (Response, error) {
	return c.post(ctx, "login", PathLogin, req)
}

func (c *IdentityClient) Logout(ctx context.Context) (Response, error) {
	return c.post(ctx, "logout", PathLogout, nil)
}

func (c *IdentityClient) ForgotPassword(ctx context.Context, email string) (Response, error) {
	return c.post(ctx, "forgot password", PathForgotPassword, models.EmailRequest{Email: email})
}

func (c *IdentityClient) ResetPassword(ctx context.Context, email, code, newPassword string) (Response, error) {
	return c.post(ctx, "reset password", PathResetPassword, models.ResetPasswordRequest{
		Email:            email,
		ConfirmationCode: code,
		NewPassword:      newPassword,
	})
}

func (c *IdentityClient) VerifyEmail(ctx context.Context, email, code string) (Response, error) {
	return c.post(ctx, "email verification", PathVerifyEmail, models.VerifyEmailRequest{
		Email:            email,
		ConfirmationCode: code,
	})
}

func (c *IdentityClient) ResendVerification(ctx context.Context, email string) (Response, error) {
	return c.post(ctx, "resend verification", PathResendVerification, models.EmailRequest{Email: email})
}

func (c *IdentityClient) ResendResetCode(ctx context.Context, email string) (Response, error) {
	return c.post(ctx, "resend password code", PathResendResetCode, models.EmailRequest{Email: email})
}

func (c *IdentityClient) GoogleAuth(ctx context.Context, req models.GoogleAuthRequest) (Response, error) {
	return c.post(ctx, "google authentication", PathGoogleAuth, req)
}

func (c *IdentityClient) GetUserInfo(ctx context.Context, email string) (Response, error) {
	return c.post(ctx, "get user info", PathGetUserInfo, models.EmailRequest{Email: email})
}

func (c *IdentityClient) UpdateUserInfo(ctx context.Context, req models.UpdateUserRequest) (Response, error) {
	return c.post(ctx, "update user info", PathUpdateUserInfo, req)
}
