package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/techstore/internal/client/api"
	"github.com/dmitrijs2005/techstore/internal/client/models"
	"github.com/dmitrijs2005/techstore/internal/client/otp"
	"github.com/dmitrijs2005/techstore/internal/client/session"
	"github.com/dmitrijs2005/techstore/internal/client/validate"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type call struct {
	Op    string
	Email string
	Code  string
	Extra string
}

// fakeIdentity implements api.IdentityAPI. Errs maps an operation name to
// the error it returns; Gate, when set, blocks every call until closed.
type fakeIdentity struct {
	mu    sync.Mutex
	calls []call
	Errs  map[string]error
	Gate  chan struct{}
}

func (f *fakeIdentity) do(op, email, code, extra string) (api.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{Op: op, Email: email, Code: code, Extra: extra})
	gate := f.Gate
	err := f.Errs[op]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return api.Response{"success": true}, nil
}

func (f *fakeIdentity) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeIdentity) ops() []string {
	var out []string
	for _, c := range f.Calls() {
		out = append(out, c.Op)
	}
	return out
}

func (f *fakeIdentity) Register(_ context.Context, r models.RegisterRequest) (api.Response, error) {
	return f.do("register", r.Email, "", r.FirstName+" "+r.LastName)
}
func (f *fakeIdentity) Login(_ context.Context, r models.LoginRequest) (api.Response, error) {
	return f.do("login", r.Email, "", r.Password)
}
func (f *fakeIdentity) Logout(context.Context) (api.Response, error) { return f.do("logout", "", "", "") }
func (f *fakeIdentity) ForgotPassword(_ context.Context, email string) (api.Response, error) {
	return f.do("forgot", email, "", "")
}
func (f *fakeIdentity) ResetPassword(_ context.Context, email, code, pw string) (api.Response, error) {
	return f.do("reset", email, code, pw)
}
func (f *fakeIdentity) VerifyEmail(_ context.Context, email, code string) (api.Response, error) {
	return f.do("verify", email, code, "")
}
func (f *fakeIdentity) ResendVerification(_ context.Context, email string) (api.Response, error) {
	return f.do("resend-verification", email, "", "")
}
func (f *fakeIdentity) ResendResetCode(_ context.Context, email string) (api.Response, error) {
	return f.do("resend-reset", email, "", "")
}
func (f *fakeIdentity) GoogleAuth(_ context.Context, r models.GoogleAuthRequest) (api.Response, error) {
	return f.do("google", r.Email, "", r.Provider)
}
func (f *fakeIdentity) GetUserInfo(_ context.Context, email string) (api.Response, error) {
	return f.do("get-user-info", email, "", "")
}
func (f *fakeIdentity) UpdateUserInfo(_ context.Context, r models.UpdateUserRequest) (api.Response, error) {
	return f.do("update-user-info", r.Email, "", "")
}

type toast struct {
	Kind    string
	Title   string
	Message string
}

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []toast
}

func (r *recordingNotifier) add(t toast) {
	r.mu.Lock()
	r.toasts = append(r.toasts, t)
	r.mu.Unlock()
}

func (r *recordingNotifier) Info(title, msg string)    { r.add(toast{"info", title, msg}) }
func (r *recordingNotifier) Success(title, msg string) { r.add(toast{"success", title, msg}) }
func (r *recordingNotifier) Error(msg string)          { r.add(toast{"error", "", msg}) }

func (r *recordingNotifier) last(t *testing.T) toast {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.toasts)
	return r.toasts[len(r.toasts)-1]
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.toasts)
}

type change struct {
	From, To State
	Focus    string
}

type recordingListener struct {
	mu      sync.Mutex
	changes []change
}

func (r *recordingListener) StateChanged(from, to State, focus string) {
	r.mu.Lock()
	r.changes = append(r.changes, change{from, to, focus})
	r.mu.Unlock()
}

func (r *recordingListener) last(t *testing.T) change {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.changes)
	return r.changes[len(r.changes)-1]
}

type harness struct {
	m      *Machine
	api    *fakeIdentity
	sync   *session.Sync
	toasts *recordingNotifier
	events *recordingListener
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		api:    &fakeIdentity{Errs: map[string]error{}},
		toasts: &recordingNotifier{},
		events: &recordingListener{},
	}
	h.sync = session.NewSync(session.NewMemoryStore(), h.api, nil)
	opts = append([]Option{
		WithNotifier(h.toasts),
		WithListener(h.events),
		WithManualTicks(),
		WithOTPErrorDelay(time.Hour),
	}, opts...)
	h.m = New(h.api, h.sync, opts...)
	t.Cleanup(func() { _ = h.m.Close() })
	return h
}

func (h *harness) loggedIn(t *testing.T) string {
	t.Helper()
	email, ok, err := h.sync.Current(context.Background())
	require.NoError(t, err)
	if !ok {
		return ""
	}
	return email
}

var (
	goodRegister = validate.RegisterForm{
		FirstName: "Ann", LastName: "Lee", Email: "ann.lee@x.com",
		Password: "Secret1!", ConfirmPassword: "Secret1!", AgreeTerms: true,
	}
	goodReset = validate.ResetForm{NewPassword: "N3w!pass", ConfirmPassword: "N3w!pass"}
)

// ---- tests ----

func TestLogin_Success(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.m.OpenLogin(ctx))
	require.Equal(t, State{Kind: LoginOpen}, h.m.State())
	require.Equal(t, FocusEmail, h.events.last(t).Focus)

	require.NoError(t, h.m.SubmitLogin(ctx, validate.LoginForm{Email: "a@b.co", Password: "pw"}))

	require.Equal(t, Closed, h.m.State().Kind)
	require.Equal(t, "a@b.co", h.loggedIn(t))
	require.Equal(t, "success", h.toasts.last(t).Kind)
	require.False(t, h.m.Busy())
}

func TestLogin_APIErrorKeepsDialog(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.api.Errs["login"] = &api.APIError{Status: 401, Message: "Incorrect username or password."}

	require.NoError(t, h.m.OpenLogin(ctx))
	err := h.m.SubmitLogin(ctx, validate.LoginForm{Email: "a@b.co", Password: "bad"})

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, LoginOpen, h.m.State().Kind)
	require.Equal(t, toast{"error", "", "Incorrect username or password."}, h.toasts.last(t))
	require.False(t, h.m.Busy(), "submit re-enabled")
	require.Equal(t, "", h.loggedIn(t))
}

func TestLogin_NetworkErrorUsesFallback(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.api.Errs["login"] = api.ErrNetwork

	require.NoError(t, h.m.OpenLogin(ctx))
	require.ErrorIs(t, h.m.SubmitLogin(ctx, validate.LoginForm{Email: "a@b.co", Password: "pw"}), api.ErrNetwork)
	require.Equal(t, MsgLoginFailed, h.toasts.last(t).Message)
}

func TestLogin_ValidationSkipsNetwork(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.OpenLogin(ctx))

	err := h.m.SubmitLogin(ctx, validate.LoginForm{Email: "not-an-email", Password: "pw"})
	var ve *validate.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, validate.MsgInvalidEmail, h.toasts.last(t).Message)
	require.Empty(t, h.api.Calls())
	require.Equal(t, LoginOpen, h.m.State().Kind)
}

func TestOpenLogin_WhenLoggedIn(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.sync.SetSession(ctx, "a@b.co"))

	require.ErrorIs(t, h.m.OpenLogin(ctx), ErrAlreadyLoggedIn)
	require.Equal(t, Closed, h.m.State().Kind)
}

func TestRegisterVerify_HappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.m.OpenRegister(ctx))
	require.Equal(t, FocusFirstName, h.events.last(t).Focus)
	require.NoError(t, h.m.SubmitRegister(ctx, goodRegister))

	require.Equal(t, State{Kind: OtpOpen, Scope: otp.ScopeRegistration}, h.m.State())
	require.Equal(t, "ann.lee@x.com", h.m.PendingEmail())
	require.Equal(t, FocusOTP, h.events.last(t).Focus)
	require.Equal(t, 60, h.m.Countdown(otp.ScopeRegistration).Remaining())
	require.False(t, h.m.Countdown(otp.ScopeRegistration).Ready())

	require.Equal(t, 6, h.m.Code(otp.ScopeRegistration).Paste("123456"))
	require.NoError(t, h.m.SubmitCode(ctx))

	require.Equal(t, Closed, h.m.State().Kind)
	require.Equal(t, "ann.lee@x.com", h.loggedIn(t))
	require.Equal(t, "", h.m.PendingEmail())
	require.Equal(t, "", h.m.Code(otp.ScopeRegistration).Value())

	calls := h.api.Calls()
	require.Equal(t, []string{"register", "verify"}, h.api.ops())
	require.Equal(t, call{Op: "verify", Email: "ann.lee@x.com", Code: "123456"}, calls[1])
}

func TestSubmitCode_IncompleteAndRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.OpenRegister(ctx))
	require.NoError(t, h.m.SubmitRegister(ctx, goodRegister))
	code := h.m.Code(otp.ScopeRegistration)

	code.Paste("123")
	require.ErrorIs(t, h.m.SubmitCode(ctx), ErrIncompleteCode)
	require.True(t, code.Errored())
	require.Equal(t, validate.MsgIncompleteCode, h.toasts.last(t).Message)
	require.Equal(t, []string{"register"}, h.api.ops(), "no network call for an incomplete code")

	code.Reset()
	code.Paste("999999")
	h.api.Errs["verify"] = &api.APIError{Status: 400, Message: "Invalid verification code provided, please try again."}
	err := h.m.SubmitCode(ctx)
	require.ErrorIs(t, err, ErrInvalidCode)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)

	require.Equal(t, OtpOpen, h.m.State().Kind)
	require.True(t, code.Errored())
	require.True(t, code.ClearPending())
	require.Equal(t, "Invalid verification code provided, please try again.", h.toasts.last(t).Message)
	require.Equal(t, "", h.loggedIn(t))
}

func TestSubmitCode_ErrorPulseClearsCells(t *testing.T) {
	h := newHarness(t, WithOTPErrorDelay(10*time.Millisecond))
	ctx := context.Background()
	h.api.Errs["verify"] = api.ErrNetwork
	require.NoError(t, h.m.OpenRegister(ctx))
	require.NoError(t, h.m.SubmitRegister(ctx, goodRegister))

	code := h.m.Code(otp.ScopeRegistration)
	code.Paste("111111")
	require.ErrorIs(t, h.m.SubmitCode(ctx), ErrInvalidCode)
	require.Equal(t, MsgInvalidCode, h.toasts.last(t).Message)

	require.Eventually(t, func() bool { return code.Value() == "" && !code.Errored() }, time.Second, 5*time.Millisecond)
	require.Equal(t, 0, code.Focus())
}

func TestResend_Countdown(t *testing.T) {
	h := newHarness(t, WithCountdown(3, time.Second))
	ctx := context.Background()
	require.NoError(t, h.m.OpenRegister(ctx))
	require.NoError(t, h.m.SubmitRegister(ctx, goodRegister))
	timer := h.m.Countdown(otp.ScopeRegistration)

	require.ErrorIs(t, h.m.Resend(ctx), ErrResendNotReady)
	require.Equal(t, []string{"register"}, h.api.ops())

	for i := 0; i < 3; i++ {
		timer.Tick()
	}
	require.True(t, timer.Ready())

	// failure keeps resend enabled
	h.api.Errs["resend-verification"] = api.ErrNetwork
	require.ErrorIs(t, h.m.Resend(ctx), api.ErrNetwork)
	require.Equal(t, MsgResendVerifyFailed, h.toasts.last(t).Message)
	require.True(t, timer.Ready())

	delete(h.api.Errs, "resend-verification")
	require.NoError(t, h.m.Resend(ctx))
	require.Equal(t, toast{"info", "Code Sent", MsgVerifyCodeSent}, h.toasts.last(t))
	require.Equal(t, 3, timer.Remaining())
	require.False(t, timer.Ready())
	require.Equal(t, OtpOpen, h.m.State().Kind)

	calls := h.api.Calls()
	require.Equal(t, "ann.lee@x.com", calls[len(calls)-1].Email)
}

func TestCountdown_RunsInBackground(t *testing.T) {
	var (
		mu    sync.Mutex
		ready []otp.Scope
	)
	h := newHarness(t, WithCountdown(2, 5*time.Millisecond), OnResendReady(func(s otp.Scope) {
		mu.Lock()
		ready = append(ready, s)
		mu.Unlock()
	}))
	// newHarness sets manual ticks; turn them back on
	h.m.manualTicks = false
	ctx := context.Background()

	require.NoError(t, h.m.OpenLogin(ctx))
	require.NoError(t, h.m.SwitchToForgot())
	require.NoError(t, h.m.SubmitForgot(ctx, validate.ForgotForm{Email: "a@b.co"}))

	require.Eventually(t, func() bool { return h.m.Countdown(otp.ScopeReset).Ready() }, time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []otp.Scope{otp.ScopeReset}, ready)
}

func TestForgotReset_BackToLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.m.OpenLogin(ctx))
	require.NoError(t, h.m.SwitchToForgot())
	require.Equal(t, FocusForgotEmail, h.events.last(t).Focus)

	require.Error(t, h.m.SubmitForgot(ctx, validate.ForgotForm{}))
	require.Equal(t, validate.MsgEnterEmail, h.toasts.last(t).Message)

	require.NoError(t, h.m.SubmitForgot(ctx, validate.ForgotForm{Email: "a@b.co"}))
	require.Equal(t, State{Kind: ResetOpen, Scope: otp.ScopeReset}, h.m.State())
	require.Equal(t, "a@b.co", h.m.PendingEmail())
	require.Equal(t, 60, h.m.Countdown(otp.ScopeReset).Remaining())

	// incomplete code is checked before the passwords
	require.ErrorIs(t, h.m.SubmitReset(ctx, validate.ResetForm{}), ErrIncompleteCode)
	require.True(t, h.m.Code(otp.ScopeReset).Errored())

	h.m.Code(otp.ScopeReset).Reset()
	h.m.Code(otp.ScopeReset).Paste("424242")
	err := h.m.SubmitReset(ctx, validate.ResetForm{NewPassword: "N3w!pass", ConfirmPassword: "other"})
	var ve *validate.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, validate.MsgPasswordsMismatch, ve.Message)

	require.NoError(t, h.m.SubmitReset(ctx, goodReset))
	require.Equal(t, State{Kind: LoginOpen}, h.m.State())
	require.Equal(t, FocusEmail, h.events.last(t).Focus)
	require.Equal(t, "", h.m.PendingEmail())
	require.Equal(t, "success", h.toasts.last(t).Kind)

	calls := h.api.Calls()
	require.Equal(t, call{Op: "reset", Email: "a@b.co", Code: "424242", Extra: "N3w!pass"}, calls[len(calls)-1])
}

func TestSubmitReset_RejectedFlagsCode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.OpenLogin(ctx))
	require.NoError(t, h.m.SwitchToForgot())
	require.NoError(t, h.m.SubmitForgot(ctx, validate.ForgotForm{Email: "a@b.co"}))

	h.api.Errs["reset"] = &api.APIError{Status: 400}
	h.m.Code(otp.ScopeReset).Paste("000000")
	require.ErrorIs(t, h.m.SubmitReset(ctx, goodReset), ErrInvalidCode)
	require.Equal(t, ResetOpen, h.m.State().Kind)
	require.True(t, h.m.Code(otp.ScopeReset).Errored())
	require.Equal(t, MsgInvalidCode, h.toasts.last(t).Message)
}

func TestResend_ResetScope(t *testing.T) {
	h := newHarness(t, WithCountdown(1, time.Second))
	ctx := context.Background()
	require.NoError(t, h.m.OpenLogin(ctx))
	require.NoError(t, h.m.SwitchToForgot())
	require.NoError(t, h.m.SubmitForgot(ctx, validate.ForgotForm{Email: "a@b.co"}))

	h.m.Countdown(otp.ScopeReset).Tick()
	require.NoError(t, h.m.Resend(ctx))
	require.Equal(t, MsgResetCodeSent, h.toasts.last(t).Message)
	require.Equal(t, []string{"forgot", "resend-reset"}, h.api.ops())

	// the registration countdown is untouched
	require.Equal(t, 1, h.m.Countdown(otp.ScopeRegistration).Remaining())
}

func TestClose_ResetsEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.OpenRegister(ctx))
	require.NoError(t, h.m.SubmitRegister(ctx, goodRegister))

	code := h.m.Code(otp.ScopeRegistration)
	code.Paste("12")
	code.ShowError()
	require.True(t, code.ClearPending())

	require.NoError(t, h.m.Close())
	require.Equal(t, State{Kind: Closed}, h.m.State())
	require.Equal(t, "", h.m.PendingEmail())
	require.Equal(t, "", code.Value())
	require.False(t, code.ClearPending())
	require.Equal(t, change{From: State{Kind: OtpOpen, Scope: otp.ScopeRegistration}, To: State{Kind: Closed}}, h.events.last(t))

	require.ErrorIs(t, h.m.Close(), ErrInvalidTransition)
}

func TestInvalidTransitions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.ErrorIs(t, h.m.SubmitLogin(ctx, validate.LoginForm{}), ErrInvalidTransition)
	require.ErrorIs(t, h.m.SubmitCode(ctx), ErrInvalidTransition)
	require.ErrorIs(t, h.m.Resend(ctx), ErrInvalidTransition)
	require.ErrorIs(t, h.m.SwitchToForgot(), ErrInvalidTransition)
	require.ErrorIs(t, h.m.SwitchToLogin(), ErrInvalidTransition)

	require.NoError(t, h.m.OpenRegister(ctx))
	require.ErrorIs(t, h.m.OpenLogin(ctx), ErrInvalidTransition)
	require.ErrorIs(t, h.m.SwitchToForgot(), ErrInvalidTransition)
	require.ErrorIs(t, h.m.SubmitForgot(ctx, validate.ForgotForm{Email: "a@b.co"}), ErrInvalidTransition)
	require.Equal(t, RegisterOpen, h.m.State().Kind)

	require.NoError(t, h.m.SwitchToLogin())
	require.NoError(t, h.m.SwitchToRegister())
	require.Equal(t, RegisterOpen, h.m.State().Kind)
	require.Empty(t, h.api.Calls())
	require.Zero(t, h.toasts.count())
}

func TestBusyAndLateReplyDiscarded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	gate := make(chan struct{})
	h.api.Gate = gate

	require.NoError(t, h.m.OpenLogin(ctx))
	form := validate.LoginForm{Email: "a@b.co", Password: "pw"}

	done := make(chan error, 1)
	go func() { done <- h.m.SubmitLogin(ctx, form) }()
	require.Eventually(t, func() bool { return len(h.api.Calls()) == 1 }, time.Second, time.Millisecond)

	require.True(t, h.m.Busy())
	require.ErrorIs(t, h.m.SubmitLogin(ctx, form), ErrBusy)

	require.NoError(t, h.m.Close())
	close(gate)

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrDiscarded)
	case <-time.After(time.Second):
		t.Fatal("submit did not return")
	}
	require.Equal(t, Closed, h.m.State().Kind)
	require.Equal(t, "", h.loggedIn(t), "late success must not log in")
}

func googleToken(t *testing.T, email string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": email, "name": "Ann"}).
		SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func TestSocialLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.m.OpenRegister(ctx))
	require.NoError(t, h.m.SocialLogin(ctx, googleToken(t, "ann@gmail.com")))
	require.Equal(t, Closed, h.m.State().Kind)
	require.Equal(t, "ann@gmail.com", h.loggedIn(t))
	assert.Equal(t, call{Op: "google", Email: "ann@gmail.com", Extra: "google"}, h.api.Calls()[0])
}

func TestSocialLogin_Failures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.ErrorIs(t, h.m.SocialLogin(ctx, "x"), ErrInvalidTransition)

	require.NoError(t, h.m.OpenLogin(ctx))
	require.Error(t, h.m.SocialLogin(ctx, "garbage"))
	require.Equal(t, MsgGoogleLoginFailed, h.toasts.last(t).Message)

	h.api.Errs["google"] = errors.New("boom")
	require.Error(t, h.m.SocialLogin(ctx, googleToken(t, "ann@gmail.com")))
	require.Equal(t, MsgGoogleLoginFailed, h.toasts.last(t).Message)
	require.Equal(t, LoginOpen, h.m.State().Kind)
	require.Equal(t, "", h.loggedIn(t))
}

func TestStateString(t *testing.T) {
	require.Equal(t, "otp(registration)", State{Kind: OtpOpen, Scope: otp.ScopeRegistration}.String())
	require.Equal(t, "login", State{Kind: LoginOpen}.String())
}
