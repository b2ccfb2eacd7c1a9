package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/techstore/internal/client/api"
	"github.com/dmitrijs2005/techstore/internal/client/countdown"
	"github.com/dmitrijs2005/techstore/internal/client/models"
	"github.com/dmitrijs2005/techstore/internal/client/otp"
	"github.com/dmitrijs2005/techstore/internal/client/social"
	"github.com/dmitrijs2005/techstore/internal/client/validate"
	"github.com/dmitrijs2005/techstore/internal/logging"
)

// Session is the part of session.Sync the dialogs need.
type Session interface {
	LoggedIn(ctx context.Context) bool
	SetSession(ctx context.Context, email string) error
}

type Machine struct {
	api     api.IdentityAPI
	session Session
	notify  Notifier
	listen  Listener
	log     logging.Logger

	countdownSeconds int
	tickInterval     time.Duration
	manualTicks      bool
	otpErrorDelay    time.Duration
	onTick           func(scope otp.Scope, remaining int)
	onReady          func(scope otp.Scope)
	onOTPChange      func(otp.Snapshot)

	codes  map[otp.Scope]*otp.Input
	timers map[otp.Scope]*countdown.Countdown

	mu        sync.Mutex
	state     State
	pending   string
	epoch     uint64
	busy      bool
	cancelRun context.CancelFunc
}

type Option func(*Machine)

func WithNotifier(n Notifier) Option { return func(m *Machine) { m.notify = n } }
func WithListener(l Listener) Option { return func(m *Machine) { m.listen = l } }
func WithLogger(l logging.Logger) Option {
	return func(m *Machine) { m.log = l }
}

// WithCountdown sets the resend countdown length and tick period.
func WithCountdown(seconds int, interval time.Duration) Option {
	return func(m *Machine) {
		m.countdownSeconds = seconds
		m.tickInterval = interval
	}
}

// WithManualTicks disables the countdown goroutine; the caller ticks through
// Countdown(scope).Tick.
func WithManualTicks() Option { return func(m *Machine) { m.manualTicks = true } }

func WithOTPErrorDelay(d time.Duration) Option {
	return func(m *Machine) { m.otpErrorDelay = d }
}

// OnCountdownTick is called with the remaining seconds after every tick and
// restart.
func OnCountdownTick(fn func(scope otp.Scope, remaining int)) Option {
	return func(m *Machine) { m.onTick = fn }
}

// OnResendReady is called once per countdown run when it reaches zero.
func OnResendReady(fn func(scope otp.Scope)) Option {
	return func(m *Machine) { m.onReady = fn }
}

// OnOTPChange is called after every change to either code input.
func OnOTPChange(fn func(otp.Snapshot)) Option {
	return func(m *Machine) { m.onOTPChange = fn }
}

func New(identity api.IdentityAPI, session Session, opts ...Option) *Machine {
	m := &Machine{
		api:              identity,
		session:          session,
		notify:           nopNotifier{},
		log:              logging.Nop(),
		countdownSeconds: countdown.DefaultSeconds,
		tickInterval:     time.Second,
		otpErrorDelay:    otp.DefaultErrorClearDelay,
	}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.With("component", "auth_flow")

	m.codes = make(map[otp.Scope]*otp.Input)
	m.timers = make(map[otp.Scope]*countdown.Countdown)
	for _, scope := range []otp.Scope{otp.ScopeRegistration, otp.ScopeReset} {
		scope := scope
		inOpts := []otp.Option{otp.WithErrorClearDelay(m.otpErrorDelay)}
		if m.onOTPChange != nil {
			inOpts = append(inOpts, otp.OnChange(m.onOTPChange))
		}
		m.codes[scope] = otp.New(scope, inOpts...)

		m.timers[scope] = countdown.New(m.countdownSeconds,
			countdown.WithInterval(m.tickInterval),
			countdown.OnTick(func(rem int) {
				if m.onTick != nil {
					m.onTick(scope, rem)
				}
			}),
			countdown.OnReady(func() {
				m.log.Debug(context.Background(), "resend enabled", "scope", scope)
				if m.onReady != nil {
					m.onReady(scope)
				}
			}),
		)
	}
	return m
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// PendingEmail is the email the open verification or reset dialog is for.
func (m *Machine) PendingEmail() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Busy reports whether a submission is outstanding.
func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Code returns the code input for scope.
func (m *Machine) Code(scope otp.Scope) *otp.Input { return m.codes[scope] }

// Countdown returns the resend countdown for scope.
func (m *Machine) Countdown(scope otp.Scope) *countdown.Countdown { return m.timers[scope] }

func (m *Machine) OpenLogin(ctx context.Context) error {
	if err := m.expect(Closed); err != nil {
		return err
	}
	if m.session != nil && m.session.LoggedIn(ctx) {
		return ErrAlreadyLoggedIn
	}
	return m.move(m.in(Closed), State{Kind: LoginOpen}, "", FocusEmail)
}

func (m *Machine) OpenRegister(context.Context) error {
	return m.move(m.in(Closed), State{Kind: RegisterOpen}, "", FocusFirstName)
}

func (m *Machine) SwitchToRegister() error {
	return m.move(m.in(LoginOpen), State{Kind: RegisterOpen}, "", FocusFirstName)
}

func (m *Machine) SwitchToForgot() error {
	return m.move(m.in(LoginOpen), State{Kind: ForgotOpen}, "", FocusForgotEmail)
}

func (m *Machine) SwitchToLogin() error {
	return m.move(m.in(RegisterOpen, ForgotOpen), State{Kind: LoginOpen}, "", FocusEmail)
}

// Close closes whatever dialog is open: escape, overlay click or the close
// button.
func (m *Machine) Close() error {
	return m.move(m.in(LoginOpen, RegisterOpen, OtpOpen, ForgotOpen, ResetOpen), State{Kind: Closed}, "", "")
}

func (m *Machine) SubmitLogin(ctx context.Context, form validate.LoginForm) error {
	if err := m.expect(LoginOpen); err != nil {
		return err
	}
	if err := m.checkForm(form.Check()); err != nil {
		return err
	}
	ep, err := m.begin(LoginOpen)
	if err != nil {
		return err
	}

	_, err = m.api.Login(ctx, models.LoginRequest{Email: form.Email, Password: form.Password})
	if err != nil {
		return m.fail(ctx, ep, err, MsgLoginFailed)
	}
	if err := m.move(m.at(ep), State{Kind: Closed}, "", ""); err != nil {
		return err
	}

	m.log.Info(ctx, "logged in", "email", form.Email)
	if err := m.session.SetSession(ctx, form.Email); err != nil {
		m.log.Error(ctx, "save session failed", "error", err)
	}
	m.notify.Success("Login Successful", fmt.Sprintf("Welcome back, %s!", form.Email))
	return nil
}

func (m *Machine) SubmitRegister(ctx context.Context, form validate.RegisterForm) error {
	if err := m.expect(RegisterOpen); err != nil {
		return err
	}
	if err := m.checkForm(form.Check()); err != nil {
		return err
	}
	ep, err := m.begin(RegisterOpen)
	if err != nil {
		return err
	}

	_, err = m.api.Register(ctx, models.RegisterRequest{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
	})
	if err != nil {
		return m.fail(ctx, ep, err, MsgRegisterFailed)
	}
	next := State{Kind: OtpOpen, Scope: otp.ScopeRegistration}
	if err := m.move(m.at(ep), next, form.Email, FocusOTP); err != nil {
		return err
	}

	m.log.Info(ctx, "registration submitted", "email", form.Email)
	m.notify.Success("Registration Successful", fmt.Sprintf("We sent a verification code to %s.", form.Email))
	return nil
}

// SubmitCode verifies the registration code typed into the OTP dialog.
func (m *Machine) SubmitCode(ctx context.Context) error {
	if err := m.expect(OtpOpen); err != nil {
		return err
	}
	code := m.codes[otp.ScopeRegistration]
	if !code.IsComplete() {
		code.ShowError()
		m.notify.Error(validate.MsgIncompleteCode)
		return ErrIncompleteCode
	}
	ep, err := m.begin(OtpOpen)
	if err != nil {
		return err
	}
	email := m.PendingEmail()

	_, err = m.api.VerifyEmail(ctx, email, code.Value())
	if err != nil {
		if !m.end(ep) {
			return ErrDiscarded
		}
		code.ShowError()
		m.log.Warn(ctx, "verification rejected", "email", email, "error", err)
		m.notify.Error(api.UserMessage(err, MsgInvalidCode))
		return fmt.Errorf("%w: %w", ErrInvalidCode, err)
	}
	if err := m.move(m.at(ep), State{Kind: Closed}, "", ""); err != nil {
		return err
	}

	m.log.Info(ctx, "email verified", "email", email)
	if err := m.session.SetSession(ctx, email); err != nil {
		m.log.Error(ctx, "save session failed", "error", err)
	}
	m.notify.Success("Email Verified", fmt.Sprintf("Welcome, %s!", email))
	return nil
}

// Resend requests a new code for the open verification or reset dialog. It
// is refused until the countdown reaches zero.
func (m *Machine) Resend(ctx context.Context) error {
	m.mu.Lock()
	st, ep, email := m.state, m.epoch, m.pending
	m.mu.Unlock()
	if st.Kind != OtpOpen && st.Kind != ResetOpen {
		return ErrInvalidTransition
	}

	timer := m.timers[st.Scope]
	if !timer.BeginSend() {
		return ErrResendNotReady
	}

	resend, fallback, sent := m.api.ResendVerification, MsgResendVerifyFailed, MsgVerifyCodeSent
	if st.Scope == otp.ScopeReset {
		resend, fallback, sent = m.api.ResendResetCode, MsgResendResetFailed, MsgResetCodeSent
	}

	if _, err := resend(ctx, email); err != nil {
		timer.EndSend()
		if !m.current(ep) {
			return ErrDiscarded
		}
		m.log.Warn(ctx, "resend failed", "scope", st.Scope, "error", err)
		m.notify.Error(api.UserMessage(err, fallback))
		return err
	}
	if !m.restartCountdown(ep, st.Scope) {
		timer.EndSend()
		return ErrDiscarded
	}

	m.log.Info(ctx, "code resent", "scope", st.Scope, "email", email)
	m.notify.Info("Code Sent", sent)
	return nil
}

func (m *Machine) SubmitForgot(ctx context.Context, form validate.ForgotForm) error {
	if err := m.expect(ForgotOpen); err != nil {
		return err
	}
	if err := m.checkForm(form.Check()); err != nil {
		return err
	}
	ep, err := m.begin(ForgotOpen)
	if err != nil {
		return err
	}

	if _, err := m.api.ForgotPassword(ctx, form.Email); err != nil {
		return m.fail(ctx, ep, err, MsgForgotFailed)
	}
	next := State{Kind: ResetOpen, Scope: otp.ScopeReset}
	if err := m.move(m.at(ep), next, form.Email, FocusOTP); err != nil {
		return err
	}

	m.log.Info(ctx, "password reset requested", "email", form.Email)
	m.notify.Success("Reset Code Sent", fmt.Sprintf("We sent a password reset code to %s.", form.Email))
	return nil
}

// SubmitReset sends the reset code with the new password. On success the
// login dialog opens.
func (m *Machine) SubmitReset(ctx context.Context, form validate.ResetForm) error {
	if err := m.expect(ResetOpen); err != nil {
		return err
	}
	code := m.codes[otp.ScopeReset]
	if !code.IsComplete() {
		code.ShowError()
		m.notify.Error(validate.MsgIncompleteCode)
		return ErrIncompleteCode
	}
	if err := m.checkForm(form.Check()); err != nil {
		return err
	}
	ep, err := m.begin(ResetOpen)
	if err != nil {
		return err
	}
	email := m.PendingEmail()

	if _, err := m.api.ResetPassword(ctx, email, code.Value(), form.NewPassword); err != nil {
		if !m.end(ep) {
			return ErrDiscarded
		}
		code.ShowError()
		m.log.Warn(ctx, "password reset rejected", "email", email, "error", err)
		m.notify.Error(api.UserMessage(err, MsgInvalidCode))
		return fmt.Errorf("%w: %w", ErrInvalidCode, err)
	}
	if err := m.move(m.at(ep), State{Kind: LoginOpen}, "", FocusEmail); err != nil {
		return err
	}

	m.log.Info(ctx, "password reset", "email", email)
	m.notify.Success("Password Reset", "Your password has been reset. Please log in with your new password.")
	return nil
}

// SocialLogin completes "Sign in with Google" from the login or register
// dialog using the credential Google returned.
func (m *Machine) SocialLogin(ctx context.Context, idToken string) error {
	st := m.State()
	if st.Kind != LoginOpen && st.Kind != RegisterOpen {
		return ErrInvalidTransition
	}
	fallback := MsgGoogleLoginFailed
	if st.Kind == RegisterOpen {
		fallback = MsgGoogleRegFailed
	}

	cred, err := social.ParseGoogleCredential(idToken)
	if err != nil {
		m.notify.Error(fallback)
		return err
	}
	ep, err := m.begin(st.Kind)
	if err != nil {
		return err
	}

	if _, err := m.api.GoogleAuth(ctx, cred.AuthRequest()); err != nil {
		return m.fail(ctx, ep, err, fallback)
	}
	if err := m.move(m.at(ep), State{Kind: Closed}, "", ""); err != nil {
		return err
	}

	m.log.Info(ctx, "logged in with google", "email", cred.Email)
	if err := m.session.SetSession(ctx, cred.Email); err != nil {
		m.log.Error(ctx, "save session failed", "error", err)
	}
	m.notify.Success("Login Successful", "Welcome! Successfully logged in with Google")
	return nil
}

// expect is the early state check done before local validation.
func (m *Machine) expect(kind Kind) error {
	if m.State().Kind != kind {
		return ErrInvalidTransition
	}
	return nil
}

func (m *Machine) checkForm(err error) error {
	if err == nil {
		return nil
	}
	m.notify.Error(err.Error())
	return err
}

// begin marks a submission outstanding and returns its epoch.
func (m *Machine) begin(kind Kind) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Kind != kind {
		return 0, ErrInvalidTransition
	}
	if m.busy {
		return 0, ErrBusy
	}
	m.busy = true
	return m.epoch, nil
}

// end clears the busy mark. It reports false when the dialog changed since
// begin, in which case the reply must be dropped.
func (m *Machine) end(ep uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != ep {
		return false
	}
	m.busy = false
	return true
}

func (m *Machine) current(ep uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch == ep
}

// fail ends a submission that the API rejected, keeping the dialog open.
func (m *Machine) fail(ctx context.Context, ep uint64, err error, fallback string) error {
	if !m.end(ep) {
		m.log.Debug(ctx, "late reply dropped", "error", err)
		return ErrDiscarded
	}
	m.log.Warn(ctx, "request failed", "error", err)
	m.notify.Error(api.UserMessage(err, fallback))
	return err
}

// in allows a move from any of kinds. Called with mu held.
func (m *Machine) in(kinds ...Kind) func() error {
	return func() error {
		for _, k := range kinds {
			if m.state.Kind == k {
				return nil
			}
		}
		return ErrInvalidTransition
	}
}

// at allows a move only if nothing changed since epoch ep. Called with mu
// held.
func (m *Machine) at(ep uint64) func() error {
	return func() error {
		if m.epoch != ep {
			return ErrDiscarded
		}
		return nil
	}
}

// move switches to next when check passes. Leaving a code dialog resets its
// input and stops its countdown; entering one starts both afresh.
func (m *Machine) move(check func() error, next State, pending, focus string) error {
	m.mu.Lock()
	if err := check(); err != nil {
		m.mu.Unlock()
		return err
	}
	prev := m.state
	m.state = next
	m.pending = pending
	m.epoch++
	m.busy = false
	stop := m.cancelRun
	m.cancelRun = nil
	var runCtx context.Context
	if next.Scope != "" && !m.manualTicks {
		runCtx, m.cancelRun = context.WithCancel(context.Background())
	}
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
	if prev.Scope != "" {
		m.timers[prev.Scope].Stop()
		m.codes[prev.Scope].Reset()
	}
	if next.Scope != "" {
		m.codes[next.Scope].Reset()
		m.startCountdown(runCtx, next.Scope)
	}

	m.log.Debug(context.Background(), "dialog changed", "from", prev, "to", next)
	if m.listen != nil {
		m.listen.StateChanged(prev, next, focus)
	}
	return nil
}

func (m *Machine) restartCountdown(ep uint64, scope otp.Scope) bool {
	m.mu.Lock()
	if m.epoch != ep {
		m.mu.Unlock()
		return false
	}
	stop := m.cancelRun
	m.cancelRun = nil
	var runCtx context.Context
	if !m.manualTicks {
		runCtx, m.cancelRun = context.WithCancel(context.Background())
	}
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
	m.startCountdown(runCtx, scope)
	return true
}

func (m *Machine) startCountdown(runCtx context.Context, scope otp.Scope) {
	c := m.timers[scope]
	c.Restart()
	if runCtx != nil {
		go c.Run(runCtx)
	}
}
