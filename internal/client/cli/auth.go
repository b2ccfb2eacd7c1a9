package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/techstore/internal/client/flow"
	"github.com/dmitrijs2005/techstore/internal/client/otp"
	"github.com/dmitrijs2005/techstore/internal/client/validate"
)

// getSimpleText, getPassword and confirm are indirections used to facilitate
// testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	confirm       = Confirm
)

var helpByDialog = map[flow.Kind]string{
	flow.Closed:       "Available commands: login, register, logout, whoami, products <category>, brands, filter, page <n>, profile, profile-edit, avatar <path>, exit",
	flow.LoginOpen:    "Available commands: login, google <id-token>, register, forgot, close, exit",
	flow.RegisterOpen: "Available commands: register, google <id-token>, back, close, exit",
	flow.OtpOpen:      "Available commands: verify [code], key <digit|bs>..., resend, close, exit",
	flow.ForgotOpen:   "Available commands: forgot, back, close, exit",
	flow.ResetOpen:    "Available commands: reset [code], key <digit|bs>..., resend, close, exit",
}

func (a *App) Help(ctx context.Context) {
	a.println(helpByDialog[a.flow.State().Kind])
}

// openLogin brings up the sign-in dialog from wherever it is reachable.
func (a *App) openLogin(ctx context.Context) error {
	switch a.flow.State().Kind {
	case flow.LoginOpen:
		return nil
	case flow.RegisterOpen, flow.ForgotOpen:
		return a.flow.SwitchToLogin()
	default:
		return a.flow.OpenLogin(ctx)
	}
}

// Login opens the sign-in dialog if needed, then prompts for credentials and
// submits them. A rejected login leaves the dialog open for another try.
func (a *App) Login(ctx context.Context) error {
	if err := a.openLogin(ctx); err != nil {
		return a.report(ctx, err)
	}

	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Password", a.out)
	if err != nil {
		return err
	}

	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	return a.report(ctx, a.flow.SubmitLogin(rctx, validate.LoginForm{Email: email, Password: password}))
}

// Register opens the sign-up dialog if needed and walks through its fields.
func (a *App) Register(ctx context.Context) error {
	var err error
	switch a.flow.State().Kind {
	case flow.RegisterOpen:
	case flow.LoginOpen:
		err = a.flow.SwitchToRegister()
	default:
		err = a.flow.OpenRegister(ctx)
	}
	if err != nil {
		return a.report(ctx, err)
	}

	var form validate.RegisterForm
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"First name", &form.FirstName},
		{"Last name", &form.LastName},
		{"Email", &form.Email},
	}
	for _, f := range fields {
		if *f.dst, err = getSimpleText(a.reader, f.prompt, a.out); err != nil {
			return err
		}
	}

	if form.Password, err = getPassword(a.reader, "Password", a.out); err != nil {
		return err
	}
	a.term.ShowRequirements(validate.PasswordRequirements(form.Password), validate.MatchHidden)
	if form.ConfirmPassword, err = getPassword(a.reader, "Confirm password", a.out); err != nil {
		return err
	}
	a.term.ShowRequirements(validate.PasswordRequirements(form.Password), validate.PasswordsMatch(form.Password, form.ConfirmPassword))
	if form.AgreeTerms, err = confirm(a.reader, "I agree to the Terms of Service and Privacy Policy", a.out); err != nil {
		return err
	}

	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	return a.report(ctx, a.flow.SubmitRegister(rctx, form))
}

// enterCode fills the code cells of scope from args or a prompt. With no
// args, a complete code typed cell by cell through Key is used as is.
func (a *App) enterCode(scope otp.Scope, args []string) error {
	text := strings.Join(args, "")
	if text == "" {
		if code := a.flow.Code(scope); code.IsComplete() && !code.Errored() {
			return nil
		}
		var err error
		if text, err = getSimpleText(a.reader, "Enter the 6-digit code", a.out); err != nil {
			return err
		}
	}

	// A short code must not mix with digits left from an earlier attempt.
	code := a.flow.Code(scope)
	if len(strings.Map(keepDigit, text)) < otp.Length {
		code.Reset()
	}
	code.Paste(text)
	return nil
}

// Key types keystrokes into the focused cell of the open code dialog, one
// per arg: a digit fills the cell, "bs" is a backspace and anything else
// clears the cell.
func (a *App) Key(ctx context.Context, args []string) error {
	var scope otp.Scope
	switch a.flow.State().Kind {
	case flow.OtpOpen:
		scope = otp.ScopeRegistration
	case flow.ResetOpen:
		scope = otp.ScopeReset
	default:
		return a.report(ctx, flow.ErrInvalidTransition)
	}

	code := a.flow.Code(scope)
	for _, k := range args {
		if strings.EqualFold(k, "bs") {
			code.Backspace(code.Focus())
			continue
		}
		code.Enter(code.Focus(), k)
	}
	return nil
}

func keepDigit(r rune) rune {
	if r >= '0' && r <= '9' {
		return r
	}
	return -1
}

func (a *App) Verify(ctx context.Context, args []string) error {
	if a.flow.State().Kind != flow.OtpOpen {
		return a.report(ctx, flow.ErrInvalidTransition)
	}
	if err := a.enterCode(otp.ScopeRegistration, args); err != nil {
		return err
	}

	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	return a.report(ctx, a.flow.SubmitCode(rctx))
}

func (a *App) Resend(ctx context.Context) error {
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	return a.report(ctx, a.flow.Resend(rctx))
}

// Forgot opens the forgot-password dialog (through the sign-in dialog when
// nothing is open) and asks for the account email.
func (a *App) Forgot(ctx context.Context) error {
	if a.flow.State().Kind != flow.ForgotOpen {
		if err := a.openLogin(ctx); err != nil {
			return a.report(ctx, err)
		}
		if err := a.flow.SwitchToForgot(); err != nil {
			return a.report(ctx, err)
		}
	}

	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}

	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	return a.report(ctx, a.flow.SubmitForgot(rctx, validate.ForgotForm{Email: email}))
}

func (a *App) Reset(ctx context.Context, args []string) error {
	if a.flow.State().Kind != flow.ResetOpen {
		return a.report(ctx, flow.ErrInvalidTransition)
	}
	if err := a.enterCode(otp.ScopeReset, args); err != nil {
		return err
	}

	var (
		form validate.ResetForm
		err  error
	)
	if form.NewPassword, err = getPassword(a.reader, "New password", a.out); err != nil {
		return err
	}
	if form.ConfirmPassword, err = getPassword(a.reader, "Confirm new password", a.out); err != nil {
		return err
	}
	a.term.ShowRequirements(validate.PasswordRequirements(form.NewPassword), validate.PasswordsMatch(form.NewPassword, form.ConfirmPassword))

	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	return a.report(ctx, a.flow.SubmitReset(rctx, form))
}

// Google completes social sign-in with an ID token obtained from Google.
func (a *App) Google(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.println("Usage: google <id-token>")
		return nil
	}
	if k := a.flow.State().Kind; k != flow.LoginOpen && k != flow.RegisterOpen {
		if err := a.flow.OpenLogin(ctx); err != nil {
			return a.report(ctx, err)
		}
	}

	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	return a.report(ctx, a.flow.SocialLogin(rctx, args[0]))
}

func (a *App) Back(ctx context.Context) error {
	return a.report(ctx, a.flow.SwitchToLogin())
}

func (a *App) Close(ctx context.Context) error {
	if a.flow.State().Kind == flow.Closed {
		return nil
	}
	return a.report(ctx, a.flow.Close())
}

// Logout signs out on the server (best effort) and clears the local session.
func (a *App) Logout(ctx context.Context) error {
	if !a.session.LoggedIn(ctx) {
		a.println("Not logged in")
		return nil
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	if err := a.session.SignOut(rctx); err != nil {
		a.println("Logout failed:", err)
		return err
	}
	a.term.Success("Logged Out", "You have been signed out.")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	st, err := a.session.State(ctx)
	if err != nil {
		a.println("Could not read session:", err)
		return err
	}
	if !st.LoggedIn {
		a.println("Not logged in")
		return nil
	}
	a.println(st.Email, "("+st.Initials+")")
	return nil
}
