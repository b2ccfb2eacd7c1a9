package flow

import (
	"errors"

	"github.com/dmitrijs2005/techstore/internal/client/otp"
)

var (
	ErrInvalidTransition = errors.New("action not available in the current dialog")
	ErrBusy              = errors.New("a request is already in progress")
	ErrResendNotReady    = errors.New("resend is not available yet")
	ErrAlreadyLoggedIn   = errors.New("already logged in")
	ErrIncompleteCode    = errors.New("verification code is incomplete")
	ErrInvalidCode       = errors.New("invalid verification code")
	ErrDiscarded         = errors.New("dialog closed before the reply arrived")
)

type Kind int

const (
	Closed Kind = iota
	LoginOpen
	RegisterOpen
	OtpOpen
	ForgotOpen
	ResetOpen
)

func (k Kind) String() string {
	switch k {
	case Closed:
		return "closed"
	case LoginOpen:
		return "login"
	case RegisterOpen:
		return "register"
	case OtpOpen:
		return "otp"
	case ForgotOpen:
		return "forgot"
	case ResetOpen:
		return "reset"
	}
	return "unknown"
}

// State is the open dialog. Scope is set only for OtpOpen and ResetOpen.
type State struct {
	Kind  Kind
	Scope otp.Scope
}

func (s State) String() string {
	if s.Scope != "" {
		return s.Kind.String() + "(" + string(s.Scope) + ")"
	}
	return s.Kind.String()
}

// Fields that receive focus when a dialog opens.
const (
	FocusEmail       = "email"
	FocusFirstName   = "firstName"
	FocusForgotEmail = "forgotEmail"
	FocusOTP         = "otp"
)

// Notifier shows toasts.
type Notifier interface {
	Info(title, message string)
	Success(title, message string)
	Error(message string)
}

// Listener observes dialog changes. focus is the field to focus in the new
// dialog, or "" when closed.
type Listener interface {
	StateChanged(from, to State, focus string)
}

type nopNotifier struct{}

func (nopNotifier) Info(string, string)    {}
func (nopNotifier) Success(string, string) {}
func (nopNotifier) Error(string)           {}
