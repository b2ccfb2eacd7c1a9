package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dmitrijs2005/techstore/internal/client/flow"
	"github.com/dmitrijs2005/techstore/internal/client/otp"
	"github.com/dmitrijs2005/techstore/internal/client/session"
	"github.com/dmitrijs2005/techstore/internal/client/validate"
)

// countdownEvery limits countdown output to one line per this many seconds.
const countdownEvery = 15

// Terminal writes toasts, dialog changes and login indicators to out. Timer
// callbacks arrive on their own goroutines, so writes are serialized.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer

	header  string
	avatar  string
	sidebar *session.LoginState
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out, header: "Login", avatar: "U"}
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) Info(title, message string) { t.printf("[i] %s: %s\n", title, message) }

func (t *Terminal) Success(title, message string) { t.printf("[ok] %s: %s\n", title, message) }

func (t *Terminal) Error(message string) { t.printf("[!] %s\n", message) }

var dialogHints = map[flow.Kind]string{
	flow.LoginOpen:    "Sign in: 'login', 'google <id-token>', 'register', 'forgot' or 'close'.",
	flow.RegisterOpen: "Create an account: 'register', 'google <id-token>', 'back' to sign in or 'close'.",
	flow.OtpOpen:      "Check your email: 'verify <code>' or 'key <digit>...' then 'verify', 'resend' when the timer ends, or 'close'.",
	flow.ForgotOpen:   "Reset your password: 'forgot', 'back' to sign in or 'close'.",
	flow.ResetOpen:    "Enter the reset code and a new password: 'reset <code>', 'resend' or 'close'.",
}

func (t *Terminal) StateChanged(from, to flow.State, focus string) {
	if to.Kind == flow.Closed {
		if from.Kind != flow.Closed {
			t.printf("-- %s closed --\n", from.Kind)
		}
		return
	}
	t.printf("-- %s --\n%s\n", to.Kind, dialogHints[to.Kind])
}

// ShowCode renders the six code cells. Errored cells are marked with '!'.
func (t *Terminal) ShowCode(s otp.Snapshot) {
	var b strings.Builder
	for i, c := range s.Cells {
		switch {
		case s.Errored:
			b.WriteString("[!]")
		case c == "":
			if i == s.Focus {
				b.WriteString("[_]")
			} else {
				b.WriteString("[ ]")
			}
		default:
			b.WriteString("[" + c + "]")
		}
	}
	t.printf("Code %s\n", b.String())
}

func (t *Terminal) CountdownTick(scope otp.Scope, remaining int) {
	if remaining <= 0 || remaining%countdownEvery != 0 {
		return
	}
	t.printf("Resend code in %ds\n", remaining)
}

func (t *Terminal) ResendReady(scope otp.Scope) {
	t.printf("You can request a new %s code now with 'resend'.\n", scope)
}

// ShowRequirements prints the password checklist and, once a confirmation is
// typed, the match indicator.
func (t *Terminal) ShowRequirements(r validate.Requirements, m validate.Match) {
	mark := func(ok bool) string {
		if ok {
			return "x"
		}
		return " "
	}
	t.printf("[%s] at least %d characters  [%s] uppercase  [%s] lowercase  [%s] number  [%s] special\n",
		mark(r.Length), validate.MinPasswordLength, mark(r.Uppercase), mark(r.Lowercase), mark(r.Number), mark(r.Special))
	if m != validate.MatchHidden {
		t.printf("%s\n", m)
	}
}

// Header is the "Login" button in the page header; it shows the email once
// signed in.
func (t *Terminal) Header() session.Surface {
	return session.SurfaceFunc(func(s session.LoginState) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if s.LoggedIn {
			t.header = s.Email
		} else {
			t.header = "Login"
		}
	})
}

// Avatar is the round initials badge next to the header.
func (t *Terminal) Avatar() session.Surface {
	return session.SurfaceFunc(func(s session.LoginState) {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.avatar = s.Initials
	})
}

// Sidebar is the account panel. It prints only when the state changes.
func (t *Terminal) Sidebar() session.Surface {
	return session.SurfaceFunc(func(s session.LoginState) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.sidebar != nil && *t.sidebar == s {
			return
		}
		t.sidebar = &s
		if s.LoggedIn {
			fmt.Fprintf(t.out, "Signed in as %s (%s)\n", s.Email, s.Initials)
		} else {
			fmt.Fprintln(t.out, "Not signed in")
		}
	})
}

// Prompt is the REPL prompt for the open dialog.
func (t *Terminal) Prompt(st flow.State) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := fmt.Sprintf("techstore (%s %s)", t.avatar, t.header)
	if st.Kind != flow.Closed {
		p += " [" + st.String() + "]"
	}
	return p + "> "
}
