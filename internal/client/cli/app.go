package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/techstore/internal/client/catalog"
	"github.com/dmitrijs2005/techstore/internal/client/flow"
	"github.com/dmitrijs2005/techstore/internal/client/profile"
	"github.com/dmitrijs2005/techstore/internal/client/session"
	"github.com/dmitrijs2005/techstore/internal/logging"
)

// Deps are the services the App drives. Flow must be built with the App's
// Terminal as notifier and listener, see NewTerminal.
type Deps struct {
	Flow    *flow.Machine
	Session *session.Sync
	Catalog *catalog.Service
	Profile *profile.Service
	Term    *Terminal
	Log     logging.Logger
}

type App struct {
	flow    *flow.Machine
	session *session.Sync
	catalog *catalog.Service
	profile *profile.Service
	term    *Terminal
	log     logging.Logger

	requestTimeout time.Duration
	reader         *bufio.Reader
	out            io.Writer
}

type Option func(*App)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.reader = bufio.NewReader(in)
		a.out = out
	}
}

// WithRequestTimeout bounds every identity and profile call.
func WithRequestTimeout(d time.Duration) Option {
	return func(a *App) { a.requestTimeout = d }
}

func NewApp(d Deps, opts ...Option) *App {
	a := &App{
		flow:    d.Flow,
		session: d.Session,
		catalog: d.Catalog,
		profile: d.Profile,
		term:    d.Term,
		log:     d.Log,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
	for _, o := range opts {
		o(a)
	}
	if a.log == nil {
		a.log = logging.Nop()
	}
	if a.term == nil {
		a.term = NewTerminal(a.out)
	}
	return a
}

// Run renders the login indicators and blocks in the REPL until the user
// exits or ctx is done. Any open dialog is closed on the way out.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to the techstore CLI (type 'help' for commands)")
	if _, err := a.session.Refresh(ctx); err != nil {
		a.log.Warn(ctx, "session refresh failed", "error", err)
	}

	runREPL(ctx, a, a.prompt, a.reader, a.out)

	if a.flow.State().Kind != flow.Closed {
		_ = a.flow.Close()
	}
}

func (a *App) prompt() string {
	return a.term.Prompt(a.flow.State())
}

func (a *App) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.requestTimeout)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// report explains flow errors that were not already shown as a toast. The
// error is returned unchanged.
func (a *App) report(ctx context.Context, err error) error {
	switch {
	case err == nil:
	case errors.Is(err, flow.ErrAlreadyLoggedIn):
		email, _, _ := a.session.Current(ctx)
		a.println(fmt.Sprintf("Already logged in as %s. Use 'logout' first.", email))
	case errors.Is(err, flow.ErrInvalidTransition):
		a.println(fmt.Sprintf("Not available in the %s dialog. Type 'help'.", a.flow.State()))
	case errors.Is(err, flow.ErrResendNotReady):
		if c := a.flow.Countdown(a.flow.State().Scope); c != nil {
			a.println(fmt.Sprintf("Please wait %ds before requesting a new code.", c.Remaining()))
		}
	case errors.Is(err, flow.ErrBusy), errors.Is(err, flow.ErrDiscarded):
		a.println(err.Error())
	}
	return err
}
