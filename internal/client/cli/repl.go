package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. The real App
// satisfies it; tests provide a lightweight stub.
type execIface interface {
	Help(ctx context.Context)
	Login(ctx context.Context) error
	Register(ctx context.Context) error
	Verify(ctx context.Context, args []string) error
	Key(ctx context.Context, args []string) error
	Resend(ctx context.Context) error
	Forgot(ctx context.Context) error
	Reset(ctx context.Context, args []string) error
	Google(ctx context.Context, args []string) error
	Back(ctx context.Context) error
	Close(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Products(ctx context.Context, args []string) error
	Brands(ctx context.Context) error
	Filter(ctx context.Context, args []string) error
	Page(ctx context.Context, args []string) error
	Profile(ctx context.Context) error
	ProfileEdit(ctx context.Context) error
	Avatar(ctx context.Context, args []string) error
}

// runREPL reads commands from reader until EOF, "exit"/"quit" or ctx is
// done.
//
// Commands
//
//	help                      show commands for the open dialog
//	login                     open the sign-in dialog and submit it
//	register                  open the sign-up dialog and submit it
//	verify [code]             submit the emailed verification code
//	key <digit|bs>...         type into the focused code cell
//	resend                    request a new code once the timer ends
//	forgot                    request a password reset code
//	reset [code]              submit the reset code and a new password
//	google <id-token>         sign in with a Google ID token
//	back                      return to the sign-in dialog
//	close | esc               close the open dialog
//	logout                    sign out
//	whoami                    show the signed-in user
//	products <category>       load smartphones, chromebooks, windows or macbooks
//	brands                    list brands of the loaded listing
//	filter k=v ... | clear    brand=, os=, price=0-300,500+, q=
//	page <n>                  go to page n
//	profile                   show the account profile
//	profile-edit              change first and last name
//	avatar <path>             upload a profile picture
//	exit | quit               leave the program
//
// Handler errors are not printed here; handlers report their own errors.
func runREPL(ctx context.Context, a execIface, promptFn func() string, reader *bufio.Reader, w io.Writer) {
	for ctx.Err() == nil {
		fmt.Fprint(w, promptFn())
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "help":
			a.Help(ctx)
		case "login":
			_ = a.Login(ctx)
		case "register":
			_ = a.Register(ctx)
		case "verify":
			_ = a.Verify(ctx, args)
		case "key":
			_ = a.Key(ctx, args)
		case "resend":
			_ = a.Resend(ctx)
		case "forgot":
			_ = a.Forgot(ctx)
		case "reset":
			_ = a.Reset(ctx, args)
		case "google":
			_ = a.Google(ctx, args)
		case "back":
			_ = a.Back(ctx)
		case "close", "esc":
			_ = a.Close(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "whoami":
			_ = a.Whoami(ctx)
		case "products":
			_ = a.Products(ctx, args)
		case "brands":
			_ = a.Brands(ctx)
		case "filter":
			_ = a.Filter(ctx, args)
		case "page":
			_ = a.Page(ctx, args)
		case "profile":
			_ = a.Profile(ctx)
		case "profile-edit":
			_ = a.ProfileEdit(ctx)
		case "avatar":
			_ = a.Avatar(ctx, args)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
