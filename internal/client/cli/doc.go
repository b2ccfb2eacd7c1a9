// Package cli is the interactive techstore terminal client.
//
// The REPL stands in for the storefront page: commands open and submit the
// sign-in dialogs driven by flow.Machine, browse the product catalog and
// manage the profile. Toasts, the header, the sidebar panel and the avatar
// are rendered by Terminal, which implements flow.Notifier, flow.Listener and
// session.Surface.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits or
// ctx is cancelled. See runREPL for the command list.
package cli
