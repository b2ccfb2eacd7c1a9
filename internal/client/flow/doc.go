// Package flow drives the authentication dialogs: login, registration,
// email verification, forgot password and password reset.
//
// A Machine owns a single State, so at most one dialog is open. Every
// user action is a method; an action that is not legal in the current state
// returns ErrInvalidTransition and changes nothing. Network calls are made
// without holding the machine lock. A reply that arrives after its dialog
// was closed or replaced is dropped and the call returns ErrDiscarded.
//
// Each OTP dialog owns an otp.Input and a countdown.Countdown for its scope.
// Leaving the dialog resets the input, stops the countdown and forgets the
// pending email.
package flow
