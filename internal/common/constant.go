// Package common contains constants shared by the client packages.
package common

// RequestIDHeaderName carries a per-call correlation id on identity requests.
const RequestIDHeaderName = "X-Request-ID"

// Keys in the session key-value store.
const (
	SessionEmailKey     = "userEmail"
	SessionFirstNameKey = "userFirstName"
	SessionLastNameKey  = "userLastName"
)
