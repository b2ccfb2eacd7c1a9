// Package session owns the login marker and keeps every login indicator in
// step with it.
//
// The marker is the user's email under common.SessionEmailKey in a Store.
// Its presence is the only definition of "logged in": indicators never read
// state back from each other, they are told it by Sync.Refresh.
package session
