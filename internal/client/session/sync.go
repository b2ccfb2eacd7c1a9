package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/techstore/internal/client/api"
	"github.com/dmitrijs2005/techstore/internal/common"
	"github.com/dmitrijs2005/techstore/internal/logging"
)

var ErrEmptyEmail = errors.New("session email is empty")

// LoginState is what every indicator renders.
type LoginState struct {
	LoggedIn bool
	Email    string
	Initials string
}

// Surface is one login indicator: the header button, the sidebar panel, the
// avatar.
type Surface interface {
	ShowLoginState(LoginState)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(LoginState)

func (f SurfaceFunc) ShowLoginState(s LoginState) { f(s) }

// LogoutAPI is the part of the identity API sign-out needs.
type LogoutAPI interface {
	Logout(ctx context.Context) (api.Response, error)
}

type Sync struct {
	store  Store
	logout LogoutAPI
	log    logging.Logger

	mu       sync.Mutex
	surfaces []Surface
}

func NewSync(store Store, logout LogoutAPI, log logging.Logger) *Sync {
	if log == nil {
		log = logging.Nop()
	}
	return &Sync{store: store, logout: logout, log: log.With("component", "session")}
}

// AddSurface registers s for future refreshes.
func (s *Sync) AddSurface(sf Surface) {
	s.mu.Lock()
	s.surfaces = append(s.surfaces, sf)
	s.mu.Unlock()
}

// SetSession stores email as the marker, replacing any previous one, and
// refreshes the indicators.
func (s *Sync) SetSession(ctx context.Context, email string) error {
	if email == "" {
		return ErrEmptyEmail
	}
	if err := s.store.Set(ctx, common.SessionEmailKey, email); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.log.Info(ctx, "session started", "email", email)
	_, err := s.Refresh(ctx)
	return err
}

// ClearSession removes the marker and the cached profile names.
func (s *Sync) ClearSession(ctx context.Context) error {
	err := s.store.Delete(ctx, common.SessionEmailKey, common.SessionFirstNameKey, common.SessionLastNameKey)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.log.Info(ctx, "session cleared")
	_, err = s.Refresh(ctx)
	return err
}

// Current returns the marker email.
func (s *Sync) Current(ctx context.Context) (string, bool, error) {
	email, ok, err := s.store.Get(ctx, common.SessionEmailKey)
	if err != nil {
		return "", false, fmt.Errorf("read session: %w", err)
	}
	if email == "" {
		return "", false, nil
	}
	return email, ok, nil
}

// LoggedIn treats a store failure as logged out.
func (s *Sync) LoggedIn(ctx context.Context) bool {
	_, ok, err := s.Current(ctx)
	if err != nil {
		s.log.Warn(ctx, "session read failed", "error", err)
		return false
	}
	return ok
}

// State derives the LoginState from the marker without rendering it.
func (s *Sync) State(ctx context.Context) (LoginState, error) {
	email, ok, err := s.Current(ctx)
	if err != nil {
		return LoginState{Initials: DeriveInitials("")}, err
	}
	if !ok {
		return LoginState{Initials: DeriveInitials("")}, nil
	}
	return LoginState{LoggedIn: true, Email: email, Initials: DeriveInitials(email)}, nil
}

// Refresh pushes the current LoginState to every surface. A store failure
// renders the logged-out state and is returned.
func (s *Sync) Refresh(ctx context.Context) (LoginState, error) {
	st, err := s.State(ctx)

	s.mu.Lock()
	surfaces := append([]Surface(nil), s.surfaces...)
	s.mu.Unlock()

	for _, sf := range surfaces {
		sf.ShowLoginState(st)
	}
	return st, err
}

// SignOut tells the identity API (best effort), then clears the marker even
// if that call failed.
func (s *Sync) SignOut(ctx context.Context) error {
	if s.logout != nil {
		if _, err := s.logout.Logout(ctx); err != nil {
			s.log.Warn(ctx, "logout call failed, clearing local session anyway", "error", err)
		}
	}
	return s.ClearSession(ctx)
}
