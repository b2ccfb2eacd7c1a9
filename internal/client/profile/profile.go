// Package profile loads and edits the signed-in user's profile: names,
// verification badge, initials and avatar.
package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/techstore/internal/client/api"
	"github.com/dmitrijs2005/techstore/internal/client/models"
	"github.com/dmitrijs2005/techstore/internal/client/session"
	"github.com/dmitrijs2005/techstore/internal/client/validate"
	"github.com/dmitrijs2005/techstore/internal/common"
	"github.com/dmitrijs2005/techstore/internal/filex"
	"github.com/dmitrijs2005/techstore/internal/logging"
	"github.com/dmitrijs2005/techstore/internal/netx"
	"github.com/google/uuid"
)

var (
	ErrNotLoggedIn  = errors.New("Please log in to access account management")
	ErrUpdateFailed = errors.New("Failed to update profile")
	ErrNoStorage    = errors.New("avatar storage is not configured")
)

var (
	uploadToPresignedURL = netx.UploadToPresignedURL
	now                  = time.Now
)

// Session is the part of session.Sync the profile needs.
type Session interface {
	Current(ctx context.Context) (string, bool, error)
}

type Service struct {
	api     api.IdentityAPI
	session Session
	store   session.Store
	presign Presigner
	http    *http.Client
	log     logging.Logger
}

type Option func(*Service)

// WithPresigner enables UploadAvatar.
func WithPresigner(p Presigner) Option { return func(s *Service) { s.presign = p } }

// WithUploadClient sets the HTTP client used for the object PUT.
func WithUploadClient(c *http.Client) Option { return func(s *Service) { s.http = c } }

func WithLogger(l logging.Logger) Option { return func(s *Service) { s.log = l } }

func NewService(identity api.IdentityAPI, sess Session, store session.Store, opts ...Option) *Service {
	s := &Service{api: identity, session: sess, store: store, log: logging.Nop()}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("component", "profile")
	return s
}

func (s *Service) email(ctx context.Context) (string, error) {
	email, ok, err := s.session.Current(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotLoggedIn
	}
	return email, nil
}

// Load fetches the profile of the signed-in user. When the API call fails
// the returned UserInfo still carries the session email, alongside the
// error.
func (s *Service) Load(ctx context.Context) (models.UserInfo, error) {
	email, err := s.email(ctx)
	if err != nil {
		return models.UserInfo{}, err
	}

	resp, err := s.api.GetUserInfo(ctx, email)
	if err != nil {
		s.log.Warn(ctx, "profile load failed", "email", email, "error", err)
		return models.UserInfo{Email: email}, fmt.Errorf("Failed to load profile data: %w", err)
	}

	var u models.UserInfo
	if err := resp.Decode("user", &u); err != nil {
		return models.UserInfo{Email: email}, fmt.Errorf("decode profile: %w", err)
	}
	if u.Email == "" {
		u.Email = email
	}
	return u, nil
}

// Update changes the user's names. The new names are cached in the session
// store on success.
func (s *Service) Update(ctx context.Context, firstName, lastName string) error {
	if err := (validate.ProfileForm{FirstName: firstName, LastName: lastName}).Check(); err != nil {
		return err
	}
	email, err := s.email(ctx)
	if err != nil {
		return err
	}

	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	resp, err := s.api.UpdateUserInfo(ctx, models.UpdateUserRequest{Email: email, FirstName: firstName, LastName: lastName})
	if err != nil {
		return err
	}
	if ok, _ := resp.Success(); !ok {
		if msg := resp.Message(); msg != "" {
			return &api.APIError{Status: http.StatusOK, Message: msg}
		}
		return ErrUpdateFailed
	}

	if err := s.store.Set(ctx, common.SessionFirstNameKey, firstName); err != nil {
		return err
	}
	if err := s.store.Set(ctx, common.SessionLastNameKey, lastName); err != nil {
		return err
	}
	s.log.Info(ctx, "profile updated", "email", email)
	return nil
}

// AvatarKey is the object key for a new avatar uploaded at t.
func AvatarKey(t time.Time, ext string) string {
	return fmt.Sprintf("avatars/%04d/%02d/%02d/%s%s", t.Year(), int(t.Month()), t.Day(), uuid.New(), strings.ToLower(ext))
}

// UploadAvatar stores the image at path in object storage and points the
// profile picture at it. It returns the new picture URL.
func (s *Service) UploadAvatar(ctx context.Context, path string) (string, error) {
	if s.presign == nil {
		return "", ErrNoStorage
	}
	email, err := s.email(ctx)
	if err != nil {
		return "", err
	}

	data, contentType, err := filex.ReadImage(path, 0)
	if err != nil {
		return "", err
	}

	key := AvatarKey(now().UTC(), filepath.Ext(path))
	putURL, err := s.presign.PresignPut(ctx, key, contentType)
	if err != nil {
		return "", err
	}
	if err := uploadToPresignedURL(ctx, s.http, putURL, contentType, data); err != nil {
		return "", err
	}

	picture := s.presign.ObjectURL(key)
	if _, err := s.api.UpdateUserInfo(ctx, models.UpdateUserRequest{Email: email, Picture: picture}); err != nil {
		return "", err
	}
	s.log.Info(ctx, "avatar uploaded", "email", email, "key", key, "bytes", len(data))
	return picture, nil
}

// DisplayName is the name shown on the profile card.
func DisplayName(u models.UserInfo) string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.Name != "":
		return u.Name
	case u.Email != "":
		local, _, _ := strings.Cut(u.Email, "@")
		r, size := utf8.DecodeRuneInString(local)
		if size == 0 {
			return "User"
		}
		return string(unicode.ToUpper(r)) + local[size:]
	}
	return "User"
}

// Initials for the profile avatar: first and last name, else the first and
// last word of Name, else the first letter of the email, else "U".
func Initials(u models.UserInfo) string {
	if u.FirstName != "" && u.LastName != "" {
		return upperFirst(u.FirstName) + upperFirst(u.LastName)
	}
	if words := strings.Fields(u.Name); len(words) > 0 {
		if len(words) == 1 {
			return upperFirst(words[0])
		}
		return upperFirst(words[0]) + upperFirst(words[len(words)-1])
	}
	if u.Email != "" {
		return upperFirst(u.Email)
	}
	return "U"
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r))
}
