package models

// UserInfo is the profile returned by get-user-info. The API has used both
// "verified" and "emailVerified".
type UserInfo struct {
	Email         string `json:"email"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	Verified      bool   `json:"verified,omitempty"`
	EmailVerified bool   `json:"emailVerified,omitempty"`
}

// IsVerified reports whether either verification flag is set.
func (u UserInfo) IsVerified() bool {
	return u.Verified || u.EmailVerified
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type VerifyEmailRequest struct {
	Email            string `json:"email"`
	ConfirmationCode string `json:"confirmationCode"`
}

type ResetPasswordRequest struct {
	Email            string `json:"email"`
	ConfirmationCode string `json:"confirmationCode"`
	NewPassword      string `json:"newPassword"`
}

type GoogleAuthRequest struct {
	Provider string `json:"provider"`
	IDToken  string `json:"idToken"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

// UpdateUserRequest carries the fields update-user-info accepts. Empty
// fields are omitted so a name change does not wipe the picture and vice versa.
type UpdateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Picture   string `json:"picture,omitempty"`
}
