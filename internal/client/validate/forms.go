package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// User-facing messages.
const (
	MsgFillAllFields      = "Please fill in all fields"
	MsgAgreeTerms         = "Please agree to the Terms of Service and Privacy Policy"
	MsgInvalidEmail       = "Please enter a valid email address"
	MsgEnterEmail         = "Please enter your email address"
	MsgWeakPassword       = "Password does not meet all requirements"
	MsgPasswordsMismatch  = "Passwords do not match"
	MsgFillPasswordFields = "Please fill in all password fields"
	MsgIncompleteCode     = "Please enter the complete 6-digit verification code"
	MsgNamesRequired      = "First name and last name are required"
)

// ValidationError is a local form failure. Field is the struct field that
// failed first.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("storefront_email", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("strong_password", func(fl validator.FieldLevel) bool {
		return PasswordRequirements(fl.Field().String()).Valid()
	})
	return v
}

// messages maps a failed tag, optionally qualified by field ("Field.tag"),
// to the text shown for it.
type messages map[string]string

func (m messages) lookup(fe validator.FieldError) string {
	if s, ok := m[fe.Field()+"."+fe.Tag()]; ok {
		return s
	}
	if s, ok := m[fe.Tag()]; ok {
		return s
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// check runs the struct rules in phases so the first failing rule wins in the
// order the user sees them: presence, then agreement, format, strength and
// match. Each phase is a set of tags; only errors whose tag is in the current
// phase are reported.
func check(form any, msgs messages, phases ...[]string) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	for _, phase := range phases {
		for _, fe := range ves {
			for _, tag := range phase {
				if fe.Tag() == tag {
					return &ValidationError{Field: fe.Field(), Message: msgs.lookup(fe)}
				}
			}
		}
	}
	fe := ves[0]
	return &ValidationError{Field: fe.Field(), Message: msgs.lookup(fe)}
}

type LoginForm struct {
	Email    string `validate:"required,storefront_email"`
	Password string `validate:"required"`
}

func (f LoginForm) Check() error {
	return check(f, messages{
		"required":         MsgFillAllFields,
		"storefront_email": MsgInvalidEmail,
	}, []string{"required"}, []string{"storefront_email"})
}

type RegisterForm struct {
	FirstName       string `validate:"required"`
	LastName        string `validate:"required"`
	Email           string `validate:"required,storefront_email"`
	Password        string `validate:"required,strong_password"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
	AgreeTerms      bool   `validate:"eq=true"`
}

func (f RegisterForm) Check() error {
	return check(f, messages{
		"required":         MsgFillAllFields,
		"eq":               MsgAgreeTerms,
		"storefront_email": MsgInvalidEmail,
		"strong_password":  MsgWeakPassword,
		"eqfield":          MsgPasswordsMismatch,
	}, []string{"required"}, []string{"eq"}, []string{"storefront_email"}, []string{"strong_password"}, []string{"eqfield"})
}

type ForgotForm struct {
	Email string `validate:"required,storefront_email"`
}

func (f ForgotForm) Check() error {
	return check(f, messages{
		"required":         MsgEnterEmail,
		"storefront_email": MsgInvalidEmail,
	}, []string{"required"}, []string{"storefront_email"})
}

// ResetForm is the password half of the reset dialog. The code is checked by
// the OTP input before this runs.
type ResetForm struct {
	NewPassword     string `validate:"required,strong_password"`
	ConfirmPassword string `validate:"required,eqfield=NewPassword"`
}

func (f ResetForm) Check() error {
	return check(f, messages{
		"required":        MsgFillPasswordFields,
		"strong_password": MsgWeakPassword,
		"eqfield":         MsgPasswordsMismatch,
	}, []string{"required"}, []string{"strong_password"}, []string{"eqfield"})
}

type ProfileForm struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
}

// Check treats whitespace-only names as empty.
func (f ProfileForm) Check() error {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	return check(f, messages{"required": MsgNamesRequired}, []string{"required"})
}
