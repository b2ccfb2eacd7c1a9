package validate

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

const MinPasswordLength = 8

// SpecialChars is the symbol set that satisfies the special-character rule.
const SpecialChars = `!@#$%^&*(),.?":{}|<>`

// emailPart excludes @ and every code point a browser treats as whitespace,
// which is wider than the ASCII set \s covers.
const emailPart = `[^\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}@]+`

var (
	emailRe = regexp.MustCompile(`^` + emailPart + `@` + emailPart + `\.` + emailPart + `$`)
	upperRe = regexp.MustCompile(`[A-Z]`)
	lowerRe = regexp.MustCompile(`[a-z]`)
	digitRe = regexp.MustCompile(`\d`)
)

func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// Requirements is the per-rule outcome of a password check, one flag per
// indicator shown next to the password field.
type Requirements struct {
	Length    bool
	Uppercase bool
	Lowercase bool
	Number    bool
	Special   bool
}

func (r Requirements) Valid() bool {
	return r.Length && r.Uppercase && r.Lowercase && r.Number && r.Special
}

// PasswordRequirements checks s against each rule. Length counts UTF-16 code
// units, so a character outside the Basic Multilingual Plane counts as two.
func PasswordRequirements(s string) Requirements {
	return Requirements{
		Length:    len(utf16.Encode([]rune(s))) >= MinPasswordLength,
		Uppercase: upperRe.MatchString(s),
		Lowercase: lowerRe.MatchString(s),
		Number:    digitRe.MatchString(s),
		Special:   strings.ContainsAny(s, SpecialChars),
	}
}

// Match is the state of the "passwords match" indicator.
type Match int

const (
	MatchHidden Match = iota
	MatchOK
	MatchMismatch
)

func (m Match) String() string {
	switch m {
	case MatchOK:
		return "Passwords match"
	case MatchMismatch:
		return "Passwords do not match"
	default:
		return ""
	}
}

// PasswordsMatch hides the indicator until a confirmation is typed.
func PasswordsMatch(password, confirmation string) Match {
	switch {
	case confirmation == "":
		return MatchHidden
	case password == confirmation:
		return MatchOK
	default:
		return MatchMismatch
	}
}
