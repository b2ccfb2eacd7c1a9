package session

import (
	"strings"
	"unicode/utf8"
)

// DeriveInitials builds the avatar initials from an email address.
func DeriveInitials(email string) string {
	if email == "" {
		return "U"
	}
	local, _, _ := strings.Cut(email, "@")

	if strings.Contains(local, ".") {
		var segs []string
		for _, s := range strings.Split(local, ".") {
			if s != "" {
				segs = append(segs, s)
			}
		}
		if len(segs) >= 2 {
			return strings.ToUpper(firstRune(segs[0]) + firstRune(segs[1]))
		}
		local = strings.Join(segs, "")
	}

	switch n := utf8.RuneCountInString(local); {
	case n >= 2:
		r := []rune(local)
		return strings.ToUpper(string(r[:2]))
	case n == 1:
		return strings.ToUpper(local)
	default:
		return "U"
	}
}

func firstRune(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	return string(r)
}
