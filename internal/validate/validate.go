package validate

import (
	"regexp"
	"strings"
)

var (
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID       = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reSlug     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	rePhone    = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	rePostal   = regexp.MustCompile(`^[0-9]{5}$`)
	rePlatform = regexp.MustCompile(`^(tiktok|instagram)$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a simple resource identifier (project/transaction ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

func Slug(s string) (string, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	return s, s != "" && len(s) <= 80 && reSlug.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 50 {
		return "", false
	}
	return s, true
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePhone.MatchString(s)
}

func PostalCode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePostal.MatchString(s)
}

// DeliveryMethod normalizes the fulfilment choice; empty means unset.
func DeliveryMethod(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, s == "download" || s == "delivery"
}

// Platform validates a social-gate platform name.
func Platform(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, rePlatform.MatchString(s)
}

// Message bounds free-text input from the contact form.
func Message(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && len(s) <= 2000
}

// Password enforces a simple complexity window for login checks.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 20 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
