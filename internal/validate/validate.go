package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"techstore/internal/domain"
)

// MaxQty caps a single cart line.
const MaxQty = 50

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ     = regexp.MustCompile(`^[\p{L}\p{N} _'"\-.]{1,50}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reSlug  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	rePhone = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	reTime  = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 100 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query in either script: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if utf8.RuneCountInString(s) > 50 {
		s = string([]rune(s)[:50])
	}
	return s, reQ.MatchString(s)
}

// Qty parses a form quantity, clamped to 1..MaxQty.
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > MaxQty {
		return MaxQty
	}
	return n
}

// SetQty checks an absolute quantity. Zero and below are allowed; callers treat them as removal.
func SetQty(n int) bool { return n <= MaxQty }

// ID validates a simple resource identifier (product/category ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

func Slug(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) <= 64 && reSlug.MatchString(s)
}

// Name validates a person's name in any script: 2 to 80 characters, letters first.
func Name(s string) (string, bool) {
	s = strings.Join(strings.Fields(s), " ")
	n := utf8.RuneCountInString(s)
	if n < 2 || n > 80 {
		return "", false
	}
	for i, r := range s {
		if i == 0 && !unicode.IsLetter(r) {
			return "", false
		}
		if !unicode.IsLetter(r) && !unicode.IsMark(r) && r != ' ' && r != '\'' && r != '-' && r != '.' {
			return "", false
		}
	}
	return s, true
}

// Text trims s and enforces a maximum length in characters. Empty is allowed.
func Text(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	return s, utf8.RuneCountInString(s) <= max
}

// Phone accepts 8 to 15 digits with an optional leading +. Spaces and dashes are dropped.
func Phone(s string) (string, bool) {
	s = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(s))
	return s, rePhone.MatchString(s)
}

// Date accepts YYYY-MM-DD on or after the day of now.
func Date(s string, now time.Time) (string, bool) {
	s = strings.TrimSpace(s)
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s, !d.Before(today)
}

// Time accepts a 24h HH:MM.
func Time(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reTime.MatchString(s)
}

func Role(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, domain.IsStaffRole(s)
}

// Password enforces a length window and character classes.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
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
