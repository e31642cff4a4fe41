package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Code-Chilll/Task-Manager/internal/apperr"
)

const (
	MinPasswordLength    = 6
	MinNameLength        = 2
	MaxNameLength        = 100
	MaxTaskNameLength    = 200
	MaxDescriptionLength = 1000
)

var (
	emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	otpRegexp   = regexp.MustCompile(`^[0-9]{4}$`)
)

var priorities = map[string]struct{}{"low": {}, "medium": {}, "high": {}}

// NormalizeEmail trims and lowercases an address. Emails are stored and compared in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsValidEmail(email string) bool {
	return emailRegexp.MatchString(strings.TrimSpace(email))
}

func IsValidPassword(password string) bool {
	return len(password) >= MinPasswordLength
}

func IsValidName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= MinNameLength && n <= MaxNameLength
}

func IsValidTaskName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed != "" && utf8.RuneCountInString(trimmed) <= MaxTaskNameLength
}

func IsValidDescription(description string) bool {
	return utf8.RuneCountInString(description) <= MaxDescriptionLength
}

// IsValidOTP requires exactly four ASCII digits.
func IsValidOTP(code string) bool {
	return otpRegexp.MatchString(code)
}

func IsValidPriority(priority string) bool {
	_, ok := priorities[strings.ToLower(strings.TrimSpace(priority))]
	return ok
}

// NormalizePriority lowercases a priority. A nil or blank value means "no priority".
func NormalizePriority(priority *string) (*string, error) {
	if priority == nil || strings.TrimSpace(*priority) == "" {
		return nil, nil
	}
	p := strings.ToLower(strings.TrimSpace(*priority))
	if _, ok := priorities[p]; !ok {
		return nil, apperr.Validation("priority", "priority must be one of low, medium, high")
	}
	return &p, nil
}

// Checker collects field errors in the order they were checked.
type Checker struct {
	fields []string
	errors map[string]string
}

func NewChecker() *Checker {
	return &Checker{errors: make(map[string]string)}
}

// Check records msg for key unless cond holds. The first message per key wins.
func (c *Checker) Check(cond bool, key, msg string) {
	if cond {
		return
	}
	if _, ok := c.errors[key]; ok {
		return
	}
	c.fields = append(c.fields, key)
	c.errors[key] = msg
}

func (c *Checker) Valid() bool {
	return len(c.fields) == 0
}

// Err returns the first recorded failure as a validation error, or nil.
func (c *Checker) Err() error {
	if c.Valid() {
		return nil
	}
	field := c.fields[0]
	return apperr.Validation(field, c.errors[field])
}

func (c *Checker) Errors() map[string]string {
	return c.errors
}
