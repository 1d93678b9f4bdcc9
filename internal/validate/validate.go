// Package validate turns untrusted request fields into sanitized values or
// a single Validation error. Functions are pure and report the first
// violated rule only, in a fixed order, so messages are reproducible.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"pollboard/internal/apperr"

	"github.com/google/uuid"
)

const (
	QuestionMaxLen = 500
	OptionMaxLen   = 200
	MinOptions     = 2
	MaxOptions     = 10
	NameMaxLen     = 100
)

var (
	emailRe     = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	jsSchemeRe  = regexp.MustCompile(`(?i)javascript:`)
	eventAttrRe = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// Sanitize trims the string and strips angle brackets, javascript:
// occurrences and on*= event-handler substrings. This is a best-effort
// denylist filter, not HTML escaping; output is still escaped by whoever
// renders it.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	// removal can splice a new occurrence together, so repeat until stable
	for jsSchemeRe.MatchString(s) {
		s = jsSchemeRe.ReplaceAllString(s, "")
	}
	s = eventAttrRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// PollID checks that id is a canonical 36-character UUID string.
func PollID(id string) error {
	if len(id) != 36 {
		return apperr.New(apperr.Validation, "invalid poll id")
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperr.New(apperr.Validation, "invalid poll id")
	}
	return nil
}

// CreatePoll sanitizes the question and options and checks question length
// 1-500, option count 2-10, option length 1-200 and duplicate options after
// sanitization. Returns the sanitized values.
func CreatePoll(question string, options []string) (string, []string, error) {
	question = Sanitize(question)
	if question == "" || utf8.RuneCountInString(question) > QuestionMaxLen {
		return "", nil, apperr.New(apperr.Validation,
			fmt.Sprintf("question must be 1-%d characters", QuestionMaxLen))
	}

	if len(options) < MinOptions || len(options) > MaxOptions {
		return "", nil, apperr.New(apperr.Validation,
			fmt.Sprintf("polls need between %d and %d options", MinOptions, MaxOptions))
	}

	clean := make([]string, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		opt = Sanitize(opt)
		if opt == "" || utf8.RuneCountInString(opt) > OptionMaxLen {
			return "", nil, apperr.New(apperr.Validation,
				fmt.Sprintf("each option must be 1-%d characters", OptionMaxLen))
		}
		if _, dup := seen[opt]; dup {
			return "", nil, apperr.New(apperr.Validation, "options must be unique")
		}
		seen[opt] = struct{}{}
		clean = append(clean, opt)
	}

	return question, clean, nil
}

// Vote checks the poll id format and that the index is non-negative. It
// deliberately does not bound the index against the poll's option count;
// the service re-checks after loading the poll.
func Vote(pollID string, optionIndex int) error {
	if err := PollID(pollID); err != nil {
		return err
	}
	if optionIndex < 0 {
		return apperr.New(apperr.Validation, "option index must not be negative")
	}
	return nil
}

// Login checks email shape and that a password was supplied. Only non-empty
// is required here so accounts registered under older password policies can
// still sign in.
func Login(email, password string) error {
	if !emailRe.MatchString(email) {
		return apperr.New(apperr.Validation, "invalid email address")
	}
	if password == "" {
		return apperr.New(apperr.Validation, "password is required")
	}
	return nil
}

// Register checks email shape, password strength (8-32 characters with
// upper, lower and digit) and display name length.
func Register(email, password, name string) error {
	if !emailRe.MatchString(email) {
		return apperr.New(apperr.Validation, "invalid email address")
	}
	if !strongPassword(password) {
		return apperr.New(apperr.Validation,
			"password must be 8-32 characters with upper, lower and digit")
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > NameMaxLen {
		return apperr.New(apperr.Validation,
			fmt.Sprintf("name must be 1-%d characters", NameMaxLen))
	}
	return nil
}

// strongPassword: 8-32 characters with upper, lower and digit.
func strongPassword(pwd string) bool {
	if len(pwd) < 8 || len(pwd) > 32 {
		return false
	}
	var hasUpper, hasLower, hasDigit bool
	for _, ch := range pwd {
		switch {
		case ch >= 'A' && ch <= 'Z':
			hasUpper = true
		case ch >= 'a' && ch <= 'z':
			hasLower = true
		case ch >= '0' && ch <= '9':
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}
