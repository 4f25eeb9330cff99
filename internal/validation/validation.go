// Package validation contains input validation rules shared by handlers.
package validation

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt input limit
	maxNameLength     = 255
)

// ValidateName checks a user display name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("Name is required")
	}
	if len(name) > maxNameLength {
		return errors.New("Name too long (max 255 characters)")
	}
	return nil
}

// ValidateEmail checks the email address format.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("Email is required")
	}
	if len(email) > maxNameLength {
		return errors.New("Email too long (max 255 characters)")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("Invalid email address")
	}
	return nil
}

// ValidatePassword enforces minimum password strength: length bounds plus
// at least one letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return errors.New("Password must be at least 8 characters")
	}
	if len(password) > maxPasswordLength {
		return errors.New("Password too long (max 72 characters)")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("Password must contain at least one letter and one digit")
	}
	return nil
}
