package login

import (
	"errors"
	"strings"
	"unicode"
)

const minPasswordLength = 12

var ErrPasswordContainsUsername = errors.New("password must not contain the e-mail name")

func ValidatePasswordPolicy(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return errors.New("password must be at least 12 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return errors.New("password must include upper, lower, digit and symbol")
	}

	return nil
}

// ValidatePasswordForUser applies the policy and rejects passwords that embed
// the local part of the operator's e-mail.
func ValidatePasswordForUser(email, password string) error {
	if err := ValidatePasswordPolicy(password); err != nil {
		return err
	}
	local, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(email)), "@")
	if len(local) >= 3 && strings.Contains(strings.ToLower(password), local) {
		return ErrPasswordContainsUsername
	}
	return nil
}
