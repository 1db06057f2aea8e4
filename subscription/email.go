package subscription

import (
	"fmt"
	"net/mail"
)

// ValidEmail reports whether email is a bare address with no display name.
func ValidEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == email
}

// CheckEmail returns an ErrInvalidEmail error when email is not valid.
func CheckEmail(email string) error {
	if !ValidEmail(email) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}
