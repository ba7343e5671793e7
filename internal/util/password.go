package util

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultPasswordCost = 10
	// bcrypt only looks at the first 72 bytes of its input.
	MaxPasswordBytes = 72
)

var (
	ErrPasswordEmpty   = errors.New("password cannot be empty")
	ErrPasswordTooLong = fmt.Errorf("password cannot exceed %d bytes", MaxPasswordBytes)
)

// ValidatePasswordLength checks the constraints the hasher itself imposes.
func ValidatePasswordLength(password string) error {
	if len(password) == 0 {
		return ErrPasswordEmpty
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// ValidateCost reports whether cost is accepted by bcrypt.
func ValidateCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	return nil
}

func HashPassword(password string, cost int) (string, error) {
	if err := ValidatePasswordLength(password); err != nil {
		return "", err
	}
	if err := ValidateCost(cost); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword fails closed: empty input or a malformed hash never verifies.
func VerifyPassword(password, hashed string) bool {
	if len(password) == 0 || len(hashed) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
