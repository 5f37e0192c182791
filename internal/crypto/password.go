package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor for new hashes. Verification
// follows the cost embedded in the stored hash, so raising this only
// affects hashes created afterwards.
const DefaultCost = 12

// ErrEmptyPassword flags a caller bug, not a failed credential check.
var ErrEmptyPassword = errors.New("password must not be empty")

// HashPassword hashes plain with the default work factor.
func HashPassword(plain string) (string, error) {
	return HashPasswordCost(plain, DefaultCost)
}

// HashPasswordCost hashes plain with an explicit bcrypt cost.
func HashPasswordCost(plain string, cost int) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a stored bcrypt hash against a candidate
// password. bcrypt.ErrMismatchedHashAndPassword means a clean mismatch;
// any other error means the stored value is not a usable bcrypt hash.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// IsMalformedHashError reports whether err indicates a stored hash that
// could not be parsed at all (truncated, wrong prefix, bad cost), as
// opposed to a clean mismatch.
func IsMalformedHashError(err error) bool {
	return err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword)
}
