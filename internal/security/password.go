package security

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier compares a plain password with a stored hash.
type PasswordVerifier interface {
	Verify(plain, hash string) bool
}

// BcryptVerifier verifies bcrypt hashes.
type BcryptVerifier struct{}

func (BcryptVerifier) Verify(plain, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func ValidatePassword(password string) bool {
	return len(password) >= 8
}
