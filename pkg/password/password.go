package password

import (
	"golang.org/x/crypto/bcrypt"
)

// MinLength is the shortest password accepted at registration or update.
const MinLength = 6

// Hash hashes a plain password using bcrypt.
func Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(b), err
}

// Check compares a plain password with a bcrypt hash.
func Check(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
