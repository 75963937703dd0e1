// Package hasher wraps bcrypt for API token hashing and verification.
package hasher

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

func HashToken(token []byte) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(token, 10)
	return string(bytes), err
}

// PasswordCorrect reports whether the plaintext matches the bcrypt hash.
func PasswordCorrect(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken returns a url-safe random token of the given byte length.
func GenerateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
