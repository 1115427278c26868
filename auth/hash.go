// Package auth derives and verifies credential hashes.
//
// Two schemes coexist. Previously stored hashes use the legacy encoding:
// SHA-256 over "name#password" with each output byte rendered as its
// decimal value, concatenated. That encoding is kept bit-exact so old
// hashes keep verifying. Newly stored credentials use salted bcrypt;
// verification dispatches on the stored hash's bcrypt prefix.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// GenHash computes the legacy credential hash for name and password.
func GenHash(name, password string) string {
	sum := sha256.Sum256([]byte(name + "#" + password))
	var b strings.Builder
	for _, c := range sum {
		b.WriteString(strconv.Itoa(int(c)))
	}
	return b.String()
}

// HashPassword produces a bcrypt hash for a new or changed credential.
func HashPassword(name, password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(name+"#"+password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyPassword checks a password attempt against a stored hash of
// either scheme.
func VerifyPassword(stored, name, password string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(name+"#"+password)) == nil
	}
	legacy := GenHash(name, password)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(legacy)) == 1
}
