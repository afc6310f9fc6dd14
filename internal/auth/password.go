package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt digest.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// legacyDigest is the unsalted SHA-256 hex form.
func legacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func isLegacyDigest(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

// verifyPassword reports whether password matches hash and whether the hash
// should be upgraded.
func verifyPassword(hash, password string) (ok, upgrade bool) {
	hash = strings.TrimSpace(hash)
	if isLegacyDigest(hash) {
		want := legacyDigest(password)
		return subtle.ConstantTimeCompare([]byte(strings.ToLower(hash)), []byte(want)) == 1, true
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, false
}
