// Package cryptox holds the password and token hashing primitives.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/ministry/internal/common"
	"golang.org/x/crypto/scrypt"
)

// scrypt cost parameters. Changing them invalidates every stored hash.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64

	// SaltSize is the number of random bytes in a password salt.
	SaltSize = 16
)

// dummySalt feeds the derivation run for unknown accounts so that a failed
// lookup costs as much as a failed comparison.
var dummySalt = []byte("ministry-dummy-s")

// NewSalt returns SaltSize random bytes, hex-encoded.
func NewSalt() (string, error) {
	return common.MakeRandHexString(SaltSize)
}

// HashPassword derives the scrypt key for password with the hex-encoded salt
// and returns it hex-encoded. The salt string is used as-is, not decoded.
func HashPassword(password, salt string) (string, error) {
	key, err := derive([]byte(password), []byte(salt))
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(key)
	return hex.EncodeToString(key), nil
}

// VerifyPassword reports whether password matches the stored hex hash.
// The comparison is constant time.
func VerifyPassword(password, salt, storedHash string) (bool, error) {
	want, err := hex.DecodeString(storedHash)
	if err != nil {
		return false, fmt.Errorf("decode stored hash: %w", err)
	}

	got, err := derive([]byte(password), []byte(salt))
	if err != nil {
		return false, err
	}
	defer common.WipeByteArray(got)

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// DummyVerify performs one full derivation and throws the result away.
func DummyVerify(password string) {
	key, _ := derive([]byte(password), dummySalt)
	common.WipeByteArray(key)
}

// HashToken returns the hex SHA-256 of a bearer token. Only this digest is
// ever stored, so a leaked table does not leak usable tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func derive(password, salt []byte) ([]byte, error) {
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt: %w", err)
	}
	return key, nil
}
