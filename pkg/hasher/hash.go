package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash возвращает SHA-256 хэш входной строки в виде hex.
func Hash(s string) string {
	return SumBytes([]byte(s))
}

// SumBytes: та же функция, но на вход принимает []byte.
func SumBytes(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// Fingerprint hashes the parts joined with a separator that cannot appear in them,
// so ("ab", "c") and ("a", "bc") differ.
func Fingerprint(parts ...string) string {
	return Hash(strings.Join(parts, "\x1f"))
}
