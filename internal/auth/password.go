package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// DefaultIterations is the PBKDF2 work factor for new hashes.
const DefaultIterations = 600000

const (
	saltLength = 16
	saltChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// HashPassword derives a salted PBKDF2-HMAC-SHA256 hash encoded as
// "pbkdf2:sha256:<iterations>$<salt>$<hex digest>". Hashes written by the
// earlier Python deployment use the same layout and verify unchanged.
func HashPassword(password string, iterations int) (string, error) {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	salt, err := randomSalt(saltLength)
	if err != nil {
		return "", err
	}
	digest := pbkdf2.Key([]byte(password), []byte(salt), iterations, sha256.Size, sha256.New)
	return fmt.Sprintf("pbkdf2:sha256:%d$%s$%s", iterations, salt, hex.EncodeToString(digest)), nil
}

// CheckPassword reports whether password matches the encoded hash. Malformed
// hashes never match.
func CheckPassword(encoded, password string) bool {
	parts := strings.SplitN(encoded, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, salt, want := parts[0], parts[1], parts[2]
	h, size, iterations, err := parseMethod(method)
	if err != nil {
		return false
	}
	got := hex.EncodeToString(pbkdf2.Key([]byte(password), []byte(salt), iterations, size, h))
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func parseMethod(method string) (func() hash.Hash, int, int, error) {
	fields := strings.Split(method, ":")
	if len(fields) < 2 || len(fields) > 3 || fields[0] != "pbkdf2" {
		return nil, 0, 0, errors.New("unsupported hash method")
	}
	iterations := DefaultIterations
	if len(fields) == 3 {
		n, err := strconv.Atoi(fields[2])
		if err != nil || n <= 0 {
			return nil, 0, 0, errors.New("invalid iteration count")
		}
		iterations = n
	}
	switch fields[1] {
	case "sha256":
		return sha256.New, sha256.Size, iterations, nil
	case "sha512":
		return sha512.New, sha512.Size, iterations, nil
	default:
		return nil, 0, 0, fmt.Errorf("unsupported digest %q", fields[1])
	}
}

func randomSalt(n int) (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(saltChars)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}
		b.WriteByte(saltChars[idx.Int64()])
	}
	return b.String(), nil
}
