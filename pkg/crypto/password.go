package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12
	// MaxSecretBytes is the longest input bcrypt accepts
	MaxSecretBytes = 72
)

// ErrSecretTooLong is returned for inputs bcrypt would reject.
var ErrSecretTooLong = errors.New("secret exceeds 72 bytes")

var (
	bcryptGenerateFromPassword = bcrypt.GenerateFromPassword
	randomRead                 = rand.Read
)

// Hasher produces salted bcrypt hashes at a fixed cost.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewHasher creates a hasher; a cost outside bcrypt's range falls back to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a bcrypt hash of secret with a fresh random salt.
func (h *Hasher) Hash(secret string) (string, error) {
	if len(secret) > MaxSecretBytes {
		return "", ErrSecretTooLong
	}
	bytes, err := bcryptGenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(bytes), nil
}

// Compare reports whether secret matches hash.
func (h *Hasher) Compare(secret, hash string) bool {
	return CheckPassword(secret, hash)
}

// CompareDummy burns the same work as a real comparison against a throwaway hash.
func (h *Hasher) CompareDummy(secret string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("dummy-secret-for-timing"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(secret))
}

// CheckPassword compares a password with a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Fingerprint scopes keep digests of different identity fields apart.
const (
	ScopeIDNumber      = "id_number"
	ScopeAccountNumber = "account_number"
)

// IsFingerprintScope reports whether scope is one the portal fingerprints with.
func IsFingerprintScope(scope string) bool {
	return scope == ScopeIDNumber || scope == ScopeAccountNumber
}

// Fingerprinter derives deterministic keyed digests used as unique lookup keys
// for values that are otherwise stored only as salted hashes.
type Fingerprinter struct {
	key []byte
}

// NewFingerprinter creates a fingerprinter keyed by a server-held pepper.
func NewFingerprinter(pepper string) *Fingerprinter {
	return &Fingerprinter{key: []byte(pepper)}
}

// Fingerprint returns hex(HMAC-SHA256(pepper, scope || 0 || value)).
func (f *Fingerprinter) Fingerprint(scope, value string) string {
	mac := hmac.New(sha256.New, f.key)
	mac.Write([]byte(scope))
	mac.Write([]byte{0})
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateRandomToken generates a random token of specified length
func GenerateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := randomRead(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// ConstantTimeEqual compares two strings without leaking the position of the first difference.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
