package auth

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// DefaultHashMethod is used when the configuration leaves hash.method empty
const DefaultHashMethod = "sha256"

var hashMethods = map[string]func() hash.Hash{
	"md5":         md5.New,
	"sha1":        sha1.New,
	"sha224":      sha256.New224,
	"sha256":      sha256.New,
	"sha384":      sha512.New384,
	"sha512":      sha512.New,
	"sha512/224":  sha512.New512_224,
	"sha512/256":  sha512.New512_256,
	"sha3-224":    sha3.New224,
	"sha3-256":    sha3.New256,
	"sha3-384":    sha3.New384,
	"sha3-512":    sha3.New512,
	"blake2b-256": unkeyed(blake2b.New256),
	"blake2b-384": unkeyed(blake2b.New384),
	"blake2b-512": unkeyed(blake2b.New512),
	"blake2s-256": unkeyed(blake2s.New256),
	"blake3":      func() hash.Hash { return blake3.New() },
}

func unkeyed(fn func(key []byte) (hash.Hash, error)) func() hash.Hash {
	return func() hash.Hash {
		h, err := fn(nil)
		if err != nil {
			// nil keys are always accepted by the blake2 constructors
			panic(err)
		}
		return h
	}
}

// HashMethods lists the supported hash method identifiers
func HashMethods() []string {
	out := make([]string, 0, len(hashMethods))
	for name := range hashMethods {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Hasher computes keyed, deterministic digests of secrets.
// Callers that need per user salts must mix them into the secret.
type Hasher struct {
	method  string
	key     []byte
	newHash func() hash.Hash
}

// NewHasher returns a Hasher for the given method. An empty key is accepted
// here; Hash will refuse to run until one is provided.
func NewHasher(method, key string) (*Hasher, error) {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		method = DefaultHashMethod
	}

	fn, ok := hashMethods[method]
	if !ok {
		return nil, annotate(ErrUnknownHashMethod, map[string]any{
			"method":    method,
			"supported": HashMethods(),
		})
	}

	return &Hasher{
		method:  method,
		key:     []byte(key),
		newHash: fn,
	}, nil
}

// Method returns the normalized hash method identifier
func (h *Hasher) Method() string {
	return h.method
}

// Hash returns the hex encoded HMAC of secret
func (h *Hasher) Hash(secret string) (string, error) {
	if h == nil || len(h.key) == 0 {
		return "", ErrHashKeyMissing
	}

	mac := hmac.New(h.newHash, h.key)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Compare hashes secret and compares it to digest in constant time
func (h *Hasher) Compare(secret, digest string) (bool, error) {
	computed, err := h.Hash(secret)
	if err != nil {
		return false, err
	}
	return constantTimeEqual(computed, digest), nil
}

// Size is the length of the hex digest produced by Hash
func (h *Hasher) Size() int {
	return h.newHash().Size() * 2
}

func constantTimeEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
