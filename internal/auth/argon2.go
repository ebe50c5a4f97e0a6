// Package auth issues and verifies bearer access tokens.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidHash indicates the hash format is invalid.
	ErrInvalidHash = errors.New("invalid hash format")
	// ErrIncompatibleVersion indicates the hash version is not supported.
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// HashParams are the Argon2id cost settings stored alongside each hash.
type HashParams struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// TokenHashParams hash new tokens. Every request that misses the principal
// cache pays this cost once per candidate token.
var TokenHashParams = HashParams{
	Memory:  19 * 1024,
	Time:    2,
	Threads: 1,
	SaltLen: 16,
	KeyLen:  32,
}

// Upper bounds on parameters read back from storage.
const (
	maxHashMemory = 256 * 1024
	maxHashTime   = 10
	minKeyLen     = 16
	maxKeyLen     = 64
)

// phcHash is a decoded "$argon2id$v=19$m=..,t=..,p=..$salt$key" string.
type phcHash struct {
	params HashParams
	salt   []byte
	key    []byte
}

func (h phcHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key),
	)
}

func parsePHC(encoded string) (phcHash, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return phcHash{}, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return phcHash{}, ErrInvalidHash
	}
	if version != argon2.Version {
		return phcHash{}, ErrIncompatibleVersion
	}

	var h phcHash
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Time, &h.params.Threads); err != nil {
		return phcHash{}, ErrInvalidHash
	}
	if h.params.Memory == 0 || h.params.Memory > maxHashMemory ||
		h.params.Time == 0 || h.params.Time > maxHashTime || h.params.Threads == 0 {
		return phcHash{}, fmt.Errorf("%w: parameters out of range", ErrInvalidHash)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil || len(h.salt) == 0 {
		return phcHash{}, ErrInvalidHash
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil {
		return phcHash{}, ErrInvalidHash
	}
	if n := len(h.key); n < minKeyLen || n > maxKeyLen {
		return phcHash{}, fmt.Errorf("%w: key length %d", ErrInvalidHash, n)
	}
	h.params.SaltLen = uint32(len(h.salt))
	h.params.KeyLen = uint32(len(h.key))

	return h, nil
}

func deriveKey(token string, salt []byte, p HashParams) []byte {
	return argon2.IDKey([]byte(token), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// HashToken hashes a plaintext token with TokenHashParams.
func HashToken(token string) (string, error) {
	return HashTokenWith(token, TokenHashParams)
}

// HashTokenWith hashes token with explicit parameters.
func HashTokenWith(token string, params HashParams) (string, error) {
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return phcHash{params: params, salt: salt, key: deriveKey(token, salt, params)}.String(), nil
}

// VerifyToken reports whether token matches encodedHash. Hashes written
// with older parameters still verify with the parameters they carry.
func VerifyToken(token, encodedHash string) (bool, error) {
	h, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(deriveKey(token, h.salt, h.params), h.key) == 1, nil
}

// QuickHash returns a truncated SHA-256 of the input for cache keys.
// It is not suitable for credential storage.
func QuickHash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:16])
}
