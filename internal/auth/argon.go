package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters. These follow the OWASP baseline for interactive
// logins; hashes record their own parameters so the values can be raised
// later without invalidating stored credentials.
const (
	hashMemoryKiB  uint32 = 64 * 1024
	hashPasses     uint32 = 3
	hashThreads    uint8  = 4
	hashSaltBytes         = 16
	hashKeyBytes   uint32 = 32
	maxPasswordLen        = 1024
)

var b64 = base64.RawStdEncoding

// HashPassword derives an Argon2id hash and returns it in PHC string format,
// e.g. $argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	// Hashing cost scales with input size; cap it.
	if len(password) > maxPasswordLen {
		return "", errors.New("password exceeds maximum length")
	}

	salt := make([]byte, hashSaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, hashPasses, hashMemoryKiB, hashThreads, hashKeyBytes)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, hashMemoryKiB, hashPasses, hashThreads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPassword reports whether the password matches the stored PHC hash.
// Malformed hashes verify as false rather than returning an error, so callers
// cannot distinguish a corrupt record from a wrong password.
func VerifyPassword(encodedHash, password string) (bool, error) {
	if len(password) > maxPasswordLen {
		return false, nil
	}

	stored, err := parsePHC(encodedHash)
	if err != nil {
		return false, nil //nolint:nilerr // malformed hash must look like a mismatch
	}

	//nolint:gosec // key length comes from a decoded hash, bounded well below uint32
	derived := argon2.IDKey([]byte(password), stored.salt,
		stored.passes, stored.memoryKiB, stored.threads, uint32(len(stored.key)))

	return subtle.ConstantTimeCompare(stored.key, derived) == 1, nil
}

type phcHash struct {
	memoryKiB uint32
	passes    uint32
	threads   uint8
	salt      []byte
	key       []byte
}

func parsePHC(encoded string) (*phcHash, error) {
	// $argon2id$v=19$m=...,t=...,p=...$salt$key splits into 6 parts with an
	// empty leading element.
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, errors.New("not an argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, fmt.Errorf("unsupported argon2 version in %q", parts[2])
	}

	h := &phcHash{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memoryKiB, &h.passes, &h.threads); err != nil {
		return nil, fmt.Errorf("invalid cost parameters: %w", err)
	}

	var err error
	if h.salt, err = b64.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("invalid salt encoding: %w", err)
	}
	if h.key, err = b64.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("invalid key encoding: %w", err)
	}
	return h, nil
}
