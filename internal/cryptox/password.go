package cryptox

import (
	"crypto/subtle"
	"encoding/hex"

	"github.com/ledgerkeep/ledgerkeep/internal/common"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for the local password check. Independent of the
// payload key derivation: this hash only lets the user confirm they still
// remember the encryption password, it is never transmitted or used as a key.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// HashPassword derives an argon2id hash of password under a fresh random
// salt. Both values are returned hex-encoded for storage.
func HashPassword(password string) (hash, salt string) {
	saltBytes := common.GenerateRandByteArray(argonSaltLen)
	h := argon2.IDKey([]byte(password), saltBytes, argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(h), hex.EncodeToString(saltBytes)
}

// VerifyPassword reports whether password matches the stored hash/salt pair.
// The comparison is constant-time.
func VerifyPassword(password, hash, salt string) bool {
	saltBytes, err := hex.DecodeString(salt)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), saltBytes, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(got, want) == 1
}
