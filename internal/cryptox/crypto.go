// Package cryptox implements the backup payload encryption: password-based
// key derivation (PBKDF2) and authenticated encryption (AES-256-GCM).
//
// Payloads are versioned. Version 1 payloads were produced with fixed
// derivation parameters that stay baked in forever; version 2 payloads carry
// their own derivation parameters, so the iteration count can be raised later
// without breaking older backups.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// Legacy (version 1) derivation parameters. Never change these.
	legacyIterations = 100_000

	// Current (version 2) derivation parameters.
	currentVersion    = 2
	currentIterations = 600_000

	// maxIterations bounds the iteration count a payload may request.
	// The payload is unauthenticated until the key is derived, so a hostile
	// blob must not be able to dictate an unbounded amount of KDF work.
	maxIterations = 10_000_000

	kdfTypePBKDF2 = "PBKDF2"
	kdfHashSHA256 = "SHA-256"

	keyLen  = 32
	saltLen = 16
	ivLen   = 12
)

// Payload is the wire format of an encrypted backup blob.
// Binary fields are base64-encoded. The kdf* fields are present from
// version 2 on; version 1 payloads omit them and imply the legacy parameters.
type Payload struct {
	Version       int    `json:"version"`
	Ciphertext    string `json:"ciphertext"`
	IV            string `json:"iv"`
	Salt          string `json:"salt"`
	KDFType       string `json:"kdfType,omitempty"`
	KDFHash       string `json:"kdfHash,omitempty"`
	KDFIterations int    `json:"kdfIterations,omitempty"`
}

func deriveKey(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, keyLen, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt encrypts plaintext under a key derived from password with a fresh
// random salt and IV, and returns a self-describing version-2 payload.
func Encrypt(plaintext []byte, password string) (*Payload, error) {
	salt := common.GenerateRandByteArray(saltLen)
	iv := common.GenerateRandByteArray(ivLen)

	key := deriveKey(password, salt, currentIterations)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}

	ciphertext := aesgcm.Seal(nil, iv, plaintext, nil)

	return &Payload{
		Version:       currentVersion,
		Ciphertext:    base64.StdEncoding.EncodeToString(ciphertext),
		IV:            base64.StdEncoding.EncodeToString(iv),
		Salt:          base64.StdEncoding.EncodeToString(salt),
		KDFType:       kdfTypePBKDF2,
		KDFHash:       kdfHashSHA256,
		KDFIterations: currentIterations,
	}, nil
}

// Decrypt decrypts a payload with a key derived from password. Payloads with
// version 0 or 1 are decrypted with the legacy fixed parameters; newer
// payloads use the parameters they carry.
//
// Every failure (malformed base64, wrong password, corrupted ciphertext,
// unknown derivation parameters) surfaces as common.ErrDecryption so the
// caller cannot distinguish the cause.
func Decrypt(p *Payload, password string) ([]byte, error) {
	iterations := legacyIterations
	if p.Version >= 2 {
		if p.KDFType != kdfTypePBKDF2 || p.KDFHash != kdfHashSHA256 ||
			p.KDFIterations <= 0 || p.KDFIterations > maxIterations {
			return nil, common.ErrDecryption
		}
		iterations = p.KDFIterations
	}

	ciphertext, err := base64.StdEncoding.DecodeString(p.Ciphertext)
	if err != nil {
		return nil, common.ErrDecryption
	}
	iv, err := base64.StdEncoding.DecodeString(p.IV)
	if err != nil {
		return nil, common.ErrDecryption
	}
	salt, err := base64.StdEncoding.DecodeString(p.Salt)
	if err != nil {
		return nil, common.ErrDecryption
	}
	// aesgcm.Open panics on a wrong-length nonce, so a truncated IV must be
	// rejected here rather than passed through.
	if len(iv) != ivLen || len(salt) != saltLen {
		return nil, common.ErrDecryption
	}

	key := deriveKey(password, salt, iterations)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, common.ErrDecryption
	}

	plaintext, err := aesgcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		// GCM authentication failure: wrong password or tampered data.
		return nil, common.ErrDecryption
	}

	return plaintext, nil
}

// EncryptLegacy produces a version-1 payload with the fixed legacy
// parameters. Only used by compatibility tests; new backups are always
// written with Encrypt.
func EncryptLegacy(plaintext []byte, password string) (*Payload, error) {
	salt := common.GenerateRandByteArray(saltLen)
	iv := common.GenerateRandByteArray(ivLen)

	key := deriveKey(password, salt, legacyIterations)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}

	ciphertext := aesgcm.Seal(nil, iv, plaintext, nil)

	return &Payload{
		Version:    1,
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(iv),
		Salt:       base64.StdEncoding.EncodeToString(salt),
	}, nil
}
