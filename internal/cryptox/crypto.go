// Package cryptox holds the primitives behind the secure credential store:
// argon2id key derivation and AES-GCM sealing of individual values.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/argon2"
)

// NonceSize is the AES-GCM nonce length used by Seal.
const NonceSize = 12

var ErrInvalidKey = errors.New("invalid key length")

// DeriveStoreKey derives a 32-byte AES-256 key from a device secret and salt.
func DeriveStoreKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// Seal encrypts plaintext with AES-GCM under key. additionalData is
// authenticated but not encrypted; the store passes the item key so a
// ciphertext cannot be replayed under a different name.
func Seal(key, plaintext, additionalData []byte) (ciphertext, nonce []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	return aead.Seal(nil, nonce, plaintext, additionalData), nonce, nil
}

// Open reverses Seal. It fails if key, nonce or additionalData differ from
// the values used to seal.
func Open(key, ciphertext, nonce, additionalData []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, additionalData)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
