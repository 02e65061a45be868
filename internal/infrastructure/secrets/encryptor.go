// Package secrets encrypts merchant credentials at rest with
// AES-256-GCM. The key is derived from a configured secret via scrypt,
// so only the secret needs to be managed.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	keyLength       = 32
	minSecretLength = 32

	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

// kdfSalt is fixed: the secret itself is the only configured input and
// must already be high-entropy.
var kdfSalt = []byte("repogate-credentials-v1")

var (
	ErrSecretTooShort    = errors.New("encryption secret must be at least 32 characters")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// Encryptor seals and opens short secrets such as API keys.
type Encryptor struct {
	aead cipher.AEAD
}

func NewEncryptor(secret string) (*Encryptor, error) {
	if len(secret) < minSecretLength {
		return nil, ErrSecretTooShort
	}

	key, err := scrypt.Key([]byte(secret), kdfSalt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Encryptor{aead: aead}, nil
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext).
// Empty input stays empty so optional credential fields round-trip.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	if len(raw) < e.aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	nonce, sealed := raw[:e.aead.NonceSize()], raw[e.aead.NonceSize():]
	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}
