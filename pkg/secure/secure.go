// Package secure seals sensitive form fields at rest and sanitises user input.
package secure

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
)

// SealedPrefix marks a sealed value. Values without it are plaintext.
const SealedPrefix = "enc:v1:"

// KeySize is the sealing key length in bytes.
const KeySize = chacha20poly1305.KeySize

// ErrCiphertextTooShort is returned when a sealed value lacks a nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Sealer encrypts strings with XChaCha20-Poly1305 and encodes them as
// prefixed raw URL base64.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer creates a sealer from a 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// NewSealerBase64 creates a sealer from a standard or raw URL base64 key.
func NewSealerBase64(encoded string) (*Sealer, error) {
	key, err := DecodeKey(encoded)
	if err != nil {
		return nil, err
	}
	return NewSealer(key)
}

// Seal encrypts plaintext with a fresh random nonce. Empty input stays empty.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	ciphertext := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return SealedPrefix + base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// Open decrypts a sealed value. Values without the prefix are returned
// unchanged, so forms saved before sealing was enabled still load.
func (s *Sealer) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, SealedPrefix))
	if err != nil {
		return "", err
	}
	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return "", ErrCiphertextTooShort
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// IsSealed reports whether value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, SealedPrefix)
}

// -----------------------------------------------------------------------------
// Keys
// -----------------------------------------------------------------------------

// GenerateKey returns a random key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// EncodeKey encodes a key as standard base64.
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// DecodeKey accepts standard or raw URL base64.
func DecodeKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if key, err := base64.StdEncoding.DecodeString(encoded); err == nil {
		return key, nil
	}
	return base64.RawURLEncoding.DecodeString(encoded)
}

// WriteKeyFile generates a key and writes it to path with mode 0600. An
// existing file is left alone and its key returned.
func WriteKeyFile(path string) ([]byte, error) {
	if key, err := ReadKeyFile(path); err == nil {
		return key, nil
	}
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(EncodeKey(key)+"\n"), 0600); err != nil {
		return nil, err
	}
	return key, nil
}

// ReadKeyFile reads a base64 key written by WriteKeyFile.
func ReadKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := DecodeKey(string(data))
	if err != nil {
		return nil, fmt.Errorf("invalid key file %s: %w", path, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key file %s: key must be %d bytes, got %d", path, KeySize, len(key))
	}
	return key, nil
}

// -----------------------------------------------------------------------------
// Input
// -----------------------------------------------------------------------------

var (
	scriptBlock  = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	jsProtocol   = regexp.MustCompile(`(?i)javascript\s*:`)
	eventHandler = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// SanitizeInput strips script blocks, angle brackets, javascript: URLs and
// inline event handlers, then trims surrounding whitespace.
func SanitizeInput(input string) string {
	s := scriptBlock.ReplaceAllString(input, "")
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	s = jsProtocol.ReplaceAllString(s, "")
	s = eventHandler.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}
