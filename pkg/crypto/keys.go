package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrInvalidKey = errors.New("invalid key")
)

// KeyFromPassphrase derives a session key from a passphrase.
// The key is the digest of the passphrase bytes.
func KeyFromPassphrase(passphrase string) []byte {
	sum := Digest([]byte(passphrase))
	return sum[:]
}

// GenerateKey generates a random session key
func GenerateKey(r io.Reader) ([]byte, error) {
	return randomBytes(r, KeySize)
}

// GenerateIV generates a random initialization vector
func GenerateIV(r io.Reader) ([]byte, error) {
	return randomBytes(r, IVSize)
}

func randomBytes(r io.Reader, size int) ([]byte, error) {
	if r == nil {
		r = rand.Reader
	}
	b := make([]byte, size)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// SaveKeyToFile writes a key as hex to filename
func SaveKeyToFile(filename string, key []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("%w: key is %d bytes, want %d", ErrConfiguration, len(key), KeySize)
	}
	return os.WriteFile(filename, []byte(hex.EncodeToString(key)+"\n"), 0600)
}

// LoadKeyFromFile reads a hex key written by SaveKeyToFile
func LoadKeyFromFile(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	key, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil || len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	return key, nil
}
