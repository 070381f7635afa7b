package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Local storage encryption. Chat history is kept under AES-256-GCM with a key
// derived from a local passphrase; it never travels on the wire.
const (
	StorageKeySize   = 32
	StorageKeySalt   = "smallchat-history"
	PBKDF2Iterations = 4096
)

// DeriveStorageKey derives the history encryption key from a passphrase
func DeriveStorageKey(passphrase string) []byte {
	return pbkdf2.Key([]byte(passphrase), []byte(StorageKeySalt), PBKDF2Iterations, StorageKeySize, sha256.New)
}

// AESEncrypt encrypts data with AES-256-GCM
func AESEncrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// AESDecrypt decrypts data with AES-256-GCM
func AESDecrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
