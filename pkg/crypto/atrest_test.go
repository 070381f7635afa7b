package crypto

import (
	"bytes"
	"testing"
)

func TestDeriveStorageKey(t *testing.T) {
	a := DeriveStorageKey("local secret")
	b := DeriveStorageKey("local secret")
	c := DeriveStorageKey("other secret")

	if len(a) != StorageKeySize {
		t.Errorf("len(DeriveStorageKey()) = %d, want %d", len(a), StorageKeySize)
	}
	if !bytes.Equal(a, b) {
		t.Error("DeriveStorageKey() not deterministic")
	}
	if bytes.Equal(a, c) {
		t.Error("different passphrases derived the same key")
	}
}

func TestAESRoundTrip(t *testing.T) {
	key := DeriveStorageKey("local secret")
	plaintext := []byte("history line")

	ct, err := AESEncrypt(plaintext, key)
	if err != nil {
		t.Fatalf("AESEncrypt() error = %v", err)
	}

	pt, err := AESDecrypt(ct, key)
	if err != nil {
		t.Fatalf("AESDecrypt() error = %v", err)
	}
	if !bytes.Equal(pt, plaintext) {
		t.Errorf("AESDecrypt() = %q, want %q", pt, plaintext)
	}

	ct[len(ct)-1] ^= 0x01
	if _, err := AESDecrypt(ct, key); err == nil {
		t.Error("AESDecrypt() accepted tampered ciphertext")
	}

	if _, err := AESDecrypt([]byte{1, 2}, key); err == nil {
		t.Error("AESDecrypt() accepted short ciphertext")
	}
}
