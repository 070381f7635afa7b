package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestKeyFromPassphrase(t *testing.T) {
	key := KeyFromPassphrase("secret")

	if got := hex.EncodeToString(key); got != "22e2bdb9a9518f6ddf44d3ef918c7f4d" {
		t.Errorf("KeyFromPassphrase(secret) = %s", got)
	}
	if len(key) != KeySize {
		t.Errorf("len(key) = %d, want %d", len(key), KeySize)
	}
}

func TestGenerateKeyAndIV(t *testing.T) {
	key, err := GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if len(key) != KeySize {
		t.Errorf("len(GenerateKey()) = %d, want %d", len(key), KeySize)
	}

	iv, err := GenerateIV(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9}))
	if err != nil {
		t.Fatalf("GenerateIV() error = %v", err)
	}
	if !bytes.Equal(iv, []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("GenerateIV() = %x", iv)
	}

	if _, err := GenerateIV(bytes.NewReader([]byte{1, 2})); err == nil {
		t.Error("GenerateIV() with short source should fail")
	}
}

func TestSaveLoadKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.key")
	key := KeyFromPassphrase("secret")

	if err := SaveKeyToFile(path, key); err != nil {
		t.Fatalf("SaveKeyToFile() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("key file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadKeyFromFile(path)
	if err != nil {
		t.Fatalf("LoadKeyFromFile() error = %v", err)
	}
	if !bytes.Equal(loaded, key) {
		t.Errorf("LoadKeyFromFile() = %x, want %x", loaded, key)
	}
}

func TestLoadKeyInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.key")
	if err := os.WriteFile(path, []byte("not hex"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadKeyFromFile(path); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("LoadKeyFromFile() error = %v, want ErrInvalidKey", err)
	}

	if err := SaveKeyToFile(path, []byte{1, 2, 3}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("SaveKeyToFile(short key) error = %v, want ErrConfiguration", err)
	}
}
