package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestDigestKnownVectors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"empty", []byte{}, "82e8c4e2dd90794093a530397de51083"},
		{"hello world", []byte("hello world"), "09d271c7c325b8a4c6608d5691ab6a39"},
		{"quick brown fox", []byte("The quick brown fox jumps over the lazy dog"), "f45b5598cb8ed140a7e3de325c8ce6a7"},
		{"49 zero bytes", make([]byte, 49), "83c018a2cb4406748cf15a7d2c003eed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DigestString(tt.input)
			if got != tt.want {
				t.Errorf("DigestString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDigestDeterministic(t *testing.T) {
	data := []byte("same input, same output")

	a := Digest(data)
	b := Digest(data)
	if a != b {
		t.Errorf("Digest() not deterministic: %x != %x", a, b)
	}
}

func TestDigestDoesNotModifyInput(t *testing.T) {
	data := []byte("leave me alone")
	orig := append([]byte(nil), data...)

	Digest(data)

	if !bytes.Equal(data, orig) {
		t.Errorf("Digest() modified its input: %x", data)
	}
}

func TestDigestBitFlip(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	base := Digest(data)

	for i := range data {
		flipped := append([]byte(nil), data...)
		flipped[i] ^= 0x01
		if Digest(flipped) == base {
			t.Errorf("flipping bit 0 of byte %d did not change the digest", i)
		}
	}
}

func TestDigestLengthSensitive(t *testing.T) {
	// Inputs differing only in trailing filler bytes must not collide
	a := Digest([]byte{0xAA})
	b := Digest([]byte{0xAA, 0xAA})
	if a == b {
		t.Error("Digest() collides on inputs of different length")
	}
}

func TestVerifyDigest(t *testing.T) {
	data := []byte("hello world")
	sum, _ := hex.DecodeString("09d271c7c325b8a4c6608d5691ab6a39")

	if !VerifyDigest(data, sum) {
		t.Error("VerifyDigest() = false for matching digest")
	}

	sum[0] ^= 0xFF
	if VerifyDigest(data, sum) {
		t.Error("VerifyDigest() = true for mismatching digest")
	}

	if VerifyDigest(data, sum[:8]) {
		t.Error("VerifyDigest() = true for truncated digest")
	}
}

func BenchmarkDigest(b *testing.B) {
	data := make([]byte, 1024)
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		Digest(data)
	}
}
