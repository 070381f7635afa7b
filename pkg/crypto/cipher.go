package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// Cipher parameters
const (
	KeySize   = 16
	IVSize    = 8
	BlockSize = 16

	blockKeySize = KeySize + 4*IVSize + 1 // 49
)

var (
	// ErrConfiguration is returned when a key or IV has the wrong length.
	// It indicates a caller bug and is never worth retrying.
	ErrConfiguration = errors.New("invalid cipher configuration")

	// ErrDecryption is returned when a ciphertext cannot be decrypted:
	// a wrong key, corruption or tampering. A wrong key or IV is not always
	// detected; in that case Decrypt returns garbage instead of an error.
	ErrDecryption = errors.New("unable to decrypt message")
)

// Encrypt encrypts plaintext under key and iv, drawing padding bytes from crypto/rand.
func Encrypt(plaintext, key, iv []byte) ([]byte, error) {
	return EncryptWithRand(rand.Reader, plaintext, key, iv)
}

// EncryptWithRand is Encrypt with an explicit source for the padding bytes.
//
// The plaintext is framed by the envelope (see sealEnvelope), the padded
// plaintext region is transformed with an inner IV taken from the random tail,
// and the whole envelope is then reversed and transformed with iv.
func EncryptWithRand(r io.Reader, plaintext, key, iv []byte) ([]byte, error) {
	if err := checkParams(key, iv); err != nil {
		return nil, err
	}

	buf, err := sealEnvelope(r, plaintext)
	if err != nil {
		return nil, err
	}

	padded := paddedLen(len(plaintext))
	inner := buf[lengthHeaderSize : lengthHeaderSize+padded]
	innerIV := buf[lengthHeaderSize+padded : lengthHeaderSize+padded+IVSize]
	blockTransform(inner, inner, key, innerIV, false)

	reverse(buf)
	blockTransform(buf, buf, key, iv, false)

	return buf, nil
}

// Decrypt reverses Encrypt.
func Decrypt(ciphertext, key, iv []byte) ([]byte, error) {
	if err := checkParams(key, iv); err != nil {
		return nil, err
	}
	if len(ciphertext)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrDecryption, len(ciphertext), BlockSize)
	}
	if len(ciphertext) == 0 {
		return nil, fmt.Errorf("%w: empty ciphertext", ErrDecryption)
	}

	buf := make([]byte, len(ciphertext))
	blockTransform(buf, ciphertext, key, iv, true)
	reverse(buf)

	length, err := openEnvelope(buf)
	if err != nil {
		return nil, err
	}

	padded := paddedLen(length)
	innerIV := buf[lengthHeaderSize+padded : lengthHeaderSize+padded+IVSize]
	out := make([]byte, padded)
	blockTransform(out, buf[lengthHeaderSize:lengthHeaderSize+padded], key, innerIV, true)

	return out[:length], nil
}

// EncryptedLen returns the ciphertext length produced for a plaintext of n bytes
func EncryptedLen(n int) int {
	return ((n + 31) / 16) * 16
}

// blockTransform runs the chained block transform over src into dst.
// dst and src may be the same slice; len(src) must be a multiple of BlockSize.
//
// The 49-byte block key starts as key ‖ iv ‖ iv ‖ iv ‖ iv ‖ 0x00. After every
// block, bytes 16-31 take the ciphertext block, bytes 32-47 the plaintext
// block, and byte 32 is incremented.
func blockTransform(dst, src, key, iv []byte, decrypting bool) {
	var blockKey [blockKeySize]byte
	copy(blockKey[:KeySize], key)
	for i := 0; i < 4; i++ {
		copy(blockKey[KeySize+i*IVSize:], iv[:IVSize])
	}
	blockKey[blockKeySize-1] = 0

	var in [BlockSize]byte
	for off := 0; off+BlockSize <= len(src); off += BlockSize {
		keystream := Digest(blockKey[:])
		copy(in[:], src[off:off+BlockSize])

		out := dst[off : off+BlockSize]
		for j := 0; j < BlockSize; j++ {
			out[j] = in[j] ^ keystream[j]
		}

		if decrypting {
			copy(blockKey[16:32], in[:])
			copy(blockKey[32:48], out)
		} else {
			copy(blockKey[16:32], out)
			copy(blockKey[32:48], in[:])
		}
		blockKey[32]++
	}
}

func checkParams(key, iv []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("%w: key is %d bytes, want %d", ErrConfiguration, len(key), KeySize)
	}
	if len(iv) != IVSize {
		return fmt.Errorf("%w: initialization vector is %d bytes, want %d", ErrConfiguration, len(iv), IVSize)
	}
	return nil
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
