package crypto

import (
	"fmt"
	"io"
)

// lengthHeaderSize is the size of the big-endian plaintext length that opens every envelope
const lengthHeaderSize = 7

// paddedLen rounds n up to a whole number of blocks
func paddedLen(n int) int {
	return ((n + BlockSize - 1) / BlockSize) * BlockSize
}

// sealEnvelope frames plaintext as
//
//	[length (7 bytes BE)] [plaintext] [random bytes]
//
// for a total of paddedLen(len(plaintext)) + 16 bytes. The random tail is 9 bytes
// longer than the block padding; its first 8 bytes after the padded region serve
// as the inner IV.
func sealEnvelope(r io.Reader, plaintext []byte) ([]byte, error) {
	padded := paddedLen(len(plaintext))
	buf := make([]byte, padded+BlockSize)

	n := uint64(len(plaintext))
	for i := lengthHeaderSize - 1; i >= 0; i-- {
		buf[i] = byte(n)
		n >>= 8
	}

	copy(buf[lengthHeaderSize:], plaintext)

	if _, err := io.ReadFull(r, buf[lengthHeaderSize+len(plaintext):]); err != nil {
		return nil, fmt.Errorf("failed to generate padding: %w", err)
	}

	return buf, nil
}

// openEnvelope reads and validates the length header of a decrypted, reversed envelope
func openEnvelope(buf []byte) (int, error) {
	if len(buf) < BlockSize {
		return 0, fmt.Errorf("%w: envelope too short", ErrDecryption)
	}

	var n uint64
	for i := 0; i < lengthHeaderSize; i++ {
		n = n<<8 | uint64(buf[i])
	}

	if n > uint64(len(buf)-BlockSize) {
		return 0, fmt.Errorf("%w: declared length %d exceeds %d available bytes", ErrDecryption, n, len(buf)-BlockSize)
	}

	return int(n), nil
}
