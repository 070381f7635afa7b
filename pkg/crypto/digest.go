package crypto

import (
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
)

// DigestSize is the length of a digest in bytes
const DigestSize = 16

const (
	digestFiller = 0xAA
	mixConstant  = 8191
	digestRounds = 4
)

// Digest computes the 16-byte SmallChat digest of data.
//
// The input is padded with its length (mod 65536, big-endian) and 0xAA filler
// to a whole number of 16-byte blocks. Every block is compressed on its own and
// the per-block states are then folded left to right.
func Digest(data []byte) [DigestSize]byte {
	blocks := (len(data) + 17) / 16
	buf := make([]byte, blocks*16)
	copy(buf, data)
	binary.BigEndian.PutUint16(buf[len(data):], uint16(len(data)))
	for i := len(data) + 2; i < len(buf); i++ {
		buf[i] = digestFiller
	}

	for i := 0; i < blocks; i++ {
		compress(buf[i*16 : (i+1)*16])
	}

	var out [DigestSize]byte
	copy(out[:], buf[:16])

	var left, right [16]byte
	for i := 1; i < blocks; i++ {
		block := buf[i*16 : (i+1)*16]
		copy(left[:8], out[:8])
		copy(left[8:], block[:8])
		copy(right[:8], block[8:])
		copy(right[8:], out[8:])
		compress(left[:])
		compress(right[:])
		for j := range out {
			out[j] = left[j] ^ right[j]
		}
	}

	return out
}

// DigestString returns the hex encoding of Digest(data)
func DigestString(data []byte) string {
	sum := Digest(data)
	return hex.EncodeToString(sum[:])
}

// VerifyDigest reports whether expected is the digest of data
func VerifyDigest(data []byte, expected []byte) bool {
	if len(expected) != DigestSize {
		return false
	}
	sum := Digest(data)
	return subtle.ConstantTimeCompare(sum[:], expected) == 1
}

// halfComplement flips the upper 16 bits of x and keeps the lower 16
func halfComplement(x uint32) uint32 {
	return (^(x >> 16) << 16) | (x & 0xFFFF)
}

// mix combines two words; all arithmetic wraps at 32 bits
func mix(x, y uint32) uint32 {
	x = halfComplement(x)
	y = ^halfComplement(y)
	return (x * y) ^ ((x + mixConstant) * (y + mixConstant))
}

// compress runs the block compression function on a 16-byte block in place.
func compress(block []byte) {
	for round := 0; round < digestRounds; round++ {
		a := binary.BigEndian.Uint32(block[0:4])
		b := binary.BigEndian.Uint32(block[4:8])
		c := binary.BigEndian.Uint32(block[8:12])
		d := binary.BigEndian.Uint32(block[12:16])

		k := b ^ c ^ d
		origA := a

		newA := mix(a, b) ^ k
		k = a ^ newA
		newB := mix(b, c) ^ k
		k = b ^ newB
		newC := mix(c, d) ^ k
		k = c ^ newC
		newD := mix(d, origA) ^ k

		// Lane permutation: a, c, b, d shifted right by one byte.
		binary.BigEndian.PutUint32(block[1:5], newA)
		binary.BigEndian.PutUint32(block[5:9], newC)
		binary.BigEndian.PutUint32(block[9:13], newB)
		block[13] = byte(newD >> 24)
		block[14] = byte(newD >> 16)
		block[15] = byte(newD >> 8)
		block[0] = byte(newD)
	}
}
