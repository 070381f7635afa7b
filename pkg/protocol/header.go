package protocol

import (
	"bytes"
	"errors"

	"github.com/smallchat/smallchat-node/pkg/crypto"
)

var (
	ErrInvalidVersion = errors.New("unsupported protocol version")
	ErrInvalidHeader  = errors.New("invalid header")
	ErrInvalidChatID  = errors.New("chat ID must not contain NUL bytes")
)

// Header is the plaintext part of a PDU
type Header struct {
	ChatID string
	IV     []byte
}

// Encode encodes the header to bytes
func (h *Header) Encode() []byte {
	buf := make([]byte, 0, h.Size())
	buf = append(buf, VersionMajor, VersionMinor)
	buf = append(buf, h.ChatID...)
	buf = append(buf, 0)
	buf = append(buf, h.IV...)
	return buf
}

// Size returns the encoded size of the header
func (h *Header) Size() int {
	return 2 + len(h.ChatID) + 1 + crypto.IVSize
}

// Decode decodes the header from buf and returns the number of bytes consumed
func (h *Header) Decode(buf []byte) (int, error) {
	if len(buf) < MinPduSize {
		return 0, ErrInvalidHeader
	}

	if err := validateVersion(buf); err != nil {
		return 0, err
	}

	end := bytes.IndexByte(buf[2:], 0)
	if end < 0 {
		return 0, ErrInvalidHeader
	}

	off := 2 + end + 1
	if len(buf) < off+crypto.IVSize {
		return 0, ErrInvalidHeader
	}

	h.ChatID = string(buf[2 : 2+end])
	h.IV = append([]byte(nil), buf[off:off+crypto.IVSize]...)

	return off + crypto.IVSize, nil
}

// Validate validates the header
func (h *Header) Validate() error {
	if bytes.IndexByte([]byte(h.ChatID), 0) >= 0 {
		return ErrInvalidChatID
	}
	if len(h.IV) != crypto.IVSize {
		return ErrInvalidHeader
	}
	return nil
}

func validateVersion(buf []byte) error {
	if buf[0] != VersionMajor || buf[1] != VersionMinor {
		return ErrInvalidVersion
	}
	return nil
}

// CheckChatID reports whether raw is addressed to chatID. The chat ID
// segment runs to the first NUL or the end of raw; nothing is decrypted, so
// a truncated packet for our chat still matches and fails later in Decode.
func CheckChatID(raw []byte, chatID string) bool {
	if len(raw) < 2 {
		return false
	}

	segment := raw[2:]
	if end := bytes.IndexByte(segment, 0); end >= 0 {
		segment = segment[:end]
	}
	return string(segment) == chatID
}
