package protocol

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

var ErrUnknownCharset = errors.New("unknown charset")

// LookupCharset resolves an IANA charset name. Names that IANA knows but
// golang.org/x/text cannot convert are rejected too.
func LookupCharset(name string) (encoding.Encoding, error) {
	if name == "" || strings.IndexByte(name, 0) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, name)
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, name)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: %q is not supported", ErrUnknownCharset, name)
	}

	return enc, nil
}

// EncodeText converts text to the given charset.
// Characters the charset cannot represent are replaced.
func EncodeText(charset, text string) ([]byte, error) {
	enc, err := LookupCharset(charset)
	if err != nil {
		return nil, err
	}
	return encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes([]byte(text))
}

// DecodeText converts data in the given charset to a Go string
func DecodeText(charset string, data []byte) (string, error) {
	enc, err := LookupCharset(charset)
	if err != nil {
		return "", err
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
