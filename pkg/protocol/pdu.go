package protocol

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/smallchat/smallchat-node/pkg/crypto"
)

var (
	// ErrMalformedPdu matches every decode failure
	ErrMalformedPdu = errors.New("malformed PDU")

	ErrUnknownType  = errors.New("unknown PDU type")
	ErrEmptyPayload = errors.New("Hello and Welcome PDUs must have a non-empty payload")
)

// MalformedPduError is returned by Decode. It deliberately does not
// distinguish a wrong key from a corrupted or forged packet.
type MalformedPduError struct {
	Reason string
	Err    error
}

func (e *MalformedPduError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed PDU: %s: %v", e.Reason, e.Err)
	}
	return "malformed PDU: " + e.Reason
}

func (e *MalformedPduError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMalformedPdu) hold for every MalformedPduError
func (e *MalformedPduError) Is(target error) bool {
	return target == ErrMalformedPdu
}

func malformed(reason string, err error) error {
	return &MalformedPduError{Reason: reason, Err: err}
}

// Pdu is a decoded SmallChat protocol data unit
type Pdu struct {
	ChatID  string
	Type    PduType
	Charset string // IANA charset name of the payload
	Payload []byte
}

// NewPdu creates a PDU with a raw payload
func NewPdu(chatID string, t PduType, charset string, payload []byte) *Pdu {
	return &Pdu{
		ChatID:  chatID,
		Type:    t,
		Charset: charset,
		Payload: payload,
	}
}

// NewTextPdu creates a PDU whose payload is text encoded in charset
func NewTextPdu(chatID string, t PduType, charset, text string) (*Pdu, error) {
	payload, err := EncodeText(charset, text)
	if err != nil {
		return nil, err
	}
	return NewPdu(chatID, t, charset, payload), nil
}

// Text decodes the payload using the PDU's charset
func (p *Pdu) Text() (string, error) {
	return DecodeText(p.Charset, p.Payload)
}

// Codec encodes and decodes PDUs under a room key
type Codec struct {
	key  []byte
	rand io.Reader
}

// NewCodec creates a codec for key. IVs and cipher padding are drawn from r;
// a nil r means crypto/rand.
func NewCodec(key []byte, r io.Reader) (*Codec, error) {
	if len(key) != crypto.KeySize {
		return nil, fmt.Errorf("%w: key is %d bytes, want %d", crypto.ErrConfiguration, len(key), crypto.KeySize)
	}
	if r == nil {
		r = rand.Reader
	}
	return &Codec{
		key:  append([]byte(nil), key...),
		rand: &lockedReader{r: r},
	}, nil
}

// Encode serializes and encrypts p
func (c *Codec) Encode(p *Pdu) ([]byte, error) {
	code, ok := p.Type.Code()
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownType, p.Type)
	}
	if _, err := LookupCharset(p.Charset); err != nil {
		return nil, err
	}

	iv, err := crypto.GenerateIV(c.rand)
	if err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	header := &Header{ChatID: p.ChatID, IV: iv}
	if err := header.Validate(); err != nil {
		return nil, err
	}

	body := make([]byte, 0, TypeCodeSize+len(p.Charset)+1+len(p.Payload))
	body = append(body, code...)
	body = append(body, p.Charset...)
	body = append(body, 0)
	body = append(body, p.Payload...)

	ciphertext, err := crypto.EncryptWithRand(c.rand, body, c.key, iv)
	if err != nil {
		return nil, err
	}

	return append(header.Encode(), ciphertext...), nil
}

// Decode decrypts and parses raw. Every failure is a *MalformedPduError.
func (c *Codec) Decode(raw []byte) (*Pdu, error) {
	if len(raw) < MinPduSize {
		return nil, malformed("PDU too short", ErrInvalidHeader)
	}

	var header Header
	n, err := header.Decode(raw)
	if err != nil {
		return nil, malformed("bad header", err)
	}

	body, err := crypto.Decrypt(raw[n:], c.key, header.IV)
	if err != nil {
		return nil, malformed("decryption failed", err)
	}

	if len(body) < TypeCodeSize {
		return nil, malformed("missing type code", nil)
	}
	t, err := ParseTypeCode(string(body[:TypeCodeSize]))
	if err != nil {
		return nil, malformed("bad type code", err)
	}

	rest := body[TypeCodeSize:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		return nil, malformed("unterminated charset", nil)
	}
	charset := string(rest[:end])
	if _, err := LookupCharset(charset); err != nil {
		return nil, malformed("bad charset", err)
	}

	payload := rest[end+1:]
	if t.RequiresPayload() && len(payload) == 0 {
		return nil, malformed("empty payload", ErrEmptyPayload)
	}

	return &Pdu{
		ChatID:  header.ChatID,
		Type:    t,
		Charset: charset,
		Payload: payload,
	}, nil
}

// lockedReader serializes reads so a math/rand source can be shared
// between the receive loop and senders.
type lockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}
