package protocol

import (
	"fmt"
)

// Protocol constants
const (
	// Version tag that opens every PDU
	VersionMajor = 0x00
	VersionMinor = 0x01

	// DefaultPort is the UDP port every SmallChat host binds and sends to
	DefaultPort = 4412

	// MinPduSize is the shortest buffer Decode will look at
	MinPduSize = 12

	// MaxPduSize is the largest datagram a session reads
	MaxPduSize = 4096

	// TypeCodeSize is the length of the ASCII type code
	TypeCodeSize = 3

	// DefaultCharset is used for outgoing text
	DefaultCharset = "utf-8"
)

// PduType identifies the kind of a PDU
type PduType uint8

// PDU types
const (
	TypeUnknown PduType = iota
	TypeHello
	TypeWelcome
	TypeLeave
	TypeMessage
	TypeMalformedNotification
	TypeConflictNotification
)

var typeCodes = map[PduType]string{
	TypeHello:                 "HLO",
	TypeWelcome:               "ACK",
	TypeLeave:                 "LEV",
	TypeMessage:               "MSG",
	TypeMalformedNotification: "BAD",
	TypeConflictNotification:  "CNF",
}

var typeNames = map[PduType]string{
	TypeHello:                 "Hello",
	TypeWelcome:               "Welcome",
	TypeLeave:                 "Leave",
	TypeMessage:               "Message",
	TypeMalformedNotification: "MalformedNotification",
	TypeConflictNotification:  "ConflictNotification",
}

// Code returns the 3-letter wire code of t
func (t PduType) Code() (string, bool) {
	code, ok := typeCodes[t]
	return code, ok
}

// String returns a human readable name
func (t PduType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PduType(%d)", uint8(t))
}

// RequiresPayload reports whether a PDU of this type must carry a non-empty payload
func (t PduType) RequiresPayload() bool {
	return t == TypeHello || t == TypeWelcome
}

// ParseTypeCode maps a wire code to its PduType
func ParseTypeCode(code string) (PduType, error) {
	for t, c := range typeCodes {
		if c == code {
			return t, nil
		}
	}
	return TypeUnknown, fmt.Errorf("%w: %q", ErrUnknownType, code)
}
