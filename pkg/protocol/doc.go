// Package protocol implements the SmallChat wire format.
//
// The protocol package defines the PDU (protocol data unit) types, the
// encoding/decoding of PDUs and the text charset handling used by SmallChat
// sessions on a local network.
//
// # Protocol Overview
//
// SmallChat is a serverless chat that runs over UDP:
//   - One datagram carries exactly one PDU
//   - PDUs are addressed to a chat room by a plaintext chat ID
//   - Everything after the chat ID and IV is encrypted with the shared room key
//   - Peers discover each other with broadcast Hello and unicast Welcome PDUs
//
// # PDU Types
//
// Discovery:
//   - Hello (HLO): announces a nickname; answered with a Welcome
//   - Welcome (ACK): answers a Hello with the responder's nickname
//   - Leave (LEV): the sender is going offline
//
// Chat:
//   - Message (MSG): a line of text
//
// Diagnostics:
//   - MalformedNotification (BAD): the sender could not decode something we sent
//   - ConflictNotification (CNF): two peers use the same nickname
//
// # Wire Format
//
// Every PDU has the following layout (integers are big-endian):
//   - Version (2 bytes): 0x0001
//   - Chat ID (variable): ASCII, NUL-terminated
//   - IV (8 bytes): random per PDU
//   - Ciphertext (remainder)
//
// The ciphertext decrypts to:
//   - Type code (3 bytes): HLO, ACK, LEV, MSG, BAD or CNF
//   - Charset (variable): IANA charset name, NUL-terminated
//   - Payload (remainder)
//
// # Decoding Failures
//
// The cipher cannot tell a wrong key from a corrupted packet, so every decode
// failure is reported as a single MalformedPduError. Callers match it with
// errors.Is(err, ErrMalformedPdu).
//
// # Usage Example
//
//	codec, err := protocol.NewCodec(key, nil)
//	if err != nil {
//	    return err
//	}
//
//	pdu, err := protocol.NewTextPdu("lobby", protocol.TypeMessage, protocol.DefaultCharset, "Hello!")
//	if err != nil {
//	    return err
//	}
//
//	raw, err := codec.Encode(pdu)
//	if err != nil {
//	    return err
//	}
//
//	conn.WriteTo(raw, addr)
//
// # Security Considerations
//
// The cipher and digest are bespoke constructions kept for wire compatibility.
// They carry no authentication and have never been reviewed; do not rely on
// them against a capable adversary.
package protocol
