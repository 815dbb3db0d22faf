// Package wire implements the rollback-netcode peer message framing named in
// spec §6 ("Wire" row, component C6). It generalizes the teacher engine's
// internal/ipc/protocol.go fixed Header{Version,Type,Reserved,Length} framing
// — used there over a Unix socket between the game server and the streamer
// process — to a peer-to-peer transport over WebSocket. Unlike the teacher,
// payloads here are never gob-encoded Go values: every message body is
// either a deterministic snapshot byte blob (component C12) or a small
// fixed-layout struct, so bodies are packed with encoding/binary rather than
// gob, keeping the wire format replay-stable across peer builds.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ProtocolVersion guards wire compatibility between peers; a mismatch is
// rejected rather than tolerated, since silently accepting a foreign framing
// would desync the rollback session.
const ProtocolVersion uint16 = 1

// Message types exchanged between peers in a rollback session.
const (
	TypeInput          byte = 0x01 // per-frame input.Record for one player
	TypeSnapshot       byte = 0x02 // component C12 snapshot blob
	TypeChecksumReport byte = 0x03 // frame + checksum, for desync detection
	TypePhaseSync      byte = 0x04 // authoritative phase push
	TypePhaseVote       byte = 0x05 // reconciliation ballot (component C13)
	TypePing           byte = 0x06
	TypePong           byte = 0x07
)

// HeaderSize is the encoded size of Header in bytes.
const HeaderSize = 8

// MaxMessageSize bounds a single framed message, protecting the reader loop
// against a malformed or hostile peer claiming an unbounded body length.
const MaxMessageSize = 1 << 20 // 1MB

// Header frames every message on the wire: version, type, a reserved byte
// for future flags, and the body length, all little-endian.
type Header struct {
	Version  uint16
	Type     byte
	Reserved byte
	Length   uint32
}

// WriteMessage frames and writes typ/body to w. body may be nil for
// zero-payload messages (ping/pong).
func WriteMessage(w io.Writer, typ byte, body []byte) error {
	if len(body) > MaxMessageSize {
		return fmt.Errorf("wire: message too large: %d > %d", len(body), MaxMessageSize)
	}
	h := Header{Version: ProtocolVersion, Type: typ, Length: uint32(len(body))}
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.Version)
	buf[2] = h.Type
	buf[3] = h.Reserved
	binary.LittleEndian.PutUint32(buf[4:8], h.Length)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("wire: write header: %w", err)
	}
	if len(body) > 0 {
		if _, err := w.Write(body); err != nil {
			return fmt.Errorf("wire: write body: %w", err)
		}
	}
	return nil
}

// ReadMessage reads one framed message from r, rejecting a protocol version
// mismatch or an over-limit body rather than attempting to recover from it.
func ReadMessage(r io.Reader) (byte, []byte, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, nil, fmt.Errorf("wire: read header: %w", err)
	}
	h := Header{
		Version: binary.LittleEndian.Uint16(buf[0:2]),
		Type:    buf[2],
		Length:  binary.LittleEndian.Uint32(buf[4:8]),
	}
	if h.Version != ProtocolVersion {
		return 0, nil, fmt.Errorf("wire: version mismatch: got %d, want %d", h.Version, ProtocolVersion)
	}
	if h.Length > MaxMessageSize {
		return 0, nil, fmt.Errorf("wire: message too large: %d > %d", h.Length, MaxMessageSize)
	}
	var body []byte
	if h.Length > 0 {
		body = make([]byte, h.Length)
		if _, err := io.ReadFull(r, body); err != nil {
			return 0, nil, fmt.Errorf("wire: read body: %w", err)
		}
	}
	return h.Type, body, nil
}

// InputPayload is the fixed-layout body of a TypeInput message: one
// player's input.Record for a single frame (spec §4.2's 8 logical inputs,
// packed as a bitfield plus the two analog axes).
type InputPayload struct {
	PlayerID uint32
	Frame    uint32
	Buttons  uint16 // bit flags: LeftHand, RightHand, Special, Roll, Jump, LightAttack, HeavyAttack, Block
	MoveX    int32  // fixedpoint.Fixed raw value
	MoveY    int32
}

const (
	BitLeftHand uint16 = 1 << iota
	BitRightHand
	BitSpecial
	BitRoll
	BitJump
	BitLightAttack
	BitHeavyAttack
	BitBlock
)

// EncodeInput packs an InputPayload into wire bytes.
func EncodeInput(p InputPayload) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, p)
	return buf.Bytes()
}

// DecodeInput unpacks a TypeInput body.
func DecodeInput(body []byte) (InputPayload, error) {
	var p InputPayload
	if err := binary.Read(bytes.NewReader(body), binary.LittleEndian, &p); err != nil {
		return p, fmt.Errorf("wire: decode input: %w", err)
	}
	return p, nil
}

// ChecksumReport is the fixed-layout body of a TypeChecksumReport message.
type ChecksumReport struct {
	Frame    uint32
	Checksum uint64
}

// EncodeChecksumReport packs a ChecksumReport into wire bytes.
func EncodeChecksumReport(r ChecksumReport) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, r)
	return buf.Bytes()
}

// DecodeChecksumReport unpacks a TypeChecksumReport body.
func DecodeChecksumReport(body []byte) (ChecksumReport, error) {
	var r ChecksumReport
	if err := binary.Read(bytes.NewReader(body), binary.LittleEndian, &r); err != nil {
		return r, fmt.Errorf("wire: decode checksum report: %w", err)
	}
	return r, nil
}
