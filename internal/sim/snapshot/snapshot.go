// Package snapshot implements component C12's wire-level primitives: a
// fixed-field-order binary writer/reader pair and an enhanced checksum.
// The byte layout is grounded on the teacher engine's
// internal/ipc/protocol.go framed little-endian wire format (Header{
// Version, Type, Reserved, Length} + binary.LittleEndian field writes),
// adapted here to a packed record instead of gob-encoded payloads so the
// snapshot blob is byte-identical across platforms and directly
// checksum-able. The checksum itself uses xxhash (a direct requirement in
// this module's go.mod) rather than hand-rolling a hash, mixing in the frame number and a
// domain salt per spec §4.8's "enhanced checksum" requirement.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/cespare/xxhash/v2"

	"wolfpit/internal/sim/fixedpoint"
)

// FormatVersion is written as the first field of every snapshot blob.
// load_state must reject a blob whose version does not match.
const FormatVersion uint16 = 1

// ChecksumSalt is mixed into every checksum to reduce accidental collision
// with unrelated byte sequences that happen to hash identically.
const ChecksumSalt uint64 = 0x574f4c46504954ff

// ErrVersionMismatch is returned by NewReader when a blob's
// version does not match FormatVersion.
var ErrVersionMismatch = errors.New("snapshot: version mismatch")

// Writer serializes simulation state into a fixed field order buffer.
// Every Write* method is infallible by construction (bytes.Buffer.Write
// never errors), matching the save_state contract's "never fails on
// well-formed in-memory state" expectation.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter constructs a Writer and immediately emits the format version,
// so every blob is self-describing.
func NewWriter() *Writer {
	w := &Writer{}
	w.WriteU16(FormatVersion)
	return w
}

func (w *Writer) WriteU16(v uint16)  { var b [2]byte; binary.LittleEndian.PutUint16(b[:], v); w.buf.Write(b[:]) }
func (w *Writer) WriteU32(v uint32)  { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); w.buf.Write(b[:]) }
func (w *Writer) WriteU64(v uint64)  { var b [8]byte; binary.LittleEndian.PutUint64(b[:], v); w.buf.Write(b[:]) }
func (w *Writer) WriteI32(v int32)   { w.WriteU32(uint32(v)) }
func (w *Writer) WriteFixed(v fixedpoint.Fixed) { w.WriteI32(int32(v)) }
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}
func (w *Writer) WriteByte(v byte) { w.buf.WriteByte(v) }
func (w *Writer) WriteVec2(v fixedpoint.Vec2) {
	w.WriteFixed(v.X)
	w.WriteFixed(v.Y)
}

// Bytes returns the fully serialized blob.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Reader deserializes a blob produced by Writer, reading in the identical
// field order.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data and validates the leading version field.
func NewReader(data []byte) (*Reader, error) {
	r := &Reader{data: data}
	version := r.ReadU16()
	if version != FormatVersion {
		return nil, ErrVersionMismatch
	}
	return r, nil
}

func (r *Reader) ReadU16() uint16 {
	if r.pos+2 > len(r.data) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *Reader) ReadU32() uint32 {
	if r.pos+4 > len(r.data) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *Reader) ReadU64() uint64 {
	if r.pos+8 > len(r.data) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v
}

func (r *Reader) ReadI32() int32            { return int32(r.ReadU32()) }
func (r *Reader) ReadFixed() fixedpoint.Fixed { return fixedpoint.Fixed(r.ReadI32()) }
func (r *Reader) ReadBool() bool {
	if r.pos >= len(r.data) {
		return false
	}
	v := r.data[r.pos] != 0
	r.pos++
	return v
}
func (r *Reader) ReadByte() byte {
	if r.pos >= len(r.data) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}
func (r *Reader) ReadVec2() fixedpoint.Vec2 {
	return fixedpoint.Vec2{X: r.ReadFixed(), Y: r.ReadFixed()}
}

// Remaining reports whether unread bytes remain, used by tests asserting
// an encoder/decoder pair stays in lockstep.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Checksum computes the enhanced 64-bit digest: an xxhash sum over the
// blob, XORed with the frame number and ChecksumSalt mixed through a
// splitmix-style avalanche so that two frames with identical bodies but
// different frame numbers never collide.
func Checksum(data []byte, frame uint32) uint64 {
	base := xxhash.Sum64(data)
	mix := base ^ (uint64(frame) * 0x9E3779B97F4A7C15) ^ ChecksumSalt
	mix ^= mix >> 33
	mix *= 0xFF51AFD7ED558CCD
	mix ^= mix >> 33
	return mix
}
