package stl

import (
	"encoding/binary"
	"math"
)

// ByteReader is a cursor over an in-memory byte buffer with typed
// little-endian reads and whitespace-aware token parsing. It is constructed
// fresh for each decode call and discarded with it; it holds no state beyond
// the buffer reference and the read cursor.
type ByteReader struct {
	buf []byte
	pos int
}

// NewByteReader returns a reader positioned at the start of buf.
func NewByteReader(buf []byte) *ByteReader {
	return &ByteReader{buf: buf}
}

// Position returns the current cursor offset.
func (r *ByteReader) Position() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *ByteReader) Remaining() int { return len(r.buf) - r.pos }

// SetPosition seeks the cursor to an absolute offset within the buffer.
func (r *ByteReader) SetPosition(p int) { r.pos = p }

// Advance shifts the cursor forward by n bytes without bounds checking.
func (r *ByteReader) Advance(n int) { r.pos += n }

// DecodeBytes bulk-copies the next len(out) bytes into out, advancing the
// cursor. It reports false if fewer bytes remain than requested, leaving the
// cursor unchanged.
func (r *ByteReader) DecodeBytes(out []byte) bool {
	if r.Remaining() < len(out) {
		return false
	}
	copy(out, r.buf[r.pos:r.pos+len(out)])
	r.pos += len(out)
	return true
}

// DecodeUint16 reads a little-endian uint16, advancing the cursor.
func (r *ByteReader) DecodeUint16(out *uint16) bool {
	if r.Remaining() < 2 {
		return false
	}
	*out = binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return true
}

// DecodeUint32 reads a little-endian uint32, advancing the cursor.
func (r *ByteReader) DecodeUint32(out *uint32) bool {
	if r.Remaining() < 4 {
		return false
	}
	*out = binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return true
}

// DecodeFloat32 reads a little-endian IEEE-754 float32, advancing the
// cursor.
func (r *ByteReader) DecodeFloat32(out *float32) bool {
	var bits uint32
	if !r.DecodeUint32(&bits) {
		return false
	}
	*out = math.Float32frombits(bits)
	return true
}

// DecodeFloat32s reads len(out) consecutive little-endian float32 values
// into out. It reports false, leaving the cursor unchanged, if fewer bytes
// remain than that.
func (r *ByteReader) DecodeFloat32s(out []float32) bool {
	if r.Remaining() < 4*len(out) {
		return false
	}
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(r.buf[r.pos:]))
		r.pos += 4
	}
	return true
}

func isSTLWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// SkipWhitespace advances the cursor over any run of space, tab, CR, or LF.
func (r *ByteReader) SkipWhitespace() {
	for r.pos < len(r.buf) && isSTLWhitespace(r.buf[r.pos]) {
		r.pos++
	}
}

// ParseToken skips any leading whitespace, then collects the next maximal
// run of non-whitespace bytes as a token. It returns false only when no
// token could be collected because the buffer is exhausted.
func (r *ByteReader) ParseToken() (string, bool) {
	r.SkipWhitespace()
	start := r.pos
	for r.pos < len(r.buf) && !isSTLWhitespace(r.buf[r.pos]) {
		r.pos++
	}
	if r.pos == start {
		return "", false
	}
	return string(r.buf[start:r.pos]), true
}
