// Package wire implements the CQL binary protocol's primitive serialization
// types: the big-endian integers, length-prefixed strings and byte strings,
// string maps/multimaps, UUIDs and inet addresses that every frame body is
// built from. Nothing in this package knows about opcodes or frames; it is
// the alphabet the rest of the driver writes sentences in.
package wire

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/uuid"
)

// Null and NotSet are the two negative length sentinels a [bytes] value can
// carry instead of an actual byte count.
const (
	NullLength   int32 = -1
	NotSetLength int32 = -2
)

// Writer accumulates an encoded request or response body. The zero value is
// ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with buf pre-allocated to the given capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

// WriteRaw appends raw bytes verbatim.
func (w *Writer) WriteRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteShort appends an unsigned 16-bit big-endian integer ([short]).
func (w *Writer) WriteShort(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteSignedShort appends a signed 16-bit big-endian integer, used for
// stream ids.
func (w *Writer) WriteSignedShort(v int16) {
	w.WriteShort(uint16(v))
}

// WriteInt appends a signed 32-bit big-endian integer ([int]).
func (w *Writer) WriteInt(v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteUint appends an unsigned 32-bit big-endian integer (used for header
// body length).
func (w *Writer) WriteUint(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteLong appends a signed 64-bit big-endian integer ([long]).
func (w *Writer) WriteLong(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteString appends a [string]: a [short]-prefixed UTF-8 byte string.
func (w *Writer) WriteString(s string) {
	w.WriteShort(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteLongString appends a [long string]: a 4-byte-prefixed UTF-8 byte
// string.
func (w *Writer) WriteLongString(s string) {
	w.WriteInt(int32(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteShortBytes appends a [short bytes]: a [short]-length-prefixed byte
// string, used for prepared statement ids.
func (w *Writer) WriteShortBytes(b []byte) {
	w.WriteShort(uint16(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteBytes appends a [bytes]: a 4-byte signed-length-prefixed byte string,
// where -1 denotes null and -2 denotes not-set.
func (w *Writer) WriteBytes(b []byte) {
	if b == nil {
		w.WriteInt(NullLength)
		return
	}
	w.WriteInt(int32(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteNotSetBytes appends the not-set [bytes] marker with no payload.
func (w *Writer) WriteNotSetBytes() {
	w.WriteInt(NotSetLength)
}

// WriteStringList appends a [string list]: a 2-byte count followed by that
// many [string]s.
func (w *Writer) WriteStringList(list []string) {
	w.WriteShort(uint16(len(list)))
	for _, s := range list {
		w.WriteString(s)
	}
}

// WriteStringMap appends a [string map]: a 2-byte count then that many
// [string][string] pairs.
func (w *Writer) WriteStringMap(m map[string]string) {
	w.WriteShort(uint16(len(m)))
	for k, v := range m {
		w.WriteString(k)
		w.WriteString(v)
	}
}

// WriteStringMultimap appends a [string multimap]: a 2-byte count then that
// many [string][string list] pairs.
func (w *Writer) WriteStringMultimap(m map[string][]string) {
	w.WriteShort(uint16(len(m)))
	for k, v := range m {
		w.WriteString(k)
		w.WriteStringList(v)
	}
}

// WriteBytesMap appends a [bytes map]: a 2-byte count then that many
// [string][bytes] pairs, used for the custom payload.
func (w *Writer) WriteBytesMap(m map[string][]byte) {
	w.WriteShort(uint16(len(m)))
	for k, v := range m {
		w.WriteString(k)
		w.WriteBytes(v)
	}
}

// WriteUUID appends a 16-byte [uuid].
func (w *Writer) WriteUUID(id uuid.UUID) {
	w.buf = append(w.buf, id[:]...)
}

// WriteInet appends an [inet]: a 1-byte length (4 or 16), that many address
// bytes, then a 4-byte port.
func (w *Writer) WriteInet(addr net.IP, port int32) error {
	v4 := addr.To4()
	switch {
	case v4 != nil:
		w.WriteByte(4)
		w.buf = append(w.buf, v4...)
	case len(addr) == net.IPv6len:
		w.WriteByte(16)
		w.buf = append(w.buf, addr...)
	default:
		return fmt.Errorf("wire: invalid inet address %v", addr)
	}
	w.WriteInt(port)
	return nil
}

// WriteConsistency appends a 2-byte consistency level.
func (w *Writer) WriteConsistency(c uint16) {
	w.WriteShort(c)
}
