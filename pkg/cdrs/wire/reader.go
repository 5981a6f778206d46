package wire

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/uuid"
)

// ErrNotEnoughData is returned whenever a Reader is asked for more bytes
// than remain in its buffer. It always indicates a malformed or truncated
// frame body, never a recoverable condition.
var ErrNotEnoughData = fmt.Errorf("wire: not enough data to decode value")

// Reader parses a decoded, decompressed frame body. Src is the remaining
// unread suffix of the body; every Read* method advances past what it
// consumed.
type Reader struct {
	Src []byte
}

// NewReader wraps a body for reading.
func NewReader(body []byte) *Reader {
	return &Reader{Src: body}
}

// Remaining reports how many bytes are left unread.
func (r *Reader) Remaining() int { return len(r.Src) }

func (r *Reader) need(n int) error {
	if len(r.Src) < n {
		return ErrNotEnoughData
	}
	return nil
}

// ReadRaw consumes and returns exactly n raw bytes.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.Src[:n]
	r.Src = r.Src[n:]
	return b, nil
}

// ReadByte consumes a single byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.ReadRaw(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadShort consumes an unsigned 16-bit big-endian integer.
func (r *Reader) ReadShort() (uint16, error) {
	b, err := r.ReadRaw(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadSignedShort consumes a signed 16-bit big-endian integer, used for
// stream ids.
func (r *Reader) ReadSignedShort() (int16, error) {
	v, err := r.ReadShort()
	return int16(v), err
}

// ReadInt consumes a signed 32-bit big-endian integer.
func (r *Reader) ReadInt() (int32, error) {
	b, err := r.ReadRaw(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// ReadUint consumes an unsigned 32-bit big-endian integer, used for the
// rows metadata flags.
func (r *Reader) ReadUint() (uint32, error) {
	b, err := r.ReadRaw(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadLong consumes a signed 64-bit big-endian integer.
func (r *Reader) ReadLong() (int64, error) {
	b, err := r.ReadRaw(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// ReadString consumes a [string]: a [short]-prefixed UTF-8 byte string.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadShort()
	if err != nil {
		return "", err
	}
	b, err := r.ReadRaw(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadLongString consumes a [long string]: a 4-byte-prefixed UTF-8 byte
// string.
func (r *Reader) ReadLongString() (string, error) {
	n, err := r.ReadInt()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("wire: negative long string length %d", n)
	}
	b, err := r.ReadRaw(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadShortBytes consumes a [short bytes]: a [short]-length-prefixed byte
// string.
func (r *Reader) ReadShortBytes() ([]byte, error) {
	n, err := r.ReadShort()
	if err != nil {
		return nil, err
	}
	return r.ReadRaw(int(n))
}

// ReadBytes consumes a [bytes]: a 4-byte signed-length-prefixed byte string.
// A length of -1 (null) yields (nil, false, nil); -2 (not set) yields
// (nil, true, nil).
func (r *Reader) ReadBytes() (b []byte, notSet bool, err error) {
	n, err := r.ReadInt()
	if err != nil {
		return nil, false, err
	}
	switch {
	case n == NullLength:
		return nil, false, nil
	case n == NotSetLength:
		return nil, true, nil
	case n < 0:
		return nil, false, fmt.Errorf("wire: invalid bytes length %d", n)
	}
	b, err = r.ReadRaw(int(n))
	return b, false, err
}

// ReadStringList consumes a [string list]: a 2-byte count followed by that
// many [string]s.
func (r *Reader) ReadStringList() ([]string, error) {
	n, err := r.ReadShort()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := uint16(0); i < n; i++ {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ReadStringMap consumes a [string map]: a 2-byte count then that many
// [string][string] pairs.
func (r *Reader) ReadStringMap() (map[string]string, error) {
	n, err := r.ReadShort()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, n)
	for i := uint16(0); i < n; i++ {
		k, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// ReadStringMultimap consumes a [string multimap]: a 2-byte count then that
// many [string][string list] pairs.
func (r *Reader) ReadStringMultimap() (map[string][]string, error) {
	n, err := r.ReadShort()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, n)
	for i := uint16(0); i < n; i++ {
		k, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := r.ReadStringList()
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// ReadBytesMap consumes a [bytes map]: a 2-byte count then that many
// [string][bytes] pairs, used for the custom payload.
func (r *Reader) ReadBytesMap() (map[string][]byte, error) {
	n, err := r.ReadShort()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, n)
	for i := uint16(0); i < n; i++ {
		k, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		v, _, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// ReadUUID consumes a 16-byte [uuid].
func (r *Reader) ReadUUID() (uuid.UUID, error) {
	b, err := r.ReadRaw(16)
	if err != nil {
		return uuid.UUID{}, err
	}
	return uuid.FromBytes(b)
}

// ReadInet consumes an [inet]: a 1-byte length (4 or 16), that many address
// bytes, then a 4-byte port.
func (r *Reader) ReadInet() (net.IP, int32, error) {
	n, err := r.ReadByte()
	if err != nil {
		return nil, 0, err
	}
	if n != 4 && n != 16 {
		return nil, 0, fmt.Errorf("wire: invalid inet address length %d", n)
	}
	addr, err := r.ReadRaw(int(n))
	if err != nil {
		return nil, 0, err
	}
	ip := make(net.IP, len(addr))
	copy(ip, addr)
	port, err := r.ReadInt()
	if err != nil {
		return nil, 0, err
	}
	return ip, port, nil
}

// ReadConsistency consumes a 2-byte consistency level.
func (r *Reader) ReadConsistency() (uint16, error) {
	return r.ReadShort()
}

// Complete returns an error if bytes remain unread; callers use it to
// detect trailing garbage after parsing a fixed-shape body.
func (r *Reader) Complete() error {
	if len(r.Src) != 0 {
		return fmt.Errorf("wire: %d trailing bytes after decode", len(r.Src))
	}
	return nil
}
