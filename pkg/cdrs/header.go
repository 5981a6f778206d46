package cdrs

import (
	"fmt"

	"github.com/cdrsgo/cdrsgo/pkg/cdrs/wire"
)

// HeaderLength is the fixed size of every frame header: 1 byte
// version+direction, 1 byte flags, 2 bytes stream id, 1 byte opcode, 4
// bytes body length.
const HeaderLength = 9

// Header is the fixed 9-byte prefix of every frame.
type Header struct {
	Version    ProtocolVersion
	IsResponse bool
	Flags      HeaderFlags
	StreamID   int16
	Opcode     Opcode
	BodyLength int32
}

// WriteHeader serializes h into the 9-byte wire layout.
func WriteHeader(w *wire.Writer, h Header) {
	v := uint8(h.Version)
	if h.IsResponse {
		v |= directionMask
	}
	w.WriteByte(v)
	w.WriteByte(uint8(h.Flags))
	w.WriteSignedShort(h.StreamID)
	w.WriteByte(uint8(h.Opcode))
	w.WriteUint(uint32(h.BodyLength))
}

// ReadHeader parses a 9-byte header. It never panics: a reserved version
// bit pattern or unknown opcode yields a *ProtocolError rather than
// crashing the caller.
func ReadHeader(r *wire.Reader) (Header, error) {
	vb, err := r.ReadByte()
	if err != nil {
		return Header{}, newProtocolError("reading header version byte", err)
	}
	flagsByte, err := r.ReadByte()
	if err != nil {
		return Header{}, newProtocolError("reading header flags byte", err)
	}
	streamID, err := r.ReadSignedShort()
	if err != nil {
		return Header{}, newProtocolError("reading header stream id", err)
	}
	opByte, err := r.ReadByte()
	if err != nil {
		return Header{}, newProtocolError("reading header opcode", err)
	}
	bodyLen, err := r.ReadInt()
	if err != nil {
		return Header{}, newProtocolError("reading header body length", err)
	}

	h := Header{
		Version:    ProtocolVersion(vb &^ directionMask),
		IsResponse: vb&directionMask != 0,
		Flags:      HeaderFlags(flagsByte),
		StreamID:   streamID,
		Opcode:     Opcode(opByte),
		BodyLength: bodyLen,
	}
	switch h.Version {
	case ProtocolV3, ProtocolV4, ProtocolV5:
	default:
		return Header{}, newProtocolError("unsupported protocol version", fmt.Errorf("version 0x%02x", vb&^directionMask))
	}
	if !isKnownOpcode(h.Opcode) {
		return Header{}, newProtocolError("unknown opcode", fmt.Errorf("opcode 0x%02x", opByte))
	}
	if bodyLen < 0 {
		return Header{}, newProtocolError("negative body length", fmt.Errorf("length %d", bodyLen))
	}
	return h, nil
}
