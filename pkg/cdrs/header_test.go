package cdrs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cdrsgo/cdrsgo/pkg/cdrs/wire"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Version:    ProtocolV4,
		IsResponse: true,
		Flags:      FlagCompression | FlagTracing,
		StreamID:   1234,
		Opcode:     OpResult,
		BodyLength: 99,
	}

	w := wire.NewWriter(HeaderLength)
	WriteHeader(w, h)
	require.Equal(t, HeaderLength, w.Len())

	r := wire.NewReader(w.Bytes())
	got, err := ReadHeader(r)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestHeaderRejectsUnsupportedVersion(t *testing.T) {
	w := wire.NewWriter(HeaderLength)
	WriteHeader(w, Header{Version: 0x7F, Opcode: OpQuery})
	_, err := ReadHeader(wire.NewReader(w.Bytes()))
	require.Error(t, err)
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
}

func TestHeaderRejectsUnknownOpcode(t *testing.T) {
	w := wire.NewWriter(HeaderLength)
	WriteHeader(w, Header{Version: ProtocolV4, Opcode: 0x7F})
	_, err := ReadHeader(wire.NewReader(w.Bytes()))
	require.Error(t, err)
}

func TestHeaderDirectionBit(t *testing.T) {
	w := wire.NewWriter(HeaderLength)
	WriteHeader(w, Header{Version: ProtocolV4, IsResponse: false, Opcode: OpStartup})
	got, err := ReadHeader(wire.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.False(t, got.IsResponse)
	require.Equal(t, ProtocolV4, got.Version)
}
