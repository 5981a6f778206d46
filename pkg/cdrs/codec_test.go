package cdrs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cdrsgo/cdrsgo/pkg/cdrs/wire"
)

func TestEncodeStartupNeverCompressed(t *testing.T) {
	c := NewCodec(ProtocolV4, CompressionSnappy)
	var buf bytes.Buffer
	f := &Frame{
		Header: Header{Opcode: OpStartup, StreamID: 1},
		Body:   newStartupBody(CompressionSnappy),
	}
	require.NoError(t, c.EncodeFrame(&buf, f))

	hdr, err := ReadHeader(wire.NewReader(buf.Bytes()[:HeaderLength]))
	require.NoError(t, err)
	require.False(t, hdr.Flags.Has(FlagCompression), "STARTUP body must never be compressed")
}

func TestEncodeQueryIsCompressedWhenNegotiated(t *testing.T) {
	c := NewCodec(ProtocolV4, CompressionLZ4)
	var buf bytes.Buffer
	f := &Frame{
		Header: Header{Opcode: OpQuery, StreamID: 7},
		Body:   &QueryBody{Query: "SELECT * FROM t", Params: QueryParams{Consistency: ConsistencyOne}},
	}
	require.NoError(t, c.EncodeFrame(&buf, f))

	hdr, err := ReadHeader(wire.NewReader(buf.Bytes()[:HeaderLength]))
	require.NoError(t, err)
	require.True(t, hdr.Flags.Has(FlagCompression))
}

func TestDecodeErrorBodyUnavailable(t *testing.T) {
	body := wire.NewWriter(32)
	body.WriteInt(int32(ErrorUnavailable))
	body.WriteString("not enough replicas")
	body.WriteConsistency(uint16(ConsistencyQuorum))
	body.WriteInt(3)
	body.WriteInt(1)

	frame := rawResponseFrame(t, OpError, body.Bytes())
	c := NewCodec(ProtocolV4, CompressionNone)
	f, err := c.DecodeFrame(bytes.NewReader(frame))
	require.NoError(t, err)

	se := f.AsServerError()
	require.NotNil(t, se)
	require.Equal(t, ErrorUnavailable, se.Code)
	detail, ok := se.Detail.(*UnavailableDetail)
	require.True(t, ok)
	require.Equal(t, int32(3), detail.Required)
	require.Equal(t, int32(1), detail.Alive)
}

func TestDecodeResultRowsRoundTrip(t *testing.T) {
	body := wire.NewWriter(64)
	body.WriteInt(int32(ResultRows))
	// metadata: flags=0 (has metadata, no paging, not global), 1 column
	body.WriteUint(0)
	body.WriteInt(1)
	body.WriteString("ks")
	body.WriteString("tbl")
	body.WriteString("col1")
	body.WriteShort(0x0009) // Int type, no nested option
	// 1 row, 1 value
	body.WriteInt(1)
	body.WriteBytes([]byte{0, 0, 0, 42})

	frame := rawResponseFrame(t, OpResult, body.Bytes())
	c := NewCodec(ProtocolV4, CompressionNone)
	f, err := c.DecodeFrame(bytes.NewReader(frame))
	require.NoError(t, err)

	rb, ok := f.Body.(*ResultBody)
	require.True(t, ok)
	require.Equal(t, ResultRows, rb.Kind)
	require.Len(t, rb.Rows.Metadata.Columns, 1)
	require.Equal(t, "col1", rb.Rows.Metadata.Columns[0].Name)
	require.Len(t, rb.Rows.Rows, 1)
	require.Equal(t, []byte{0, 0, 0, 42}, rb.Rows.Rows[0][0].Bytes)
}

func TestDecodeCompressedResultBody(t *testing.T) {
	body := wire.NewWriter(64)
	body.WriteInt(int32(ResultVoid))

	comp, err := newCompressor(CompressionSnappy)
	require.NoError(t, err)
	compressed := comp.compress(body.Bytes())

	hw := wire.NewWriter(HeaderLength + len(compressed))
	WriteHeader(hw, Header{
		Version:    ProtocolV4,
		IsResponse: true,
		Flags:      FlagCompression,
		StreamID:   5,
		Opcode:     OpResult,
		BodyLength: int32(len(compressed)),
	})
	hw.WriteRaw(compressed)

	c := NewCodec(ProtocolV4, CompressionSnappy)
	f, err := c.DecodeFrame(bytes.NewReader(hw.Bytes()))
	require.NoError(t, err)
	rb, ok := f.Body.(*ResultBody)
	require.True(t, ok)
	require.Equal(t, ResultVoid, rb.Kind)
}

func rawResponseFrame(t *testing.T, op Opcode, body []byte) []byte {
	t.Helper()
	w := wire.NewWriter(HeaderLength + len(body))
	WriteHeader(w, Header{
		Version:    ProtocolV4,
		IsResponse: true,
		StreamID:   3,
		Opcode:     op,
		BodyLength: int32(len(body)),
	})
	w.WriteRaw(body)
	return w.Bytes()
}
