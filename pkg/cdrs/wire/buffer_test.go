package wire

import (
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestWriteReadPrimitivesRoundTrip(t *testing.T) {
	w := NewWriter(64)
	w.WriteShort(0xBEEF)
	w.WriteSignedShort(-42)
	w.WriteInt(-123456)
	w.WriteLong(9223372036854775807)
	w.WriteString("hello")
	w.WriteLongString("a longer string value")
	w.WriteShortBytes([]byte{1, 2, 3})
	w.WriteBytes([]byte("bound value"))
	w.WriteBytes(nil)
	w.WriteNotSetBytes()

	r := NewReader(w.Bytes())

	short, err := r.ReadShort()
	require.NoError(t, err)
	require.Equal(t, uint16(0xBEEF), short)

	ss, err := r.ReadSignedShort()
	require.NoError(t, err)
	require.Equal(t, int16(-42), ss)

	i, err := r.ReadInt()
	require.NoError(t, err)
	require.Equal(t, int32(-123456), i)

	l, err := r.ReadLong()
	require.NoError(t, err)
	require.Equal(t, int64(9223372036854775807), l)

	s, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	ls, err := r.ReadLongString()
	require.NoError(t, err)
	require.Equal(t, "a longer string value", ls)

	sb, err := r.ReadShortBytes()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, sb)

	b, notSet, err := r.ReadBytes()
	require.NoError(t, err)
	require.False(t, notSet)
	require.Equal(t, []byte("bound value"), b)

	b, notSet, err = r.ReadBytes()
	require.NoError(t, err)
	require.False(t, notSet)
	require.Nil(t, b)

	b, notSet, err = r.ReadBytes()
	require.NoError(t, err)
	require.True(t, notSet)
	require.Nil(t, b)

	require.NoError(t, r.Complete())
}

func TestWriteReadCollections(t *testing.T) {
	w := NewWriter(64)
	w.WriteStringList([]string{"a", "b", "c"})
	w.WriteStringMap(map[string]string{"CQL_VERSION": "3.0.0"})
	w.WriteStringMultimap(map[string][]string{"COMPRESSION": {"snappy", "lz4"}})
	w.WriteBytesMap(map[string][]byte{"x-trace": {1, 2}})

	id := uuid.New()
	w.WriteUUID(id)
	require.NoError(t, w.WriteInet(net.ParseIP("127.0.0.1"), 9042))

	r := NewReader(w.Bytes())

	list, err := r.ReadStringList()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, list)

	m, err := r.ReadStringMap()
	require.NoError(t, err)
	require.Equal(t, "3.0.0", m["CQL_VERSION"])

	mm, err := r.ReadStringMultimap()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"snappy", "lz4"}, mm["COMPRESSION"])

	bm, err := r.ReadBytesMap()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, bm["x-trace"])

	gotID, err := r.ReadUUID()
	require.NoError(t, err)
	require.Equal(t, id, gotID)

	ip, port, err := r.ReadInet()
	require.NoError(t, err)
	require.True(t, ip.Equal(net.ParseIP("127.0.0.1")))
	require.Equal(t, int32(9042), port)

	require.NoError(t, r.Complete())
}

func TestReadNotEnoughData(t *testing.T) {
	r := NewReader([]byte{0x00})
	_, err := r.ReadInt()
	require.ErrorIs(t, err, ErrNotEnoughData)
}

func TestCompleteDetectsTrailingBytes(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	require.Error(t, r.Complete())
}
