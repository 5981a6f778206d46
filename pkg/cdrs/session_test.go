package cdrs

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// startFakeServer accepts exactly one connection and runs handle against it
// in a background goroutine, returning the listener address to dial.
func startFakeServer(t *testing.T, handle func(t *testing.T, conn net.Conn, codec *Codec)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handle(t, conn, NewCodec(ProtocolV4, CompressionNone))
	}()
	return ln.Addr().String()
}

func respondReady(t *testing.T, conn net.Conn, codec *Codec, streamID int16) {
	t.Helper()
	require.NoError(t, codec.EncodeFrame(conn, &Frame{
		Header: Header{IsResponse: true, StreamID: streamID, Opcode: OpReady},
	}))
}

func TestSessionUnpreparedRecovery(t *testing.T) {
	addr := startFakeServer(t, func(t *testing.T, conn net.Conn, codec *Codec) {
		startup, err := codec.DecodeFrame(conn)
		require.NoError(t, err)
		respondReady(t, conn, codec, startup.StreamID())

		prepare1, err := codec.DecodeFrame(conn)
		require.NoError(t, err)
		require.Equal(t, OpPrepare, prepare1.Opcode())
		require.NoError(t, codec.EncodeFrame(conn, &Frame{
			Header: Header{IsResponse: true, StreamID: prepare1.StreamID(), Opcode: OpResult},
			Body: &ResultBody{Kind: ResultPrepared, Prepared: &PreparedResult{
				ID: []byte("v1"),
			}},
		}))

		exec1, err := codec.DecodeFrame(conn)
		require.NoError(t, err)
		require.Equal(t, OpExecute, exec1.Opcode())
		require.NoError(t, codec.EncodeFrame(conn, &Frame{
			Header: Header{IsResponse: true, StreamID: exec1.StreamID(), Opcode: OpError},
			Body:   &ErrorBody{Code: ErrorUnprepared, Message: "unknown prepared id", Detail: &UnpreparedDetail{ID: []byte("v1")}},
		}))

		prepare2, err := codec.DecodeFrame(conn)
		require.NoError(t, err)
		require.Equal(t, OpPrepare, prepare2.Opcode())
		require.NoError(t, codec.EncodeFrame(conn, &Frame{
			Header: Header{IsResponse: true, StreamID: prepare2.StreamID(), Opcode: OpResult},
			Body: &ResultBody{Kind: ResultPrepared, Prepared: &PreparedResult{
				ID: []byte("v2"),
			}},
		}))

		exec2, err := codec.DecodeFrame(conn)
		require.NoError(t, err)
		require.Equal(t, OpExecute, exec2.Opcode())
		body := exec2.Body.(*ExecuteBody)
		require.Equal(t, []byte("v2"), body.ID, "re-execute must use the refreshed id")
		require.NoError(t, codec.EncodeFrame(conn, &Frame{
			Header: Header{IsResponse: true, StreamID: exec2.StreamID(), Opcode: OpResult},
			Body:   &ResultBody{Kind: ResultVoid},
		}))
	})

	sess, err := NewSession(WithNodes(addr))
	require.NoError(t, err)
	defer sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	pq, err := sess.Prepare(ctx, "SELECT * FROM ks.t WHERE k = ?")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), pq.ID())

	rb, err := sess.Execute(ctx, pq, QueryParams{Consistency: ConsistencyOne})
	require.NoError(t, err)
	require.Equal(t, ResultVoid, rb.Kind)
	require.Equal(t, []byte("v2"), pq.ID(), "handle must observe the refreshed id")
}

func TestSessionMultiNodeRotatesOnFailure(t *testing.T) {
	// deadAddr: nothing listening, dial should fail fast.
	deadLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	deadAddr := deadLn.Addr().String()
	require.NoError(t, deadLn.Close()) // closed immediately: connect refused

	goodAddr := startFakeServer(t, func(t *testing.T, conn net.Conn, codec *Codec) {
		startup, err := codec.DecodeFrame(conn)
		require.NoError(t, err)
		respondReady(t, conn, codec, startup.StreamID())

		q, err := codec.DecodeFrame(conn)
		require.NoError(t, err)
		require.NoError(t, codec.EncodeFrame(conn, &Frame{
			Header: Header{IsResponse: true, StreamID: q.StreamID(), Opcode: OpResult},
			Body:   &ResultBody{Kind: ResultVoid},
		}))
	})

	sess, err := NewSession(WithNodes(deadAddr, goodAddr), WithDialTimeout(500*time.Millisecond))
	require.NoError(t, err)
	defer sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rb, err := sess.Query(ctx, "SELECT * FROM ks.t", ConsistencyOne)
	require.NoError(t, err)
	require.Equal(t, ResultVoid, rb.Kind)
}
