package cdrs

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTransportHandshakeAndQueryRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	codec := NewCodec(ProtocolV4, CompressionNone)
	tr := newTransport(context.Background(), "pipe", client, codec, 8, NopLogger)
	defer tr.close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		serverCodec := NewCodec(ProtocolV4, CompressionNone)

		startup, err := serverCodec.DecodeFrame(server)
		require.NoError(t, err)
		require.Equal(t, OpStartup, startup.Opcode())
		require.NoError(t, serverCodec.EncodeFrame(server, &Frame{
			Header: Header{IsResponse: true, StreamID: startup.StreamID(), Opcode: OpReady},
		}))

		query, err := serverCodec.DecodeFrame(server)
		require.NoError(t, err)
		require.Equal(t, OpQuery, query.Opcode())
		body := query.Body.(*QueryBody)
		require.Equal(t, "SELECT now() FROM system.local", body.Query)

		require.NoError(t, serverCodec.EncodeFrame(server, &Frame{
			Header: Header{IsResponse: true, StreamID: query.StreamID(), Opcode: OpResult},
			Body:   &ResultBody{Kind: ResultVoid},
		}))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, handshake(ctx, tr, CompressionNone, nil))

	resp, err := tr.send(ctx, &Frame{
		Header: Header{Opcode: OpQuery},
		Body:   &QueryBody{Query: "SELECT now() FROM system.local", Params: QueryParams{Consistency: ConsistencyOne}},
	})
	require.NoError(t, err)
	rb, ok := resp.Body.(*ResultBody)
	require.True(t, ok)
	require.Equal(t, ResultVoid, rb.Kind)

	<-serverDone
}

func TestTransportDiesOnReadError(t *testing.T) {
	client, server := net.Pipe()
	codec := NewCodec(ProtocolV4, CompressionNone)
	tr := newTransport(context.Background(), "pipe", client, codec, 8, NopLogger)
	defer tr.close()

	respCh := make(chan *Frame, 1)
	id, err := tr.pool.acquire(respCh)
	require.NoError(t, err)
	_ = id

	server.Close() // forces a read error in tr's readLoop

	select {
	case <-respCh:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was never fulfilled after transport death")
	}
	require.True(t, tr.isBroken())
}

func TestTransportRoutesEventFramesSeparately(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	codec := NewCodec(ProtocolV4, CompressionNone)
	tr := newTransport(context.Background(), "pipe", client, codec, 8, NopLogger)
	defer tr.close()

	go func() {
		serverCodec := NewCodec(ProtocolV4, CompressionNone)
		_ = serverCodec.EncodeFrame(server, &Frame{
			Header: Header{IsResponse: true, StreamID: EventStreamID, Opcode: OpEvent},
			Body:   &EventBody{Type: EventStatusChange, StatusChange: &StatusChangeEvent{Status: "UP"}},
		})
	}()

	select {
	case f := <-tr.events:
		eb := f.Body.(*EventBody)
		require.Equal(t, "UP", eb.StatusChange.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("event frame was never routed to the event channel")
	}
}
