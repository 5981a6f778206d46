package cdrs

import (
	"github.com/google/uuid"
)

// Frame is a fully decoded request or response message: a header plus a
// parsed body, and — for responses only — the optional tracing id,
// warnings and custom payload that the wire format prepends to the body
// when the corresponding header flags are set.
type Frame struct {
	Header Header

	TracingID     *uuid.UUID
	Warnings      []string
	CustomPayload map[string][]byte

	// Body is one of the opcode-specific *Body types below, or nil for
	// opcodes with an empty body (OPTIONS, READY).
	Body any
}

// StreamID is a convenience accessor mirroring the header field.
func (f *Frame) StreamID() int16 { return f.Header.StreamID }

// Opcode is a convenience accessor mirroring the header field.
func (f *Frame) Opcode() Opcode { return f.Header.Opcode }

// AsServerError extracts the parsed ERROR body as a *ServerError, or nil if
// f is not an ERROR frame.
func (f *Frame) AsServerError() *ServerError {
	eb, ok := f.Body.(*ErrorBody)
	if !ok {
		return nil
	}
	return &ServerError{Code: eb.Code, Message: eb.Message, Detail: eb.Detail}
}

// StartupBody is the STARTUP request body: a string map that must contain
// at least CQL_VERSION, and optionally COMPRESSION.
type StartupBody struct {
	Options map[string]string
}

func newStartupBody(compression Compression) *StartupBody {
	opts := map[string]string{startupKeyCQLVersion: DefaultCQLVersion}
	if compression != CompressionNone {
		opts[startupKeyCompression] = string(compression)
	}
	return &StartupBody{Options: opts}
}

// AuthenticateBody is the AUTHENTICATE response body: the server's
// authenticator class name.
type AuthenticateBody struct {
	Authenticator string
}

// AuthResponseBody is the AUTH_RESPONSE request body.
type AuthResponseBody struct {
	Token []byte
}

// AuthChallengeBody is the AUTH_CHALLENGE response body.
type AuthChallengeBody struct {
	Token []byte
}

// AuthSuccessBody is the AUTH_SUCCESS response body.
type AuthSuccessBody struct {
	Token []byte
}

// OptionsBody/ReadyBody are empty; OPTIONS and READY frames carry a nil
// Body.

// SupportedBody is the SUPPORTED response to an OPTIONS request.
type SupportedBody struct {
	Options map[string][]string
}

// QueryBody is the QUERY request body.
type QueryBody struct {
	Query  string
	Params QueryParams
}

// PrepareBody is the PREPARE request body.
type PrepareBody struct {
	Query string
}

// ExecuteBody is the EXECUTE request body.
type ExecuteBody struct {
	ID     []byte
	Params QueryParams
}

// RegisterBody is the REGISTER request body: the event types to subscribe
// to on this connection.
type RegisterBody struct {
	Events []EventType
}

// BatchBody is the BATCH request body.
type BatchBody struct {
	Type          BatchType
	Queries       []BatchStatement
	Consistency   Consistency
	SerialConsistency Consistency
	Timestamp     *int64
	IsIdempotent  bool
}

// BatchType distinguishes LOGGED, UNLOGGED and COUNTER batches.
type BatchType uint8

const (
	BatchLogged   BatchType = 0
	BatchUnlogged BatchType = 1
	BatchCounter  BatchType = 2
)

// BatchStatement is one statement within a BATCH: either a query string or
// a prepared statement id, plus bound values.
type BatchStatement struct {
	QueryOrID []byte
	IsPrepared bool
	Values     []Value
	Names      []string
}

// ErrorBody is the ERROR response body: a code, a message, and an optional
// code-specific detail payload.
type ErrorBody struct {
	Code    ErrorCode
	Message string
	Detail  any
}

// UnavailableDetail is the code-specific payload of an UNAVAILABLE error.
type UnavailableDetail struct {
	Consistency Consistency
	Required    int32
	Alive       int32
}

// WriteTimeoutDetail is the code-specific payload of a WRITE_TIMEOUT error.
type WriteTimeoutDetail struct {
	Consistency Consistency
	Received    int32
	BlockFor    int32
	WriteType   string
}

// ReadTimeoutDetail is the code-specific payload of a READ_TIMEOUT error.
type ReadTimeoutDetail struct {
	Consistency Consistency
	Received    int32
	BlockFor    int32
	DataPresent bool
}

// UnpreparedDetail is the code-specific payload of an UNPREPARED error: the
// statement id the coordinator does not recognize.
type UnpreparedDetail struct {
	ID []byte
}

// ResultKind discriminates the five shapes a RESULT frame can take.
type ResultKind uint32

const (
	ResultVoid         ResultKind = 1
	ResultRows         ResultKind = 2
	ResultSetKeyspace  ResultKind = 3
	ResultPrepared     ResultKind = 4
	ResultSchemaChange ResultKind = 5
)

// ResultBody is the RESULT response body: a tagged union keyed by Kind.
type ResultBody struct {
	Kind ResultKind

	// Rows is populated when Kind == ResultRows.
	Rows *RowsResult
	// Keyspace is populated when Kind == ResultSetKeyspace.
	Keyspace string
	// Prepared is populated when Kind == ResultPrepared.
	Prepared *PreparedResult
	// SchemaChange is populated when Kind == ResultSchemaChange.
	SchemaChange *SchemaChangeResult
}

// ColumnSpec describes one column in a result set's metadata.
type ColumnSpec struct {
	Keyspace string
	Table    string
	Name     string
	Type     ColumnType
}

// ColumnType is left as an opaque option id plus raw type bytes: decoding
// individual CQL scalar types is explicitly out of scope (spec section 1).
type ColumnType struct {
	ID  uint16
	Raw []byte
}

// RowsResultMetadata mirrors the metadata block shared by RESULT Rows and
// RESULT Prepared frames.
type RowsResultMetadata struct {
	Columns       []ColumnSpec
	PagingState   []byte
	HasMorePages  bool
	NoMetadata    bool
	GlobalSpec    bool
}

// RowsResult is the body of a Kind==ResultRows RESULT frame.
type RowsResult struct {
	Metadata RowsResultMetadata
	Rows     [][]Value
}

// PreparedResult is the body of a Kind==ResultPrepared RESULT frame.
type PreparedResult struct {
	ID              []byte
	ResultMetadata  RowsResultMetadata
	VariablesMetadata RowsResultMetadata
}

// SchemaChangeResult is the body of a Kind==ResultSchemaChange RESULT
// frame.
type SchemaChangeResult struct {
	ChangeType string
	Target     string
	Keyspace   string
	Object     string
	Arguments  []string
}

// EventBody is the EVENT frame body: a tagged union keyed by Type.
type EventBody struct {
	Type EventType

	TopologyChange *TopologyChangeEvent
	StatusChange   *StatusChangeEvent
	SchemaChange   *SchemaChangeResult
}

// TopologyChangeEvent is the payload of a TOPOLOGY_CHANGE event.
type TopologyChangeEvent struct {
	Change string // NEW_NODE | REMOVED_NODE
	Host   HostAddress
}

// StatusChangeEvent is the payload of a STATUS_CHANGE event.
type StatusChangeEvent struct {
	Status string // UP | DOWN
	Host   HostAddress
}

// HostAddress is a parsed [inet] value: an IP and port.
type HostAddress struct {
	IP   []byte
	Port int32
}

// Value is a single bound query parameter value: its already-serialized
// bytes, or nil/not-set. Serializing individual CQL scalar types to Value
// is a user-facing concern outside this driver's scope (spec section 1);
// callers supply pre-encoded bytes.
type Value struct {
	Bytes  []byte
	NotSet bool
}
