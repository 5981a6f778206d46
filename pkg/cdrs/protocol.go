package cdrs

import "fmt"

// ProtocolVersion identifies the CQL binary protocol version a frame is
// encoded with.
type ProtocolVersion uint8

// Supported protocol versions. The client defaults to V4 in STARTUP.
const (
	ProtocolV3 ProtocolVersion = 0x03
	ProtocolV4 ProtocolVersion = 0x04
	ProtocolV5 ProtocolVersion = 0x05
)

func (v ProtocolVersion) String() string {
	switch v {
	case ProtocolV3:
		return "v3"
	case ProtocolV4:
		return "v4"
	case ProtocolV5:
		return "v5"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(v))
	}
}

// directionMask is the high bit of the version byte; set on responses.
const directionMask = 0x80

// Opcode identifies the shape of a frame's body.
type Opcode uint8

const (
	OpError         Opcode = 0x00
	OpStartup       Opcode = 0x01
	OpReady         Opcode = 0x02
	OpAuthenticate  Opcode = 0x03
	OpOptions       Opcode = 0x05
	OpSupported     Opcode = 0x06
	OpQuery         Opcode = 0x07
	OpResult        Opcode = 0x08
	OpPrepare       Opcode = 0x09
	OpExecute       Opcode = 0x0A
	OpRegister      Opcode = 0x0B
	OpEvent         Opcode = 0x0C
	OpBatch         Opcode = 0x0D
	OpAuthChallenge Opcode = 0x0E
	OpAuthResponse  Opcode = 0x0F
	OpAuthSuccess   Opcode = 0x10
)

func (o Opcode) String() string {
	switch o {
	case OpError:
		return "ERROR"
	case OpStartup:
		return "STARTUP"
	case OpReady:
		return "READY"
	case OpAuthenticate:
		return "AUTHENTICATE"
	case OpOptions:
		return "OPTIONS"
	case OpSupported:
		return "SUPPORTED"
	case OpQuery:
		return "QUERY"
	case OpResult:
		return "RESULT"
	case OpPrepare:
		return "PREPARE"
	case OpExecute:
		return "EXECUTE"
	case OpRegister:
		return "REGISTER"
	case OpEvent:
		return "EVENT"
	case OpBatch:
		return "BATCH"
	case OpAuthChallenge:
		return "AUTH_CHALLENGE"
	case OpAuthResponse:
		return "AUTH_RESPONSE"
	case OpAuthSuccess:
		return "AUTH_SUCCESS"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(o))
	}
}

// isKnownOpcode reports whether o is one of the opcodes this driver
// understands; used to reject malformed headers during decode.
func isKnownOpcode(o Opcode) bool {
	switch o {
	case OpError, OpStartup, OpReady, OpAuthenticate, OpOptions, OpSupported,
		OpQuery, OpResult, OpPrepare, OpExecute, OpRegister, OpEvent, OpBatch,
		OpAuthChallenge, OpAuthResponse, OpAuthSuccess:
		return true
	default:
		return false
	}
}

// HeaderFlags is the bitset carried in byte 1 of every frame header.
type HeaderFlags uint8

const (
	FlagCompression  HeaderFlags = 0x01
	FlagTracing      HeaderFlags = 0x02
	FlagCustomPayload HeaderFlags = 0x04
	FlagWarning      HeaderFlags = 0x08
	FlagUseBeta      HeaderFlags = 0x10
)

// Has reports whether f includes bit.
func (f HeaderFlags) Has(bit HeaderFlags) bool { return f&bit != 0 }

// Add returns f with bit set.
func (f HeaderFlags) Add(bit HeaderFlags) HeaderFlags { return f | bit }

// Remove returns f with bit cleared.
func (f HeaderFlags) Remove(bit HeaderFlags) HeaderFlags { return f &^ bit }

// EventStreamID is the well-known stream id carried by server-initiated
// push frames; it is never allocated to a caller request.
const EventStreamID int16 = -1

// MaxStreamID is the highest stream id a transport may allocate, giving a
// pool of 32768 concurrent in-flight requests over [0, MaxStreamID].
const MaxStreamID int32 = 32767

// Consistency is a CQL consistency level, carried as a 2-byte short in
// query parameters.
type Consistency uint16

const (
	ConsistencyAny         Consistency = 0x0000
	ConsistencyOne         Consistency = 0x0001
	ConsistencyTwo         Consistency = 0x0002
	ConsistencyThree       Consistency = 0x0003
	ConsistencyQuorum      Consistency = 0x0004
	ConsistencyAll         Consistency = 0x0005
	ConsistencyLocalQuorum Consistency = 0x0006
	ConsistencyEachQuorum  Consistency = 0x0007
	ConsistencySerial      Consistency = 0x0008
	ConsistencyLocalSerial Consistency = 0x0009
	ConsistencyLocalOne    Consistency = 0x000A
)

// EventType names a class of server push event requestable via REGISTER.
type EventType string

const (
	EventTopologyChange EventType = "TOPOLOGY_CHANGE"
	EventStatusChange   EventType = "STATUS_CHANGE"
	EventSchemaChange   EventType = "SCHEMA_CHANGE"
)

// Default CQL version string offered in STARTUP.
const DefaultCQLVersion = "3.0.0"

// String map keys used in the STARTUP body.
const (
	startupKeyCQLVersion  = "CQL_VERSION"
	startupKeyCompression = "COMPRESSION"
)
