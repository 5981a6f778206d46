package cdrs

// Query parameter flag bits, shared by QUERY and EXECUTE bodies. Field
// order on the wire is fixed by this bit order (spec section 4.1).
const (
	qpFlagValues          uint8 = 0x01
	qpFlagSkipMetadata    uint8 = 0x02
	qpFlagPageSize        uint8 = 0x04
	qpFlagPagingState     uint8 = 0x08
	qpFlagSerialConsistency uint8 = 0x10
	qpFlagDefaultTimestamp  uint8 = 0x20
	qpFlagNamesForValues  uint8 = 0x40
)

// QueryParams are the parameters shared by QUERY and EXECUTE requests:
// consistency, flags, and the flag-gated optional fields.
type QueryParams struct {
	Consistency Consistency

	Values     []Value
	ValueNames []string // parallel to Values when named values are used

	SkipMetadata bool

	PageSize    int32 // 0 means "no paging requested"
	PagingState []byte

	SerialConsistency Consistency // sent only when HasSerialConsistency is true
	HasSerialConsistency bool

	DefaultTimestamp     int64
	HasDefaultTimestamp  bool

	IsIdempotent bool
}

// flags computes the wire flags byte for p, in the fixed bit order spec'd.
func (p QueryParams) flags() uint8 {
	var f uint8
	if len(p.Values) > 0 {
		f |= qpFlagValues
		if len(p.ValueNames) == len(p.Values) && len(p.ValueNames) > 0 {
			f |= qpFlagNamesForValues
		}
	}
	if p.SkipMetadata {
		f |= qpFlagSkipMetadata
	}
	if p.PageSize > 0 {
		f |= qpFlagPageSize
	}
	if p.PagingState != nil {
		f |= qpFlagPagingState
	}
	if p.HasSerialConsistency {
		f |= qpFlagSerialConsistency
	}
	if p.HasDefaultTimestamp {
		f |= qpFlagDefaultTimestamp
	}
	return f
}
