package enum

// ExecType classifies terminal execution events from the venue.
type ExecType uint8

const (
	_exec_type_beg ExecType = iota
	ExecTypeFill
	ExecTypeCancel
	ExecTypeReject
	_exec_type_end
)

func (t ExecType) IsAvailable() bool {
	return t > _exec_type_beg && t < _exec_type_end
}

func (t ExecType) String() string {
	switch t {
	case ExecTypeFill:
		return "FILL"
	case ExecTypeCancel:
		return "CANCEL"
	case ExecTypeReject:
		return "REJECT"
	default:
		return "UNKNOWN"
	}
}
