// Package record implements the record-based file manager (RBFM) described
// in spec.md §4.3: it transcodes the caller's external record bytes into
// the internal slotted-page format, places them into pages obtained through
// a pagefile.FileHandle, and decodes them back on read.
package record

// AttrType is one of the three storage types spec.md §3.7 allows in a
// record descriptor.
type AttrType int

const (
	TypeInt AttrType = iota
	TypeReal
	TypeVarChar
)

func (t AttrType) String() string {
	switch t {
	case TypeInt:
		return "Int"
	case TypeReal:
		return "Real"
	case TypeVarChar:
		return "VarChar"
	default:
		return "Unknown"
	}
}

// AttributeDescriptor describes one attribute of a record: its name, its
// storage type, and its maximum length. MaxLength is authoritative (always
// 4) for Int and Real; for VarChar it is the declared upper bound used only
// by callers, not enforced by this package (spec.md §3.7).
type AttributeDescriptor struct {
	Name      string
	Type      AttrType
	MaxLength int
}

// RecordDescriptor is the ordered sequence of attribute descriptors that
// gives external and internal record bytes their meaning. The number of
// attributes is always len(RecordDescriptor); it is never stored
// separately in the external format (spec.md §3.5).
type RecordDescriptor []AttributeDescriptor
