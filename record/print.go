package record

import (
	"encoding/binary"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/luigitni/rbfdb/diag"
)

// PrintRecord decodes an external record against desc and writes it to the
// process-wide diagnostic sink in the exact format spec.md §4.3.5 requires:
// "<name>: <value>\t<name>: <value>\t..." followed by a line break.
func PrintRecord(desc RecordDescriptor, external []byte) error {
	attrCount := len(desc)
	nullSize := nullBitmapSize(attrCount)
	if len(external) < nullSize {
		return errors.New("external record shorter than its null bitmap")
	}

	bitmap := external[:nullSize]
	pos := nullSize

	var b strings.Builder
	for i, attr := range desc {
		b.WriteString(attr.Name)
		b.WriteString(": ")

		if isNull(bitmap, i) {
			b.WriteString("NULL\t")
			continue
		}

		switch attr.Type {
		case TypeInt:
			if pos+4 > len(external) {
				return errors.New("external record truncated before an int value")
			}
			v := int32(binary.LittleEndian.Uint32(external[pos : pos+4]))
			b.WriteString(strconv.FormatInt(int64(v), 10))
			pos += 4
		case TypeReal:
			if pos+4 > len(external) {
				return errors.New("external record truncated before a real value")
			}
			bits := binary.LittleEndian.Uint32(external[pos : pos+4])
			v := math.Float32frombits(bits)
			b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
			pos += 4
		case TypeVarChar:
			if pos+4 > len(external) {
				return errors.New("external record truncated before a varchar length prefix")
			}
			strLen := int(binary.LittleEndian.Uint32(external[pos : pos+4]))
			pos += 4
			if pos+strLen > len(external) {
				return errors.New("external record truncated before its varchar bytes")
			}
			b.WriteString(string(external[pos : pos+strLen]))
			pos += strLen
		default:
			return errors.Errorf("unknown attribute type %v", attr.Type)
		}

		b.WriteString("\t")
	}
	b.WriteString("\n")

	_, err := io.WriteString(diag.Sink(), b.String())
	return err
}
