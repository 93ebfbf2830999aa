package record

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/luigitni/rbfdb/pagefile"
	"github.com/luigitni/rbfdb/rbferrors"
)

// MaxInternalRecordSize is the maximum size, in bytes, of a transcoded
// internal record: the page size minus the page footer (6 bytes) and one
// slot-directory entry (4 bytes) (spec.md §3.4).
const MaxInternalRecordSize = pagefile.PageSize - 10

func nullBitmapSize(attrCount int) int {
	return (attrCount + 7) / 8
}

// isNull reports whether attribute i is marked null in bitmap, using
// spec.md §3.5's MSB-first-within-each-byte bit order: attribute i is null
// iff bit (i mod 8) counted from the high bit of byte i/8 is 1.
func isNull(bitmap []byte, i int) bool {
	b := bitmap[i/8]
	mask := byte(1) << (7 - uint(i%8))
	return b&mask != 0
}

func setNull(bitmap []byte, i int) {
	bitmap[i/8] |= byte(1) << (7 - uint(i%8))
}

// nonNullIndexes walks the null bitmap and returns the descriptor indexes
// of every attribute that is not null, in ascending order.
func nonNullIndexes(bitmap []byte, attrCount int) []int {
	indexes := make([]int, 0, attrCount)
	for i := 0; i < attrCount; i++ {
		if !isNull(bitmap, i) {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// EncodeRecord transcodes an external record (spec.md §3.5) into the
// internal slotted-record format (spec.md §3.4), per the algorithm in
// spec.md §4.3.1. It fails with ErrOversize if the transcoded record would
// exceed MaxInternalRecordSize.
func EncodeRecord(desc RecordDescriptor, external []byte) ([]byte, error) {
	attrCount := len(desc)
	nullSize := nullBitmapSize(attrCount)

	if len(external) < nullSize {
		return nil, errors.New("external record shorter than its null bitmap")
	}

	bitmap := external[:nullSize]
	indexes := nonNullIndexes(bitmap, attrCount)

	base := 2 + nullSize + 2*len(indexes)

	offsets := make([]uint16, len(indexes))
	valuesLen := 0
	extPos := nullSize

	for i, idx := range indexes {
		offsets[i] = uint16(base + valuesLen)

		attr := desc[idx]
		switch attr.Type {
		case TypeInt, TypeReal:
			valuesLen += 4
			extPos += 4
		case TypeVarChar:
			if extPos+4 > len(external) {
				return nil, errors.New("external record truncated before a varchar length prefix")
			}
			strLen := int(binary.LittleEndian.Uint32(external[extPos : extPos+4]))
			valuesLen += 4 + strLen
			extPos += 4 + strLen
		default:
			return nil, errors.Errorf("unknown attribute type %v", attr.Type)
		}
	}

	total := base + valuesLen
	if total > MaxInternalRecordSize {
		return nil, errors.Wrapf(rbferrors.ErrOversize, "record size %d exceeds max %d", total, MaxInternalRecordSize)
	}

	if len(external) < nullSize+valuesLen {
		return nil, errors.New("external record shorter than its declared values")
	}

	internal := make([]byte, total)
	binary.LittleEndian.PutUint16(internal[0:2], uint16(attrCount))
	copy(internal[2:2+nullSize], bitmap)

	offTableStart := 2 + nullSize
	for i, off := range offsets {
		binary.LittleEndian.PutUint16(internal[offTableStart+2*i:offTableStart+2*i+2], off)
	}

	copy(internal[base:], external[nullSize:nullSize+valuesLen])

	return internal, nil
}

// DecodeRecord transcodes an internal slotted record back into the
// external format described in spec.md §3.5, per spec.md §4.3.4 step 4-5.
func DecodeRecord(desc RecordDescriptor, internal []byte) ([]byte, error) {
	if len(internal) < 2 {
		return nil, errors.New("internal record too short to hold an attribute count")
	}

	attrCount := int(binary.LittleEndian.Uint16(internal[0:2]))
	if attrCount != len(desc) {
		return nil, errors.Errorf("internal record has %d attributes, descriptor has %d", attrCount, len(desc))
	}

	nullSize := nullBitmapSize(attrCount)
	if len(internal) < 2+nullSize {
		return nil, errors.New("internal record too short to hold its null bitmap")
	}

	bitmap := internal[2 : 2+nullSize]
	indexes := nonNullIndexes(bitmap, attrCount)

	base := 2 + nullSize + 2*len(indexes)

	valuesLen := 0
	for _, idx := range indexes {
		attr := desc[idx]
		switch attr.Type {
		case TypeInt, TypeReal:
			valuesLen += 4
		case TypeVarChar:
			pos := base + valuesLen
			if pos+4 > len(internal) {
				return nil, errors.New("internal record truncated before a varchar length prefix")
			}
			strLen := int(binary.LittleEndian.Uint32(internal[pos : pos+4]))
			valuesLen += 4 + strLen
		default:
			return nil, errors.Errorf("unknown attribute type %v", attr.Type)
		}
	}

	if base+valuesLen > len(internal) {
		return nil, errors.New("internal record truncated before its declared values")
	}

	external := make([]byte, nullSize+valuesLen)
	copy(external, bitmap)
	copy(external[nullSize:], internal[base:base+valuesLen])

	return external, nil
}
