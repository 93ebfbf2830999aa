package record_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luigitni/rbfdb/rbferrors"
	"github.com/luigitni/rbfdb/record"
)

func descAgeHeight() record.RecordDescriptor {
	return record.RecordDescriptor{
		{Name: "age", Type: record.TypeInt, MaxLength: 4},
		{Name: "height", Type: record.TypeReal, MaxLength: 4},
	}
}

func descPersonWithName() record.RecordDescriptor {
	return record.RecordDescriptor{
		{Name: "id", Type: record.TypeInt, MaxLength: 4},
		{Name: "name", Type: record.TypeVarChar, MaxLength: 255},
		{Name: "score", Type: record.TypeReal, MaxLength: 4},
	}
}

func putInt(buf []byte, v int32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return append(buf, b[:]...)
}

func putReal(buf []byte, v float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return append(buf, b[:]...)
}

func putVarChar(buf []byte, s string) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(len(s)))
	buf = append(buf, b[:]...)
	return append(buf, []byte(s)...)
}

func TestEncodeDecodeRoundTripNoNulls(t *testing.T) {
	desc := descAgeHeight()

	external := []byte{0x00} // 1 byte null bitmap, no nulls
	external = putInt(external, 30)
	external = putReal(external, 5.5)

	internal, err := record.EncodeRecord(desc, external)
	require.NoError(t, err)

	decoded, err := record.DecodeRecord(desc, internal)
	require.NoError(t, err)
	require.Equal(t, external, decoded)
}

func TestEncodeDecodeRoundTripWithNullAndVarChar(t *testing.T) {
	desc := descPersonWithName()

	// bit order MSB-first: id=bit0 (not null), name=bit1 (null), score=bit2 (not null)
	external := []byte{0b0100_0000}
	external = putInt(external, 42)
	// name is null: no bytes in the external values stream for it
	external = putReal(external, 99.0)

	internal, err := record.EncodeRecord(desc, external)
	require.NoError(t, err)

	decoded, err := record.DecodeRecord(desc, internal)
	require.NoError(t, err)
	require.Equal(t, external, decoded)
}

func TestEncodeDecodeRoundTripVarChar(t *testing.T) {
	desc := descPersonWithName()

	external := []byte{0x00}
	external = putInt(external, 7)
	external = putVarChar(external, "hello world")
	external = putReal(external, 1.25)

	internal, err := record.EncodeRecord(desc, external)
	require.NoError(t, err)

	decoded, err := record.DecodeRecord(desc, internal)
	require.NoError(t, err)
	require.Equal(t, external, decoded)
}

func TestEncodeRejectsOversizeRecord(t *testing.T) {
	desc := record.RecordDescriptor{
		{Name: "blob", Type: record.TypeVarChar, MaxLength: 1 << 20},
	}

	external := []byte{0x00}
	external = putVarChar(external, string(make([]byte, 5000)))

	_, err := record.EncodeRecord(desc, external)
	require.ErrorIs(t, err, rbferrors.ErrOversize)
}
