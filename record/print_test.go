package record_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luigitni/rbfdb/diag"
	"github.com/luigitni/rbfdb/record"
)

func TestPrintRecordFormat(t *testing.T) {
	var buf bytes.Buffer
	diag.SetOutput(&buf)
	t.Cleanup(func() { diag.SetOutput(&buf) })

	desc := record.RecordDescriptor{
		{Name: "age", Type: record.TypeInt, MaxLength: 4},
		{Name: "height", Type: record.TypeReal, MaxLength: 4},
	}

	external := []byte{0b0100_0000} // height (bit 1) is null
	var idBuf [4]byte
	binary.LittleEndian.PutUint32(idBuf[:], uint32(30))
	external = append(external, idBuf[:]...)

	err := record.PrintRecord(desc, external)
	require.NoError(t, err)
	require.Equal(t, "age: 30\theight: NULL\t\n", buf.String())
}

func TestPrintRecordVarChar(t *testing.T) {
	var buf bytes.Buffer
	diag.SetOutput(&buf)
	t.Cleanup(func() { diag.SetOutput(&buf) })

	desc := record.RecordDescriptor{
		{Name: "name", Type: record.TypeVarChar, MaxLength: 32},
	}

	external := []byte{0x00}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len("ada")))
	external = append(external, lenBuf[:]...)
	external = append(external, []byte("ada")...)

	err := record.PrintRecord(desc, external)
	require.NoError(t, err)
	require.Equal(t, "name: ada\t\n", buf.String())
}

func TestPrintRecordReal(t *testing.T) {
	var buf bytes.Buffer
	diag.SetOutput(&buf)
	t.Cleanup(func() { diag.SetOutput(&buf) })

	desc := record.RecordDescriptor{
		{Name: "h", Type: record.TypeReal, MaxLength: 4},
	}

	external := []byte{0x00}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(7.5))
	external = append(external, b[:]...)

	err := record.PrintRecord(desc, external)
	require.NoError(t, err)
	require.Equal(t, "h: 7.5\t\n", buf.String())
}
