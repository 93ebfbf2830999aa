package record

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luigitni/rbfdb/pagefile"
)

func newFormattedPage() []byte {
	page := make([]byte, pagefile.PageSize)
	formatNewPage(page)
	return page
}

func TestFormatNewPage(t *testing.T) {
	page := newFormattedPage()
	require.EqualValues(t, 0, getFreeSpaceOffset(page))
	require.EqualValues(t, 0, getSlotCount(page))
	require.EqualValues(t, noFreeSlot, getFirstFreeSlot(page))
}

func TestStoreInCurrentPageAppendsSlots(t *testing.T) {
	page := newFormattedPage()

	r1 := []byte{1, 2, 3, 4}
	slot1, newSlot1, err := storeInCurrentPage(page, r1)
	require.NoError(t, err)
	require.True(t, newSlot1)
	require.EqualValues(t, 1, slot1)

	r2 := []byte{5, 6}
	slot2, newSlot2, err := storeInCurrentPage(page, r2)
	require.NoError(t, err)
	require.True(t, newSlot2)
	require.EqualValues(t, 2, slot2)

	length1, offset1 := getSlot(page, 1)
	require.EqualValues(t, len(r1), length1)
	require.EqualValues(t, 0, offset1)

	length2, offset2 := getSlot(page, 2)
	require.EqualValues(t, len(r2), length2)
	require.EqualValues(t, len(r1), offset2)

	require.EqualValues(t, len(r1)+len(r2), getFreeSpaceOffset(page))
	require.EqualValues(t, 2, getSlotCount(page))
}

func TestStoreInCurrentPageReusesTombstonedSlot(t *testing.T) {
	page := newFormattedPage()

	_, _, err := storeInCurrentPage(page, []byte{1, 1, 1, 1})
	require.NoError(t, err)
	_, _, err = storeInCurrentPage(page, []byte{2, 2})
	require.NoError(t, err)

	setSlot(page, 1, 0, tombstoned)
	setFirstFreeSlot(page, 1)

	slotNum, newSlotAllocated, err := storeInCurrentPage(page, []byte{9, 9, 9})
	require.NoError(t, err)
	require.False(t, newSlotAllocated)
	require.EqualValues(t, 1, slotNum)

	length, offset := getSlot(page, 1)
	require.EqualValues(t, 3, length)
	require.EqualValues(t, 6, offset) // appended at free_space_offset, after both earlier records' bytes

	require.EqualValues(t, noFreeSlot, getFirstFreeSlot(page))
	require.EqualValues(t, 2, getSlotCount(page))
}

// TestCompaction exercises the S6 scenario: a page with free_space_offset
// = 4000, one live slot of length 100 at offset 3000, and a record of size
// 1800 inserted. After compaction the live record sits at offset 0 and the
// new record at offset 100; free_space_offset = 1900.
func TestCompaction(t *testing.T) {
	page := make([]byte, pagefile.PageSize)
	setFreeSpaceOffset(page, 4000)
	setSlotCount(page, 1)
	setFirstFreeSlot(page, noFreeSlot)
	setSlot(page, 1, 100, 3000)

	for i := 0; i < 100; i++ {
		page[3000+i] = byte(i)
	}

	record := make([]byte, 1800)
	for i := range record {
		record[i] = 0xEE
	}

	slotNum, newSlotAllocated, err := storeInCurrentPage(page, record)
	require.NoError(t, err)
	require.True(t, newSlotAllocated)
	require.EqualValues(t, 2, slotNum)

	length1, offset1 := getSlot(page, 1)
	require.EqualValues(t, 100, length1)
	require.EqualValues(t, 0, offset1)
	for i := 0; i < 100; i++ {
		require.Equal(t, byte(i), page[i])
	}

	length2, offset2 := getSlot(page, 2)
	require.EqualValues(t, 1800, length2)
	require.EqualValues(t, 100, offset2)
	require.Equal(t, byte(0xEE), page[100])
	require.Equal(t, byte(0xEE), page[100+1799])

	require.EqualValues(t, 1900, getFreeSpaceOffset(page))
}

func TestCompactionPreservesSlotIndexesAndSkipsTombstones(t *testing.T) {
	// Two live slots (1 at offset 0, 3 at offset 4) around a tombstoned
	// slot 2, with free_space_offset pushed up so the next insert has no
	// contiguous room left and must compact. Compaction keeps slots 1 and 3
	// at offsets 0 and 4, leaves slot 2's tombstone untouched, and places
	// the new record at offset 10 under a newly allocated slot 4
	// (first_free_slot is -1, so slot 2 is not reused).
	page := make([]byte, pagefile.PageSize)
	setSlotCount(page, 3)
	setFirstFreeSlot(page, noFreeSlot)
	setSlot(page, 1, 4, 0)
	setSlot(page, 2, 0, tombstoned)
	setSlot(page, 3, 6, 4)
	for i := 0; i < 4; i++ {
		page[i] = 0x11
	}
	for i := 0; i < 6; i++ {
		page[4+i] = 0x33
	}
	setFreeSpaceOffset(page, pagefile.PageSize-6-slotEntrySize*3)

	big := make([]byte, 20)
	for i := range big {
		big[i] = 0x99
	}

	slotNum, newSlotAllocated, err := storeInCurrentPage(page, big)
	require.NoError(t, err)
	require.True(t, newSlotAllocated)
	require.EqualValues(t, 4, slotNum)

	_, offset2 := getSlot(page, 2)
	require.EqualValues(t, tombstoned, offset2)

	length1, offset1 := getSlot(page, 1)
	require.EqualValues(t, 4, length1)
	require.EqualValues(t, 0, offset1)

	length3, offset3 := getSlot(page, 3)
	require.EqualValues(t, 6, length3)
	require.EqualValues(t, 4, offset3)

	_, offset4 := getSlot(page, 4)
	require.EqualValues(t, 10, offset4)
	require.Equal(t, byte(0x99), page[10])
}
