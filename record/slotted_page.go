package record

import (
	"encoding/binary"
	"sort"

	"github.com/luigitni/rbfdb/pagefile"
)

// The slotted data-page layout of spec.md §3.3. The page footer occupies
// the last 6 bytes; the slot directory grows backward from just before the
// footer, one 4-byte entry per slot; records grow forward from offset 0.

const (
	footerFreeSpaceOffsetPos = pagefile.PageSize - 2
	footerSlotCountPos       = pagefile.PageSize - 4
	footerFirstFreeSlotPos   = pagefile.PageSize - 6

	slotEntrySize = 4

	// tombstoned marks a slot whose record has been freed.
	tombstoned int16 = -1
	// noFreeSlot marks a page with no reusable tombstoned slot.
	noFreeSlot int16 = -1
)

func getFreeSpaceOffset(page []byte) uint16 {
	return binary.LittleEndian.Uint16(page[footerFreeSpaceOffsetPos : footerFreeSpaceOffsetPos+2])
}

func setFreeSpaceOffset(page []byte, v uint16) {
	binary.LittleEndian.PutUint16(page[footerFreeSpaceOffsetPos:footerFreeSpaceOffsetPos+2], v)
}

func getSlotCount(page []byte) uint16 {
	return binary.LittleEndian.Uint16(page[footerSlotCountPos : footerSlotCountPos+2])
}

func setSlotCount(page []byte, v uint16) {
	binary.LittleEndian.PutUint16(page[footerSlotCountPos:footerSlotCountPos+2], v)
}

func getFirstFreeSlot(page []byte) int16 {
	return int16(binary.LittleEndian.Uint16(page[footerFirstFreeSlotPos : footerFirstFreeSlotPos+2]))
}

func setFirstFreeSlot(page []byte, v int16) {
	binary.LittleEndian.PutUint16(page[footerFirstFreeSlotPos:footerFirstFreeSlotPos+2], uint16(v))
}

// slotPos returns the byte offset of slot k (1-based) within the page:
// P - 6 - 4*k (spec.md §3.3).
func slotPos(k uint16) int {
	return pagefile.PageSize - 6 - slotEntrySize*int(k)
}

func getSlot(page []byte, k uint16) (length uint16, offset int16) {
	p := slotPos(k)
	length = binary.LittleEndian.Uint16(page[p : p+2])
	offset = int16(binary.LittleEndian.Uint16(page[p+2 : p+4]))
	return length, offset
}

func setSlot(page []byte, k uint16, length uint16, offset int16) {
	p := slotPos(k)
	binary.LittleEndian.PutUint16(page[p:p+2], length)
	binary.LittleEndian.PutUint16(page[p+2:p+4], uint16(offset))
}

// formatNewPage initializes page as an empty slotted page: no slots, free
// space starting at offset 0, no reusable tombstoned slot. page must
// already be PageSize bytes of zero-valued data (the footer's
// free_space_offset and slot_count fields are zero either way; only
// first_free_slot needs to be set away from its zero value).
func formatNewPage(page []byte) {
	setFreeSpaceOffset(page, 0)
	setSlotCount(page, 0)
	setFirstFreeSlot(page, noFreeSlot)
}

// storeInCurrentPage implements spec.md §4.3.3: it inserts record into page
// (which the caller guarantees has enough free space, including
// fragmented/tombstoned space, to hold it), compacting first if necessary,
// and returns the 1-based slot number the record was stored under and
// whether a brand new slot had to be allocated (as opposed to reusing a
// tombstoned one) — the caller needs that to know whether to charge the
// page's free-space entry an extra 4 bytes for the new slot-directory
// entry.
func storeInCurrentPage(page []byte, record []byte) (slotNum uint16, newSlotAllocated bool, err error) {
	freeSpaceOffset := getFreeSpaceOffset(page)
	slotCount := getSlotCount(page)
	firstFreeSlot := getFirstFreeSlot(page)

	reuse := firstFreeSlot != noFreeSlot
	recordSize := uint16(len(record))

	contig := int(pagefile.PageSize) - int(freeSpaceOffset) - 6 - slotEntrySize*int(slotCount)
	if !reuse {
		contig -= slotEntrySize
	}

	var chosen uint16
	if contig >= int(recordSize) {
		chosen = freeSpaceOffset
		copy(page[chosen:int(chosen)+len(record)], record)
	} else {
		chosen = compactPage(page, slotCount, record)
	}

	if !reuse {
		slotCount++
		setSlot(page, slotCount, recordSize, int16(chosen))
		setSlotCount(page, slotCount)
		slotNum = slotCount
		newSlotAllocated = true
	} else {
		slotNum = uint16(firstFreeSlot)
		setSlot(page, slotNum, recordSize, int16(chosen))
		setFirstFreeSlot(page, nextFreeSlot(page, slotCount))
	}

	setFreeSpaceOffset(page, chosen+recordSize)

	return slotNum, newSlotAllocated, nil
}

// nextFreeSlot rescans the full slot directory (spec.md §9's "tombstone
// scan on free-slot reuse") and returns the lowest-numbered tombstoned
// slot, or noFreeSlot if there is none.
func nextFreeSlot(page []byte, slotCount uint16) int16 {
	for k := uint16(1); k <= slotCount; k++ {
		if _, offset := getSlot(page, k); offset == tombstoned {
			return int16(k)
		}
	}
	return noFreeSlot
}

type liveSlot struct {
	slotNum uint16
	offset  uint16
	length  uint16
}

// compactPage implements spec.md §4.3.3 step 4: it collects every live
// slot, sorts them by ascending offset, and repacks their records
// contiguously starting at offset 0 (slot indexes are preserved; only
// offsets change), then places the new record immediately after the last
// compacted one. copy() is used for the in-page move, which - like
// memmove - is safe when source and destination ranges overlap.
func compactPage(page []byte, slotCount uint16, record []byte) uint16 {
	var live []liveSlot
	for k := uint16(1); k <= slotCount; k++ {
		length, offset := getSlot(page, k)
		if offset == tombstoned {
			continue
		}
		live = append(live, liveSlot{slotNum: k, offset: uint16(offset), length: length})
	}

	sort.Slice(live, func(i, j int) bool {
		return live[i].offset < live[j].offset
	})

	cursor := uint16(0)
	for _, s := range live {
		if s.offset != cursor {
			copy(page[cursor:cursor+s.length], page[s.offset:s.offset+s.length])
			setSlot(page, s.slotNum, s.length, int16(cursor))
		}
		cursor += s.length
	}

	copy(page[cursor:int(cursor)+len(record)], record)
	return cursor
}
