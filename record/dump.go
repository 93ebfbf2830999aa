package record

import (
	"fmt"
	"strings"

	"github.com/luigitni/rbfdb/pagefile"
)

// SlotDump is a read-only snapshot of one slot-directory entry, used for
// diagnostics (not part of the on-disk format itself).
type SlotDump struct {
	SlotNum    uint16
	Length     uint16
	Offset     int16
	Tombstoned bool
}

func (s SlotDump) String() string {
	if s.Tombstoned {
		return fmt.Sprintf("slot %d: tombstoned", s.SlotNum)
	}
	return fmt.Sprintf("slot %d: offset=%d length=%d", s.SlotNum, s.Offset, s.Length)
}

// PageDump is a textual snapshot of one data page's footer and slot
// directory, grounded on the teacher's own page Dump type.
type PageDump struct {
	PageNum         uint32
	FreeSpaceOffset uint16
	SlotCount       uint16
	FirstFreeSlot   int16
	Slots           []SlotDump
}

// DumpPage reads pageNum through fh and returns a PageDump describing its
// footer and every slot-directory entry, in slot order.
func DumpPage(fh *pagefile.FileHandle, pageNum uint32) (PageDump, error) {
	var page [pagefile.PageSize]byte
	if err := fh.ReadPage(pageNum, page[:]); err != nil {
		return PageDump{}, err
	}

	slotCount := getSlotCount(page[:])

	dump := PageDump{
		PageNum:         pageNum,
		FreeSpaceOffset: getFreeSpaceOffset(page[:]),
		SlotCount:       slotCount,
		FirstFreeSlot:   getFirstFreeSlot(page[:]),
	}

	for k := uint16(1); k <= slotCount; k++ {
		length, offset := getSlot(page[:], k)
		dump.Slots = append(dump.Slots, SlotDump{
			SlotNum:    k,
			Length:     length,
			Offset:     offset,
			Tombstoned: offset == tombstoned,
		})
	}

	return dump, nil
}

func (d PageDump) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "page %d: free_space_offset=%d slot_count=%d first_free_slot=%d\n",
		d.PageNum, d.FreeSpaceOffset, d.SlotCount, d.FirstFreeSlot)
	for _, s := range d.Slots {
		b.WriteString("  ")
		b.WriteString(s.String())
		b.WriteString("\n")
	}
	return b.String()
}
