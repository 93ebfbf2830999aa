package record

import (
	"github.com/pkg/errors"

	"github.com/luigitni/rbfdb/pagefile"
	"github.com/luigitni/rbfdb/rbferrors"
)

// slotEntrySize worth of free space (4 bytes) is charged against a page
// only when a brand new slot-directory entry is allocated for it, never
// when an existing tombstoned slot is reused (spec.md §4.3.2).

// Manager is the record-based file manager: it transcodes records through
// EncodeRecord/DecodeRecord and places them into pages reached through a
// pagefile.FileHandle. A Manager caches the page it last wrote to so a run
// of inserts against the same FileHandle can skip the header scan (spec.md
// §4.3.2's "current working page"); the cache is per-Manager value, not
// global, so concurrent Managers over the same file never contend on it.
type Manager struct {
	pageBuffer [pagefile.PageSize]byte

	currentPageNum       int64
	currentPageFreeSpace int32
}

// NewManager returns a Manager with no current page cached.
func NewManager() *Manager {
	return &Manager{
		currentPageNum:       -1,
		currentPageFreeSpace: -1,
	}
}

func (m *Manager) applyCost(recordSize int, newSlotAllocated bool) {
	cost := recordSize
	if newSlotAllocated {
		cost += slotEntrySize
	}
	m.currentPageFreeSpace -= int32(cost)
}

// InsertRecord transcodes external into the internal format and places it
// in fh, implementing spec.md §4.3.2 (page selection) and §4.3.3 (in-page
// storage). It returns the RID the record can be read back with.
func (m *Manager) InsertRecord(fh *pagefile.FileHandle, desc RecordDescriptor, external []byte) (RID, error) {
	internal, err := EncodeRecord(desc, external)
	if err != nil {
		return RID{}, err
	}

	required := len(internal) + slotEntrySize

	if m.currentPageNum >= 0 && m.currentPageFreeSpace >= int32(required) {
		return m.storeAndPersist(fh, uint32(m.currentPageNum), internal)
	}

	pn, ok, err := fh.FindPageWithEnoughSpace(required)
	if err != nil {
		return RID{}, err
	}
	if ok {
		if err := fh.ReadPage(pn, m.pageBuffer[:]); err != nil {
			return RID{}, err
		}
		free, err := readFreeSpaceEntry(fh, pn)
		if err != nil {
			return RID{}, err
		}
		m.currentPageNum = int64(pn)
		m.currentPageFreeSpace = int32(free)
		return m.storeAndPersist(fh, pn, internal)
	}

	return m.appendAndStore(fh, internal)
}

// storeAndPersist runs storeInCurrentPage against m.pageBuffer (which must
// already hold pageNum's contents), writes the page back, and patches the
// page's free-space entry.
func (m *Manager) storeAndPersist(fh *pagefile.FileHandle, pageNum uint32, internal []byte) (RID, error) {
	slotNum, newSlotAllocated, err := storeInCurrentPage(m.pageBuffer[:], internal)
	if err != nil {
		return RID{}, err
	}

	if err := fh.WritePage(pageNum, m.pageBuffer[:]); err != nil {
		return RID{}, err
	}

	m.applyCost(len(internal), newSlotAllocated)

	if err := writeFreeSpaceEntry(fh, pageNum, int16(m.currentPageFreeSpace)); err != nil {
		return RID{}, err
	}

	return RID{PageNum: pageNum, SlotNum: slotNum}, nil
}

// appendAndStore implements spec.md §4.3.2's miss case: no existing page
// has enough free space, so a fresh page holding exactly this one record is
// formatted and appended, allocating a new header page first if the file's
// current header group is full.
func (m *Manager) appendAndStore(fh *pagefile.FileHandle, internal []byte) (RID, error) {
	total, err := fh.GetNumberOfPages()
	if err != nil {
		return RID{}, err
	}

	perHeader := uint32(pagefile.PagesPerHeader())
	if total > 0 && total%perHeader == 0 {
		group := total / perHeader
		var zero [pagefile.PageSize]byte
		if err := fh.WriteHeaderPage(group, zero[:]); err != nil {
			return RID{}, err
		}
	}

	m.pageBuffer = [pagefile.PageSize]byte{}
	formatNewPage(m.pageBuffer[:])

	slotNum, _, err := storeInCurrentPage(m.pageBuffer[:], internal)
	if err != nil {
		return RID{}, err
	}

	pageNum, err := fh.AppendPage(m.pageBuffer[:])
	if err != nil {
		return RID{}, err
	}

	m.currentPageNum = int64(pageNum)
	m.currentPageFreeSpace = int32(pagefile.PageSize - len(internal) - 10)

	if err := updateHeaderPageCountAndFreeSpace(fh, pageNum, int16(m.currentPageFreeSpace)); err != nil {
		return RID{}, err
	}

	return RID{PageNum: pageNum, SlotNum: slotNum}, nil
}

// ReadRecord implements spec.md §4.3.4: it validates rid against the
// file's current bounds, fails with ErrTombstoned if the slot has been
// deleted, and otherwise decodes the stored record back to external form.
func (m *Manager) ReadRecord(fh *pagefile.FileHandle, desc RecordDescriptor, rid RID) ([]byte, error) {
	total, err := fh.GetNumberOfPages()
	if err != nil {
		return nil, err
	}
	if rid.PageNum >= total {
		return nil, errors.Wrapf(rbferrors.ErrOutOfRange, "rid page %d >= page count %d", rid.PageNum, total)
	}

	var page [pagefile.PageSize]byte
	if err := fh.ReadPage(rid.PageNum, page[:]); err != nil {
		return nil, err
	}

	slotCount := getSlotCount(page[:])
	if rid.SlotNum < 1 || rid.SlotNum > slotCount {
		return nil, errors.Wrapf(rbferrors.ErrOutOfRange, "rid slot %d out of range [1,%d]", rid.SlotNum, slotCount)
	}

	length, offset := getSlot(page[:], rid.SlotNum)
	if offset == tombstoned {
		return nil, rbferrors.ErrTombstoned
	}

	internal := make([]byte, length)
	copy(internal, page[offset:int(offset)+int(length)])

	return DecodeRecord(desc, internal)
}
