package record

import (
	"encoding/binary"

	"github.com/luigitni/rbfdb/pagefile"
)

// Free-space entries live in the header page at byte offset 4 + 2*index
// (spec.md §3.2); headerGroupAndIndex maps an absolute page number to the
// header group that tracks it and that page's index within the group.
func headerGroupAndIndex(pageNum uint32) (group uint32, index uint32) {
	h := uint32(pagefile.PagesPerHeader())
	return pageNum / h, pageNum % h
}

func readFreeSpaceEntry(fh *pagefile.FileHandle, pageNum uint32) (int16, error) {
	group, index := headerGroupAndIndex(pageNum)

	var header [pagefile.PageSize]byte
	if err := fh.ReadHeaderPage(group, header[:]); err != nil {
		return 0, err
	}

	off := 4 + 2*index
	return int16(binary.LittleEndian.Uint16(header[off : off+2])), nil
}

func writeFreeSpaceEntry(fh *pagefile.FileHandle, pageNum uint32, free int16) error {
	group, index := headerGroupAndIndex(pageNum)

	var header [pagefile.PageSize]byte
	if err := fh.ReadHeaderPage(group, header[:]); err != nil {
		return err
	}

	off := 4 + 2*index
	binary.LittleEndian.PutUint16(header[off:off+2], uint16(free))
	return fh.WriteHeaderPage(group, header[:])
}

// updateHeaderPageCountAndFreeSpace patches in a newly-appended page's
// free-space entry and, for every header group after the first, the
// group-local page count at bytes [0:4). Group 0's bytes [0:4) instead hold
// the file's global page count, which pagefile.FileHandle.AppendPage
// already keeps current - spec.md §9's documented quirk - so group 0's
// count field is left untouched here. Pages are always appended in
// increasing order, so a page's index within its group is always the
// group's new local page count minus one.
func updateHeaderPageCountAndFreeSpace(fh *pagefile.FileHandle, pageNum uint32, free int16) error {
	group, index := headerGroupAndIndex(pageNum)

	var header [pagefile.PageSize]byte
	if err := fh.ReadHeaderPage(group, header[:]); err != nil {
		return err
	}

	if group > 0 {
		binary.LittleEndian.PutUint32(header[0:4], index+1)
	}

	off := 4 + 2*index
	binary.LittleEndian.PutUint16(header[off:off+2], uint16(free))

	return fh.WriteHeaderPage(group, header[:])
}
