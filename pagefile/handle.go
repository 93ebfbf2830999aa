package pagefile

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/luigitni/rbfdb/diag"
	"github.com/luigitni/rbfdb/rbferrors"
)

// FileHandle is one per open instance of a paged file (spec.md §4.2). It
// owns the file descriptor, caches the total page count, and provides
// page-granular read/write/append plus the free-space scan used by the
// record layer to pick a target page. A FileHandle is not thread-safe and
// must not be shared between concurrent goroutines (spec.md §5).
type FileHandle struct {
	file      *os.File
	name      string
	pageCount uint32

	reads   uint64
	writes  uint64
	appends uint64
}

// IsOpen reports whether the handle currently holds an open file.
func (h *FileHandle) IsOpen() bool {
	return h.file != nil
}

func (h *FileHandle) bind(name string, f *os.File) {
	h.name = name
	h.file = f
	h.pageCount = 0
	h.reads, h.writes, h.appends = 0, 0, 0
}

func (h *FileHandle) close() error {
	err := h.file.Close()
	h.file = nil
	h.name = ""
	return err
}

// Name returns the file name this handle is bound to, or "" if unbound.
func (h *FileHandle) Name() string {
	return h.name
}

// refreshPageCount reads the global page count from group 0's header and
// caches it. ReadPage, AppendPage and GetNumberOfPages issue this read
// (ReadPage before its range check); WritePage does not, and checks its
// page number against the count cached by the last refresh or append (see
// WritePage below).
func (h *FileHandle) refreshPageCount() error {
	var buf [4]byte
	if _, err := h.file.ReadAt(buf[:], 0); err != nil && err != io.EOF {
		return errors.Wrapf(rbferrors.ErrIOError, "refresh page count of %q: %v", h.name, err)
	}
	h.pageCount = binary.LittleEndian.Uint32(buf[:])
	return nil
}

func (h *FileHandle) writeGlobalPageCount(count uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], count)
	if _, err := h.file.WriteAt(buf[:], 0); err != nil {
		return errors.Wrapf(rbferrors.ErrIOError, "write page count of %q: %v", h.name, err)
	}
	h.pageCount = count
	return nil
}

func (h *FileHandle) requireOpen() error {
	if h.file == nil {
		return errors.New("file handle has no open file")
	}
	return nil
}

// ReadPage refreshes the cached page count, fails with ErrOutOfRange if n
// is beyond it, and otherwise reads exactly PageSize bytes from data page n
// into dst. dst must be at least PageSize bytes long.
func (h *FileHandle) ReadPage(n uint32, dst []byte) error {
	if err := h.requireOpen(); err != nil {
		return err
	}

	if err := h.refreshPageCount(); err != nil {
		diag.Errorf("read_page %d of %q: %v", n, h.name, err)
		return err
	}

	if n >= h.pageCount {
		return errors.Wrapf(rbferrors.ErrOutOfRange, "read_page: page %d >= page count %d", n, h.pageCount)
	}

	if _, err := h.file.ReadAt(dst[:PageSize], pageOffset(n)); err != nil {
		diag.Errorf("read_page %d of %q: %v", n, h.name, err)
		return errors.Wrapf(rbferrors.ErrIOError, "read page %d of %q: %v", n, h.name, err)
	}

	h.reads++
	return nil
}

// WritePage fails with ErrOutOfRange if n is beyond the cached page count
// (NOT refreshed here — spec.md §4.2 and §9 preserve this asymmetry
// relative to ReadPage), otherwise writes exactly PageSize bytes of src to
// data page n.
func (h *FileHandle) WritePage(n uint32, src []byte) error {
	if err := h.requireOpen(); err != nil {
		return err
	}

	if n >= h.pageCount {
		return errors.Wrapf(rbferrors.ErrOutOfRange, "write_page: page %d >= page count %d", n, h.pageCount)
	}

	if _, err := h.file.WriteAt(src[:PageSize], pageOffset(n)); err != nil {
		diag.Errorf("write_page %d of %q: %v", n, h.name, err)
		return errors.Wrapf(rbferrors.ErrIOError, "write page %d of %q: %v", n, h.name, err)
	}

	h.writes++
	return nil
}

// AppendPage writes PageSize bytes of src at the end of the file and
// updates group 0's global page count to pageCount+1. The new page's
// logical index equals the page count observed before the append.
func (h *FileHandle) AppendPage(src []byte) (uint32, error) {
	if err := h.requireOpen(); err != nil {
		return 0, err
	}

	if err := h.refreshPageCount(); err != nil {
		diag.Errorf("append_page to %q: %v", h.name, err)
		return 0, err
	}

	newPageNum := h.pageCount
	off := pageOffset(newPageNum)

	if _, err := h.file.WriteAt(src[:PageSize], off); err != nil {
		diag.Errorf("append_page to %q: %v", h.name, err)
		return 0, errors.Wrapf(rbferrors.ErrIOError, "append page to %q: %v", h.name, err)
	}

	if err := h.writeGlobalPageCount(h.pageCount + 1); err != nil {
		diag.Errorf("append_page to %q: %v", h.name, err)
		return 0, err
	}

	h.appends++
	return newPageNum, nil
}

// ReadHeaderPage reads the header page for group g into dst, bypassing the
// page-count refresh (spec.md §4.2).
func (h *FileHandle) ReadHeaderPage(g uint32, dst []byte) error {
	if err := h.requireOpen(); err != nil {
		return err
	}

	if _, err := h.file.ReadAt(dst[:PageSize], headerOffset(g)); err != nil && err != io.EOF {
		diag.Errorf("read_header_page %d of %q: %v", g, h.name, err)
		return errors.Wrapf(rbferrors.ErrIOError, "read header page %d of %q: %v", g, h.name, err)
	}

	return nil
}

// WriteHeaderPage writes src as the header page for group g, bypassing the
// page-count refresh.
func (h *FileHandle) WriteHeaderPage(g uint32, src []byte) error {
	if err := h.requireOpen(); err != nil {
		return err
	}

	if _, err := h.file.WriteAt(src[:PageSize], headerOffset(g)); err != nil {
		diag.Errorf("write_header_page %d of %q: %v", g, h.name, err)
		return errors.Wrapf(rbferrors.ErrIOError, "write header page %d of %q: %v", g, h.name, err)
	}

	return nil
}

// GetNumberOfPages refreshes and returns the cached total page count.
func (h *FileHandle) GetNumberOfPages() (uint32, error) {
	if err := h.requireOpen(); err != nil {
		return 0, err
	}

	if err := h.refreshPageCount(); err != nil {
		return 0, err
	}

	return h.pageCount, nil
}

// Counters returns the current read/write/append counters.
func (h *FileHandle) Counters() Counters {
	return Counters{Reads: h.reads, Writes: h.writes, Appends: h.appends}
}

// FindPageWithEnoughSpace walks header groups in order and, within each,
// the free-space entries for the pages actually present, returning the
// first page number whose recorded free space is >= requiredBytes. It
// returns ok=false if no such page exists. The scan stops once it has
// examined a number of pages equal to the file's total page count (spec.md
// §4.2), which is why it tolerates later header groups' page-count fields
// being merely local counts rather than the running total (spec.md §9).
func (h *FileHandle) FindPageWithEnoughSpace(requiredBytes int) (pageNum uint32, ok bool, err error) {
	if err := h.requireOpen(); err != nil {
		return 0, false, err
	}

	total, err := h.GetNumberOfPages()
	if err != nil {
		return 0, false, err
	}

	perHeader := uint32(pagesPerHeader)
	var headerBuf [PageSize]byte

	var seen uint32
	for g := uint32(0); seen < total; g++ {
		if err := h.ReadHeaderPage(g, headerBuf[:]); err != nil {
			return 0, false, err
		}

		for i := uint32(0); i < perHeader && seen < total; i++ {
			entryOff := 4 + i*2
			free := int16(binary.LittleEndian.Uint16(headerBuf[entryOff : entryOff+2]))

			pn := g*perHeader + i
			if int(free) >= requiredBytes {
				return pn, true, nil
			}
			seen++
		}
	}

	return 0, false, nil
}
