// Package rbferrors holds the sentinel error kinds shared by the pagefile
// and record packages. A caller distinguishes failures with errors.Is against
// one of these sentinels; the wrapped message (added at the call site with
// github.com/pkg/errors) carries whatever filesystem or bookkeeping detail
// caused the failure.
package rbferrors

import "github.com/pkg/errors"

var (
	// ErrAlreadyExists is returned by create_file when the target path
	// already exists on the host filesystem.
	ErrAlreadyExists = errors.New("file already exists")

	// ErrNotFound is returned by open_file when the target path does not
	// exist on the host filesystem.
	ErrNotFound = errors.New("file not found")

	// ErrNotTracked is returned by destroy_file when the given name is not
	// present in the PFM's file tracker.
	ErrNotTracked = errors.New("file not tracked")

	// ErrBusy is returned by destroy_file when the file's open-handle count
	// is non-zero, and by open_file when the handle passed in is already
	// bound to an open file.
	ErrBusy = errors.New("file busy")

	// ErrOutOfRange is returned by read_page/write_page when the page
	// number is beyond the file's current page count, and by read_record
	// when the rid names a nonexistent page or slot.
	ErrOutOfRange = errors.New("page or slot out of range")

	// ErrTombstoned is returned by read_record when the rid's slot has been
	// freed (its offset is -1).
	ErrTombstoned = errors.New("record has been deleted")

	// ErrOversize is returned by insert_record when the transcoded internal
	// record exceeds the maximum record size for a page.
	ErrOversize = errors.New("record exceeds maximum record size")

	// ErrIOError is the catch-all for underlying filesystem failures.
	ErrIOError = errors.New("i/o error")
)
