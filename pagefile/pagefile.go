// Package pagefile implements the paged file manager (PFM) and the
// file-handle object described in spec.md §4.1-§4.2: a registry of named
// on-disk files addressed as a sequence of fixed-size pages, grouped into
// header groups that each carry a free-space directory for the data pages
// following them.
package pagefile

// PageSize is P in spec.md: the fixed size, in bytes, of every page
// (header page or data page) in a file.
const PageSize = 4096

// pagesPerHeader is H in spec.md: (P - 4) / 2, the number of data pages a
// single header page can index (4 bytes for the group's page count, 2
// bytes per free-space entry).
const pagesPerHeader = (PageSize - 4) / 2

// PagesPerHeader exposes H for callers (e.g. the record package) that need
// to map a page number to its owning header group without importing
// internal details.
func PagesPerHeader() int {
	return pagesPerHeader
}

// pageOffset returns the byte offset of data page n (0-based, global) per
// spec.md §3.1:
//
//	page_offset(n) = ((n / H) * (H + 1) + (n % H + 1)) * P
func pageOffset(n uint32) int64 {
	h := int64(pagesPerHeader)
	nn := int64(n)
	return ((nn/h)*(h+1) + (nn%h + 1)) * PageSize
}

// headerOffset returns the byte offset of the header page for group g.
func headerOffset(g uint32) int64 {
	return int64(g) * int64(pagesPerHeader+1) * PageSize
}

// Counters reports the per-handle operation counters from spec.md §4.2.
type Counters struct {
	Reads   uint64
	Writes  uint64
	Appends uint64
}
