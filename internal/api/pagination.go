package api

import (
	"fmt"
	"net/url"
)

// MaxLimit is the largest page size the Web API accepts.
const MaxLimit = 50

// PaginationKind identifies a Pagination policy.
type PaginationKind int

const (
	// PaginationAll fetches every item.
	PaginationAll PaginationKind = iota
	// PaginationLimit fetches the first n items.
	PaginationLimit
	// PaginationPage fetches a window of items starting at an offset.
	PaginationPage
)

// Pagination is the limit policy of a paging session. The zero value fetches
// every item.
type Pagination struct {
	kind   PaginationKind
	limit  int
	offset int
}

// PaginateAll fetches every item.
func PaginateAll() Pagination {
	return Pagination{kind: PaginationAll}
}

// PaginateLimit fetches at most n items starting at the first one.
func PaginateLimit(n int) Pagination {
	return Pagination{kind: PaginationLimit, limit: max(n, 0)}
}

// PaginatePage fetches at most limit items starting at offset.
func PaginatePage(limit, offset int) Pagination {
	return Pagination{kind: PaginationPage, limit: max(limit, 0), offset: max(offset, 0)}
}

func (p Pagination) Kind() PaginationKind { return p.kind }

// Limit returns the page size to request: MaxLimit for PaginationAll and the
// requested count capped at MaxLimit otherwise.
func (p Pagination) Limit() int {
	if p.kind == PaginationAll {
		return MaxLimit
	}
	return min(p.limit, MaxLimit)
}

// Offset returns the offset of the first requested item.
func (p Pagination) Offset() int {
	if p.kind == PaginationPage {
		return p.offset
	}
	return 0
}

// Max returns the maximum number of items the policy yields, or -1 when
// unbounded.
func (p Pagination) Max() int {
	if p.kind == PaginationAll {
		return -1
	}
	return p.limit
}

// IsLastPage reports whether a session that just received a page of
// lastPageSize items, for fetched items in total, is complete. A short page
// always ends the session.
func (p Pagination) IsLastPage(lastPageSize, fetched int) bool {
	if lastPageSize < p.Limit() {
		return true
	}
	switch p.kind {
	case PaginationLimit:
		return p.limit <= fetched
	case PaginationPage:
		// A window is a single request.
		return p.offset+p.limit >= fetched
	}
	return false
}

func (p Pagination) String() string {
	switch p.kind {
	case PaginationLimit:
		return fmt.Sprintf("limit(%d)", p.limit)
	case PaginationPage:
		return fmt.Sprintf("page(limit=%d, offset=%d)", p.limit, p.offset)
	default:
		return "all"
	}
}

type cursorKind int

const (
	cursorFirst cursorKind = iota
	cursorNext
	cursorDone
)

type pageCursor struct {
	kind cursorKind
	next *url.URL
}

// pageState tracks one paging session. It is not safe for concurrent use.
type pageState struct {
	pagination Pagination
	fetched    int
	yielded    int
	cursor     pageCursor
}

func newPageState(p Pagination) *pageState {
	s := &pageState{pagination: p}
	if p.Max() == 0 {
		s.cursor = pageCursor{kind: cursorDone}
	}
	return s
}

func (s *pageState) done() bool {
	return s.cursor.kind == cursorDone
}

// pageURL returns the URL of the next page. The first URL is built from the
// endpoint; later URLs are the server's next links verbatim.
func (s *pageState) pageURL(ep Endpoint, rc RestClient) (*url.URL, error) {
	if s.cursor.kind == cursorNext {
		u := *s.cursor.next
		return &u, nil
	}
	u, err := endpointURL(ep, rc)
	if err != nil {
		return nil, err
	}
	NewQueryParams().
		Push("offset", s.pagination.Offset()).
		Push("limit", s.pagination.Limit()).
		AddToURL(u)
	return u, nil
}

// advance records a received page and moves the cursor.
func (s *pageState) advance(lastPageSize int, next *string) error {
	s.fetched += lastPageSize
	if s.pagination.IsLastPage(lastPageSize, s.fetched) || next == nil || *next == "" {
		s.cursor = pageCursor{kind: cursorDone}
		return nil
	}
	u, err := url.Parse(*next)
	if err != nil {
		s.cursor = pageCursor{kind: cursorDone}
		return &URLParseError{Input: *next, Err: err}
	}
	s.cursor = pageCursor{kind: cursorNext, next: u}
	return nil
}

// take caps items at the number the policy still allows.
func take[T any](s *pageState, items []T) []T {
	if limit := s.pagination.Max(); limit >= 0 {
		remaining := max(limit-s.yielded, 0)
		if len(items) > remaining {
			items = items[:remaining]
		}
	}
	s.yielded += len(items)
	return items
}
