package pipeline

import "github.com/iliyamo/event-dashboard/internal/model"

// Page is one window of the sorted list.
type Page struct {
	Items     []model.Event
	Number    int // 1-based page requested
	Size      int
	PageCount int // never below 1
	Total     int // size of the list that was paginated
	From, To  int // 1-based inclusive bounds of Items within the list; 0,0 when empty
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.Number < p.PageCount }

// Paginate slices events to [(page-1)*size, page*size).  A page past the
// end yields no items rather than an error.
func Paginate(events []model.Event, page, size int) Page {
	if size < 1 {
		size = 1
	}
	if page < 1 {
		page = 1
	}
	n := len(events)
	p := Page{
		Number:    page,
		Size:      size,
		Total:     n,
		PageCount: max(1, (n+size-1)/size),
		Items:     []model.Event{},
	}
	// compare page numbers first; (page-1)*size overflows for huge pages
	if page > p.PageCount {
		return p
	}
	start := (page - 1) * size
	if start >= n {
		return p
	}
	end := min(start+size, n)
	p.Items = events[start:end]
	p.From, p.To = start+1, end
	return p
}
