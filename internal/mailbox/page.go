package mailbox

import "fmt"

// PageSizes are the page sizes the inbox view accepts. Anything else is
// rejected rather than coerced.
var PageSizes = []int{10, 25, 50, 100}

// Page is a view over a batch. It is derived on every request from
// (batch, pageNumber, pageSize) and never stored.
type Page struct {
	Number     int       `json:"page"`
	Size       int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
	Total      int       `json:"total"`
	Items      []Message `json:"items"`
}

func validPageSize(size int) bool {
	for _, s := range PageSizes {
		if size == s {
			return true
		}
	}
	return false
}

// Paginate slices a batch into the requested page. The page number is
// clamped into [1, max(totalPages, 1)]; an empty batch yields zero
// total pages and an empty first page. No I/O happens here.
func Paginate(batch Batch, pageNumber, pageSize int) (Page, error) {
	if !validPageSize(pageSize) {
		return Page{}, fmt.Errorf("invalid page size %d (valid sizes: 10, 25, 50, 100)", pageSize)
	}

	total := len(batch)
	totalPages := (total + pageSize - 1) / pageSize

	if pageNumber < 1 {
		pageNumber = 1
	}
	if m := max(totalPages, 1); pageNumber > m {
		pageNumber = m
	}

	start := (pageNumber - 1) * pageSize
	end := min(start+pageSize, total)
	items := []Message{}
	if start < total {
		items = batch[start:end]
	}

	return Page{
		Number:     pageNumber,
		Size:       pageSize,
		TotalPages: totalPages,
		Total:      total,
		Items:      items,
	}, nil
}

// Pager tracks the current (page, size) position between views. Only
// the position is kept; page contents are recomputed from the batch on
// every View so a re-fetch can never leave stale items behind.
type Pager struct {
	number int
	size   int
}

// NewPager starts at page 1 with the given page size.
func NewPager(size int) (*Pager, error) {
	if !validPageSize(size) {
		return nil, fmt.Errorf("invalid page size %d (valid sizes: 10, 25, 50, 100)", size)
	}
	return &Pager{number: 1, size: size}, nil
}

func (p *Pager) Number() int { return p.number }

func (p *Pager) Size() int { return p.size }

// SetSize switches the page size. Changing size resets the position to
// the first page so the pager cannot point past the new last page.
func (p *Pager) SetSize(size int) error {
	if !validPageSize(size) {
		return fmt.Errorf("invalid page size %d (valid sizes: 10, 25, 50, 100)", size)
	}
	if size != p.size {
		p.size = size
		p.number = 1
	}
	return nil
}

// Seek moves to the given page number. Values below 1 move to the
// first page; overshoot is clamped at the next View.
func (p *Pager) Seek(n int) {
	if n < 1 {
		n = 1
	}
	p.number = n
}

func (p *Pager) Next() { p.number++ }

func (p *Pager) Prev() {
	if p.number > 1 {
		p.number--
	}
}

func (p *Pager) First() { p.number = 1 }

// View computes the current page over the batch and syncs the pager's
// position with the clamped result.
func (p *Pager) View(batch Batch) Page {
	page, err := Paginate(batch, p.number, p.size)
	if err != nil {
		// The pager only holds validated sizes.
		panic(err)
	}
	p.number = page.Number
	return page
}
