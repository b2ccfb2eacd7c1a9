package catalog

import "fmt"

const (
	DefaultPerPage      = 15
	DefaultVisiblePages = 5
)

// Page describes one page of a list of Total items. Start and End are slice
// bounds; Number is 1-based.
type Page struct {
	Number int
	Pages  int
	Total  int
	Start  int
	End    int
}

// Paginate clamps page into range and returns its bounds.
func Paginate(total, page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	pages := (total + perPage - 1) / perPage
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	if total == 0 {
		return Page{Number: 1}
	}
	start := (page - 1) * perPage
	return Page{Number: page, Pages: pages, Total: total, Start: start, End: min(start+perPage, total)}
}

// Summary is the "Showing a-b of n products" line.
func (p Page) Summary() string {
	if p.Total == 0 {
		return "Showing 0 of 0 products"
	}
	return fmt.Sprintf("Showing %d-%d of %d products", p.Start+1, p.End, p.Total)
}

// PageWindow returns up to visible page numbers centred on current.
func PageWindow(current, pages, visible int) []int {
	if pages <= 0 {
		return nil
	}
	if visible <= 0 {
		visible = DefaultVisiblePages
	}
	start := max(1, current-visible/2)
	end := min(pages, start+visible-1)
	if end-start+1 < visible {
		start = max(1, end-visible+1)
	}
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out
}
