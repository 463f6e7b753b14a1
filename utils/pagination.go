package utils

import "strconv"

// Page describes one page of a paginated listing
type Page struct {
	Number     int   `json:"page"`
	Size       int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// Offset returns the number of rows to skip for this page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ResolvePage turns a raw page parameter into a page within range.
// A missing or non-integer page yields the first page; an integer outside the
// available range yields the last.
func ResolvePage(raw string, size int, total int64) Page {
	totalPages := int((total + int64(size) - 1) / int64(size))
	if totalPages < 1 {
		totalPages = 1
	}

	number, err := strconv.Atoi(raw)
	if err != nil {
		number = 1
	}
	if number < 1 || number > totalPages {
		number = totalPages
	}

	return Page{Number: number, Size: size, TotalItems: total, TotalPages: totalPages}
}
