package util

import "strconv"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a parsed list query: zero-based page number, clamped size and a
// whitelisted sort column.
type Page struct {
	Number    int
	Size      int
	SortCol   string
	Direction string
}

var sortColumns = map[string]string{
	"id":        "id",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func ParsePage(page, size, sortBy, direction string) Page {
	p := Page{
		Number: parseIntDefault(page, 0),
		Size:   parseIntDefault(size, DefaultPageSize),
	}
	if p.Number < 0 {
		p.Number = 0
	}
	switch {
	case p.Size < 1:
		p.Size = DefaultPageSize
	case p.Size > MaxPageSize:
		p.Size = MaxPageSize
	}

	col, ok := sortColumns[sortBy]
	if !ok {
		col = "id"
	}
	p.SortCol = col

	p.Direction = "ASC"
	if direction == "desc" || direction == "dsc" {
		p.Direction = "DESC"
	}
	return p
}

func (p Page) Offset() int { return p.Number * p.Size }

func (p Page) Order() string { return p.SortCol + " " + p.Direction }

func TotalPages(total int64, size int) int64 {
	return (total + int64(size) - 1) / int64(size)
}
