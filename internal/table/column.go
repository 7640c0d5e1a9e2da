package table

import (
	"cmp"
	"strconv"
	"strings"
)

// Column describes one table column. Value is the raw value used for
// sorting and cell filtering; Render, when set, formats the cell instead.
type Column[T any] struct {
	Key      string
	Header   string
	Width    int
	Sortable bool
	Value    func(T) string
	Render   func(T) string

	hidden bool
}

const defaultWidth = 12

func (c Column[T]) width() int {
	if c.Width <= 0 {
		return defaultWidth
	}
	return c.Width
}

func (c Column[T]) raw(row T) string {
	if c.Value == nil {
		return ""
	}
	return c.Value(row)
}

func (c Column[T]) cell(row T) string {
	if c.Render != nil {
		return c.Render(row)
	}
	return c.raw(row)
}

// compareRaw orders numbers before everything else, numbers numerically
// and the rest case-insensitively.
func compareRaw(a, b string) int {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(fa, fb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
