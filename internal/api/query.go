package api

import (
	"net/url"
	"sort"
	"strconv"
)

// Query carries list parameters. Zero values are omitted.
type Query struct {
	Page     int
	PageSize int
	Ordering string
	Filters  map[string]string
}

// Values encodes the query in the backend's parameter names.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.Ordering != "" {
		v.Set("ordering", q.Ordering)
	}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if val := q.Filters[k]; val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// Page is one list response. Paginated is false when the backend returned a
// bare array, in which case Count is len(Results).
type Page[T any] struct {
	Count     int    `json:"count"`
	Next      string `json:"next"`
	Previous  string `json:"previous"`
	Results   []T    `json:"results"`
	Paginated bool   `json:"-"`
}

// HasNext reports whether another page is available.
func (p Page[T]) HasNext() bool {
	return p.Next != ""
}
