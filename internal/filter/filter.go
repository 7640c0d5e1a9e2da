// Package filter projects an in-memory collection through free-text search
// and discrete criteria. Everything here is a pure function of its inputs.
package filter

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// Kind selects how a criterion compares.
type Kind int

const (
	// Exact requires the field to equal the filter value.
	Exact Kind = iota
	// Contains is a case-insensitive substring match.
	Contains
	// DateEquals compares the calendar day of a date or datetime field.
	DateEquals
	// Related compares a value derived through a related entity.
	Related
)

// Criterion is one filter control.
type Criterion[T any] struct {
	Key   string
	Label string
	Kind  Kind
	Value func(T) string
}

// Spec lists a resource's search fields and criteria.
type Spec[T any] struct {
	SearchFields []func(T) string
	Criteria     []Criterion[T]
}

// Criterion returns the criterion with key.
func (s Spec[T]) Criterion(key string) (Criterion[T], bool) {
	for _, c := range s.Criteria {
		if c.Key == key {
			return c, true
		}
	}
	return Criterion[T]{}, false
}

// State is the user's current filter input. Empty values impose no
// constraint.
type State struct {
	Search string
	Values map[string]string
}

// With returns a copy of s with key set to value.
func (s State) With(key, value string) State {
	values := make(map[string]string, len(s.Values)+1)
	for k, v := range s.Values {
		values[k] = v
	}
	values[key] = value
	return State{Search: s.Search, Values: values}
}

// WithSearch returns a copy of s with a new search term.
func (s State) WithSearch(term string) State {
	return State{Search: term, Values: s.Values}
}

// Get returns the value for key.
func (s State) Get(key string) string {
	return s.Values[key]
}

// Active reports whether any constraint is set.
func (s State) Active() bool {
	if strings.TrimSpace(s.Search) != "" {
		return true
	}
	for _, v := range s.Values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// Clear returns the empty state.
func (s State) Clear() State {
	return State{}
}

// Apply returns the items passing every active constraint, in their
// original order.
func Apply[T any](items []T, spec Spec[T], state State) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if Match(item, spec, state) {
			out = append(out, item)
		}
	}
	return out
}

// Match reports whether item passes the search term and all criteria.
func Match[T any](item T, spec Spec[T], state State) bool {
	if term := strings.TrimSpace(state.Search); term != "" && len(spec.SearchFields) > 0 {
		if !matchesSearch(item, spec.SearchFields, term) {
			return false
		}
	}
	for _, c := range spec.Criteria {
		want := strings.TrimSpace(state.Values[c.Key])
		if want == "" || c.Value == nil {
			continue
		}
		if !matches(c.Kind, c.Value(item), want) {
			return false
		}
	}
	return true
}

func matchesSearch[T any](item T, fields []func(T) string, term string) bool {
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f(item)), term) {
			return true
		}
	}
	return false
}

func matches(kind Kind, got, want string) bool {
	switch kind {
	case Contains:
		return strings.Contains(strings.ToLower(got), strings.ToLower(want))
	case DateEquals:
		day, ok := CalendarDay(got)
		if !ok {
			return false
		}
		wantDay, ok := CalendarDay(want)
		return ok && day == wantDay
	default:
		return got == want
	}
}

var dayLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CalendarDay returns the YYYY-MM-DD day of a date or datetime string, read
// in the zone it was written in.
func CalendarDay(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// RelatedValue builds the Value function of a Related criterion: the
// foreign key of an item is looked up in index and the derived value
// returned. Unknown keys derive to "".
func RelatedValue[T any](fk func(T) int64, index map[int64]string) func(T) string {
	return func(item T) string {
		return index[fk(item)]
	}
}

// Index maps entity ids to a derived value, for use with RelatedValue.
func Index[R any](items []R, id func(R) int64, value func(R) string) map[int64]string {
	out := make(map[int64]string, len(items))
	for _, item := range items {
		out[id(item)] = value(item)
	}
	return out
}

// Option is a value offered by a select control.
type Option struct {
	Value string
	Label string
}

// DistinctOptions returns the sorted distinct non-empty values of a field.
func DistinctOptions[T any](items []T, value func(T) string) []Option {
	seen := map[string]bool{}
	var out []Option
	for _, item := range items {
		v := value(item)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, Option{Value: v, Label: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Keys returns the keys of the active constraints, sorted.
func (s State) Keys() []string {
	var keys []string
	for k, v := range s.Values {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
