package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"welfaredesk/internal/api"
	"welfaredesk/internal/dialog"
	"welfaredesk/internal/filter"
	"welfaredesk/internal/model"
	"welfaredesk/internal/resource"
)

// lookup is a related collection a screen loads for select options and
// joined filters.
type lookup interface {
	load() tea.Cmd
	apply(msg tea.Msg) bool
	options() []filter.Option
	index(derive string) map[int64]string
	err() string
	loading() bool
}

// refLookup loads every R and labels it for selects.
type refLookup[R model.Entity] struct {
	c      *resource.Container[R]
	label  func(R) string
	derive map[string]func(R) string
}

func newLookup[R model.Entity](d Deps, path, name string, label func(R) string) *refLookup[R] {
	return &refLookup[R]{
		c:     resource.New[R](api.NewResource[R](d.Client, path, name), resource.Options{Timeout: d.Timeout}),
		label: label,
	}
}

// with registers a value derived from R, used by Related criteria.
func (l *refLookup[R]) with(name string, fn func(R) string) *refLookup[R] {
	if l.derive == nil {
		l.derive = map[string]func(R) string{}
	}
	l.derive[name] = fn
	return l
}

func (l *refLookup[R]) load() tea.Cmd {
	return l.c.List(api.Query{})
}

func (l *refLookup[R]) apply(msg tea.Msg) bool {
	r, ok := msg.(resource.Result[R])
	if !ok || r.Resource != l.c.Name() {
		return false
	}
	l.c.Apply(r)
	return true
}

func (l *refLookup[R]) options() []filter.Option {
	return dialog.RefOptions(l.c.Items(), func(r R) int64 { return r.GetID() }, l.label)
}

func (l *refLookup[R]) index(derive string) map[int64]string {
	fn, ok := l.derive[derive]
	if !ok {
		fn = l.label
	}
	return filter.Index(l.c.Items(), func(r R) int64 { return r.GetID() }, fn)
}

func (l *refLookup[R]) err() string {
	return l.c.Status(resource.OpList).Err
}

func (l *refLookup[R]) loading() bool {
	return l.c.Loading()
}

// Lookups are a screen's related collections by key.
type Lookups map[string]lookup

// Options returns select options for key, or nil if it is not loaded.
func (l Lookups) Options(key string) []filter.Option {
	if lk, ok := l[key]; ok {
		return lk.options()
	}
	return nil
}

// Index maps related ids to a derived value.
func (l Lookups) Index(key, derive string) map[int64]string {
	if lk, ok := l[key]; ok {
		return lk.index(derive)
	}
	return map[int64]string{}
}
