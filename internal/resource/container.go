// Package resource holds the per-screen state of one backend collection.
//
// A Container is owned by a bubbletea model. Dispatch methods mark the
// operation as loading and return a tea.Cmd that performs the request; the
// command's Result must be passed back to Apply from Update, which is the
// only place state changes. Because both halves run on the UI goroutine the
// container needs no locking.
package resource

import (
	"context"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"welfaredesk/internal/api"
	"welfaredesk/internal/model"
)

// Op is an operation kind with its own loading and error status.
type Op int

const (
	OpList Op = iota
	OpGet
	OpCreate
	OpUpdate
	OpDelete
	OpAction
	opCount
)

func (o Op) String() string {
	switch o {
	case OpList:
		return "list"
	case OpGet:
		return "get"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpAction:
		return "action"
	}
	return "unknown"
}

// Status is the state of one operation kind. Err holds a display message
// and survives until cleared or the operation is dispatched again.
type Status struct {
	Loading bool
	Err     string
}

// Backend is the REST collaborator for one resource. *api.Resource[T]
// satisfies it.
type Backend[T model.Entity] interface {
	Name() string
	List(ctx context.Context, q api.Query) (api.Page[T], error)
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, p api.Payload) (T, error)
	Update(ctx context.Context, id int64, p api.Payload) (T, error)
	Delete(ctx context.Context, id int64) error
	Action(ctx context.Context, id int64, action string, p api.Payload) (T, error)
}

// Placement decides where created entities go.
type Placement int

const (
	Append Placement = iota
	// Prepend keeps activity logs newest-first.
	Prepend
)

// Options configures a Container.
type Options struct {
	Placement Placement
	// MergePages merges pages after the first into the collection by id
	// instead of replacing it.
	MergePages bool
	Timeout    time.Duration
}

// Result is the message produced by a dispatched operation. Seq numbers
// dispatches of one container in order, starting at 1.
type Result[T model.Entity] struct {
	Resource string
	Op       Op
	Seq      uint64
	ID       int64
	Action   string
	Query    api.Query
	Page     api.Page[T]
	Item     T
	Err      error
}

// Failure returns the operation's error, letting callers that do not know T
// inspect it.
func (r Result[T]) Failure() error { return r.Err }

// Container holds a collection, the selected entity, an optional detail
// entity and per-operation status.
type Container[T model.Entity] struct {
	backend Backend[T]
	opts    Options

	items    []T
	selected *T
	detail   *T
	status   [opCount]Status
	pending  [opCount]int
	seq      uint64

	count    int
	hasNext  bool
	lastPage int
}

// New creates an empty container.
func New[T model.Entity](backend Backend[T], opts Options) *Container[T] {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Container[T]{backend: backend, opts: opts, items: []T{}}
}

// Name is the backend's display name.
func (c *Container[T]) Name() string {
	return c.backend.Name()
}

// Items returns a copy of the collection in display order.
func (c *Container[T]) Items() []T {
	return slices.Clone(c.items)
}

// Len is the number of entities held.
func (c *Container[T]) Len() int {
	return len(c.items)
}

// Find returns the entity with id, if held.
func (c *Container[T]) Find(id int64) (T, bool) {
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Status returns the status of op.
func (c *Container[T]) Status(op Op) Status {
	return c.status[op]
}

// Loading reports whether any operation is in flight.
func (c *Container[T]) Loading() bool {
	for _, n := range c.pending {
		if n > 0 {
			return true
		}
	}
	return false
}

// Count is the server-side total from the last paginated list, or the
// collection length for unpaginated resources.
func (c *Container[T]) Count() int {
	if c.count > len(c.items) {
		return c.count
	}
	return len(c.items)
}

// HasNext reports whether the last list said more pages exist.
func (c *Container[T]) HasNext() bool {
	return c.hasNext
}

// LastPage is the page number of the last successful list, 0 if none.
func (c *Container[T]) LastPage() int {
	return c.lastPage
}

// LastSeq is the Seq of the most recent dispatch, 0 before the first.
func (c *Container[T]) LastSeq() uint64 {
	return c.seq
}

// Select sets the entity used to seed edit forms and delete confirmations.
func (c *Container[T]) Select(item T) {
	c.selected = &item
}

// ClearSelection drops the selected entity.
func (c *Container[T]) ClearSelection() {
	c.selected = nil
}

// Selected returns the selected entity.
func (c *Container[T]) Selected() (T, bool) {
	if c.selected == nil {
		var zero T
		return zero, false
	}
	return *c.selected, true
}

// Detail returns the cached detail entity.
func (c *Container[T]) Detail() (T, bool) {
	if c.detail == nil {
		var zero T
		return zero, false
	}
	return *c.detail, true
}

// ClearErrors resets the error of every operation.
func (c *Container[T]) ClearErrors() {
	for i := range c.status {
		c.status[i].Err = ""
	}
}

// ClearError resets one operation's error.
func (c *Container[T]) ClearError(op Op) {
	c.status[op].Err = ""
}

func (c *Container[T]) begin(op Op) {
	c.pending[op]++
	c.status[op] = Status{Loading: true}
}

func (c *Container[T]) finish(op Op, err error) bool {
	if c.pending[op] > 0 {
		c.pending[op]--
	}
	c.status[op].Loading = c.pending[op] > 0
	if err != nil {
		c.status[op].Err = api.Message(err, c.fallback(op))
		return false
	}
	c.status[op].Err = ""
	return true
}

func (c *Container[T]) fallback(op Op) string {
	name := strings.ToLower(c.backend.Name())
	switch op {
	case OpList:
		return "Failed to load " + name + " list"
	case OpGet:
		return "Failed to load " + name
	case OpCreate:
		return "Failed to create " + name
	case OpUpdate, OpAction:
		return "Failed to update " + name
	case OpDelete:
		return "Failed to delete " + name
	}
	return api.GenericMessage
}

func (c *Container[T]) run(op Op, fn func(ctx context.Context) Result[T]) tea.Cmd {
	c.seq++
	seq := c.seq
	timeout := c.opts.Timeout
	name := c.backend.Name()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		r := fn(ctx)
		r.Resource = name
		r.Op = op
		r.Seq = seq
		return r
	}
}

// List fetches the collection.
func (c *Container[T]) List(q api.Query) tea.Cmd {
	c.begin(OpList)
	b := c.backend
	return c.run(OpList, func(ctx context.Context) Result[T] {
		page, err := b.List(ctx, q)
		return Result[T]{Query: q, Page: page, Err: err}
	})
}

// Get fetches one entity into the detail cache.
func (c *Container[T]) Get(id int64) tea.Cmd {
	c.begin(OpGet)
	b := c.backend
	return c.run(OpGet, func(ctx context.Context) Result[T] {
		item, err := b.Get(ctx, id)
		return Result[T]{ID: id, Item: item, Err: err}
	})
}

// Create posts a new entity.
func (c *Container[T]) Create(p api.Payload) tea.Cmd {
	c.begin(OpCreate)
	b := c.backend
	return c.run(OpCreate, func(ctx context.Context) Result[T] {
		item, err := b.Create(ctx, p)
		return Result[T]{ID: item.GetID(), Item: item, Err: err}
	})
}

// Update patches an entity.
func (c *Container[T]) Update(id int64, p api.Payload) tea.Cmd {
	c.begin(OpUpdate)
	b := c.backend
	return c.run(OpUpdate, func(ctx context.Context) Result[T] {
		item, err := b.Update(ctx, id, p)
		return Result[T]{ID: id, Item: item, Err: err}
	})
}

// Delete removes an entity.
func (c *Container[T]) Delete(id int64) tea.Cmd {
	c.begin(OpDelete)
	b := c.backend
	return c.run(OpDelete, func(ctx context.Context) Result[T] {
		return Result[T]{ID: id, Err: b.Delete(ctx, id)}
	})
}

// Action posts to a named action endpoint; the returned entity is applied
// like an update.
func (c *Container[T]) Action(id int64, action string, p api.Payload) tea.Cmd {
	c.begin(OpAction)
	b := c.backend
	return c.run(OpAction, func(ctx context.Context) Result[T] {
		item, err := b.Action(ctx, id, action, p)
		return Result[T]{ID: id, Action: action, Item: item, Err: err}
	})
}

// Apply reconciles a finished operation and reports whether it succeeded.
// Failures never change the collection.
func (c *Container[T]) Apply(r Result[T]) bool {
	if !c.finish(r.Op, r.Err) {
		return false
	}

	switch r.Op {
	case OpList:
		c.applyList(r)
	case OpGet:
		item := r.Item
		c.detail = &item
	case OpCreate:
		c.insert(r.Item)
	case OpUpdate, OpAction:
		c.replace(r.Item)
	case OpDelete:
		c.remove(r.ID)
	}
	return true
}

func (c *Container[T]) applyList(r Result[T]) {
	results := r.Page.Results
	if results == nil {
		results = []T{}
	}

	if c.opts.MergePages && r.Query.Page > 1 {
		for _, item := range results {
			if i := c.index(item.GetID()); i >= 0 {
				c.items[i] = item
			} else {
				c.items = append(c.items, item)
			}
		}
	} else {
		c.items = dedupe(results)
	}

	c.count = r.Page.Count
	c.hasNext = r.Page.HasNext()
	c.lastPage = max(r.Query.Page, 1)
}

func (c *Container[T]) insert(item T) {
	if i := c.index(item.GetID()); i >= 0 {
		c.items[i] = item
		return
	}
	if c.opts.Placement == Prepend {
		c.items = append([]T{item}, c.items...)
	} else {
		c.items = append(c.items, item)
	}
	if c.count > 0 {
		c.count++
	}
}

// replace swaps the entity with the same id and refreshes the selection and
// detail cache. Entities not in the collection are not added.
func (c *Container[T]) replace(item T) {
	id := item.GetID()
	if i := c.index(id); i >= 0 {
		c.items[i] = item
	}
	if c.selected != nil && (*c.selected).GetID() == id {
		c.selected = &item
	}
	if c.detail != nil && (*c.detail).GetID() == id {
		c.detail = &item
	}
}

func (c *Container[T]) remove(id int64) {
	if i := c.index(id); i >= 0 {
		c.items = slices.Delete(c.items, i, i+1)
		if c.count > 0 {
			c.count--
		}
	}
	if c.selected != nil && (*c.selected).GetID() == id {
		c.selected = nil
	}
	if c.detail != nil && (*c.detail).GetID() == id {
		c.detail = nil
	}
}

func (c *Container[T]) index(id int64) int {
	return slices.IndexFunc(c.items, func(item T) bool { return item.GetID() == id })
}

// dedupe keeps the first occurrence of each id.
func dedupe[T model.Entity](items []T) []T {
	seen := make(map[int64]bool, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if seen[item.GetID()] {
			continue
		}
		seen[item.GetID()] = true
		out = append(out, item)
	}
	return out
}
