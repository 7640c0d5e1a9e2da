package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// Resource is the REST client for one collection endpoint.
type Resource[T any] struct {
	client *Client
	path   string
	name   string
}

// NewResource binds a collection path such as "beds" to a client. name is
// the singular display name used in "<name> not found" messages.
func NewResource[T any](c *Client, path, name string) *Resource[T] {
	return &Resource[T]{client: c, path: path, name: name}
}

// Name is the resource's display name.
func (r *Resource[T]) Name() string {
	return r.name
}

// Path is the collection path relative to the API base.
func (r *Resource[T]) Path() string {
	return r.path
}

func (r *Resource[T]) collectionPath() string {
	return r.path + "/"
}

func (r *Resource[T]) itemPath(id int64) string {
	return r.path + "/" + strconv.FormatInt(id, 10) + "/"
}

// List fetches one page, accepting either a bare array or a paginated
// envelope.
func (r *Resource[T]) List(ctx context.Context, q Query) (Page[T], error) {
	var raw json.RawMessage
	if err := r.client.Do(ctx, http.MethodGet, r.collectionPath(), q.Values(), nil, &raw); err != nil {
		return Page[T]{}, err
	}
	return decodePage[T](raw)
}

func decodePage[T any](raw json.RawMessage) (Page[T], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Page[T]{Results: []T{}}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page[T]{}, fmt.Errorf("JSON decode error: %w", err)
		}
		return Page[T]{Count: len(items), Results: items}, nil
	}

	var page Page[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return Page[T]{}, fmt.Errorf("JSON decode error: %w", err)
	}
	if page.Results == nil {
		page.Results = []T{}
	}
	page.Paginated = true
	return page, nil
}

// Get fetches one entity.
func (r *Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	err := r.client.Do(ctx, http.MethodGet, r.itemPath(id), nil, nil, &out)
	return out, r.wrap(err)
}

// Create posts a new entity and returns the stored version.
func (r *Resource[T]) Create(ctx context.Context, p Payload) (T, error) {
	var out T
	err := r.client.Do(ctx, http.MethodPost, r.collectionPath(), nil, p, &out)
	return out, r.wrap(err)
}

// Update patches an entity and returns the stored version.
func (r *Resource[T]) Update(ctx context.Context, id int64, p Payload) (T, error) {
	var out T
	err := r.client.Do(ctx, http.MethodPatch, r.itemPath(id), nil, p, &out)
	return out, r.wrap(err)
}

// Delete removes an entity.
func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.wrap(r.client.Do(ctx, http.MethodDelete, r.itemPath(id), nil, nil, nil))
}

// Action posts to a named action endpoint such as "resolve" and returns the
// updated entity.
func (r *Resource[T]) Action(ctx context.Context, id int64, action string, p Payload) (T, error) {
	var out T
	err := r.client.Do(ctx, http.MethodPost, r.itemPath(id)+action+"/", nil, p, &out)
	return out, r.wrap(err)
}

// wrap gives 404s the resource's own message.
func (r *Resource[T]) wrap(err error) error {
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*Error); ok && apiErr.NotFound() {
		return &Error{Status: apiErr.Status, Payload: apiErr.Payload, Message: r.name + " not found"}
	}
	return err
}
