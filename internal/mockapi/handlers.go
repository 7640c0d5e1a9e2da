package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"welfaredesk/internal/db"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxUploadSize   = 10 << 20
)

type defKey struct{}

// actionFunc applies a named action to a stored record and returns the
// patch to save, or field errors.
type actionFunc func(s *Server, rec db.Record, body map[string]any) (map[string]any, map[string][]string, error)

func (s *Server) resourceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		def, ok := s.defs[chi.URLParam(r, "resource")]
		if !ok {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		if r.Method != http.MethodGet && !def.canWrite(currentUser(r).Role) {
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		ctx := context.WithValue(r.Context(), defKey{}, def)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func resourceFrom(r *http.Request) *resourceDef {
	return r.Context().Value(defKey{}).(*resourceDef)
}

func (s *Server) recordFromURL(w http.ResponseWriter, r *http.Request) (db.Record, bool) {
	def := resourceFrom(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return db.Record{}, false
	}
	rec, err := db.GetRecord(s.db, def.path, id)
	if errors.Is(err, db.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "No "+strings.TrimSuffix(def.path, "s")+" matches the given query.")
		return db.Record{}, false
	}
	if err != nil {
		s.serverError(w, "failed to load record", err)
		return db.Record{}, false
	}
	return rec, true
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	def := resourceFrom(r)
	records, err := db.ListRecords(s.db, def.path)
	if err != nil {
		s.serverError(w, "failed to list records", err)
		return
	}

	q := r.URL.Query()
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		row := s.render(def, rec)
		if matchesQuery(def, row, q) {
			rows = append(rows, row)
		}
	}

	ordering := q.Get("ordering")
	if ordering == "" {
		ordering = def.ordering
	}
	sortRows(rows, ordering)

	if !def.paginated && q.Get("page") == "" && q.Get("page_size") == "" {
		writeJSON(w, http.StatusOK, rows)
		return
	}

	page, size := 1, defaultPageSize
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 {
		size = min(v, maxPageSize)
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeDetail(w, http.StatusNotFound, "Invalid page.")
			return
		}
		page = n
	}
	start := (page - 1) * size
	if start > 0 && start >= len(rows) {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	end := min(start+size, len(rows))

	var next, previous any
	if end < len(rows) {
		next = pageURL(r, page+1)
	}
	if page > 1 {
		previous = pageURL(r, page-1)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(rows),
		"next":     next,
		"previous": previous,
		"results":  rows[start:end],
	})
}

func pageURL(r *http.Request, page int) string {
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path}
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// matchesQuery applies exact-match filters for every query key naming a
// field of the resource.
func matchesQuery(def *resourceDef, row map[string]any, q url.Values) bool {
	for key, vals := range q {
		if _, ok := def.field(key); !ok || len(vals) == 0 || vals[0] == "" {
			continue
		}
		if valueString(row[key]) != vals[0] {
			return false
		}
	}
	return true
}

func sortRows(rows []map[string]any, ordering string) {
	if ordering == "" {
		return
	}
	desc := strings.HasPrefix(ordering, "-")
	key := strings.TrimPrefix(ordering, "-")
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][key], rows[j][key]
		if desc {
			a, b = b, a
		}
		af, aNum := toFloat(a)
		bf, bNum := toFloat(b)
		if _, isStr := a.(string); !isStr && aNum && bNum {
			return af < bf
		}
		return valueString(a) < valueString(b)
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.recordFromURL(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.render(resourceFrom(r), rec))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	def := resourceFrom(r)
	body, err := s.decodeBody(r, def)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	data, fieldErrs := s.validate(def, body, false)
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, fieldErrs)
		return
	}

	rec, err := db.InsertRecord(s.db, def.path, data)
	if err != nil {
		s.serverError(w, "failed to create record", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.render(def, rec))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	def := resourceFrom(r)
	rec, ok := s.recordFromURL(w, r)
	if !ok {
		return
	}
	body, err := s.decodeBody(r, def)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	patch, fieldErrs := s.validate(def, body, r.Method == http.MethodPatch)
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, fieldErrs)
		return
	}

	rec, err = db.UpdateRecord(s.db, def.path, rec.ID, patch)
	if err != nil {
		s.serverError(w, "failed to update record", err)
		return
	}
	writeJSON(w, http.StatusOK, s.render(def, rec))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	def := resourceFrom(r)
	rec, ok := s.recordFromURL(w, r)
	if !ok {
		return
	}
	if err := db.DeleteRecord(s.db, def.path, rec.ID); err != nil {
		s.serverError(w, "failed to delete record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	def := resourceFrom(r)
	action, ok := def.actions[chi.URLParam(r, "action")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	rec, ok := s.recordFromURL(w, r)
	if !ok {
		return
	}
	body, err := s.decodeBody(r, def)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	patch, fieldErrs, err := action(s, rec, body)
	if err != nil {
		s.serverError(w, "action failed", err)
		return
	}
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, fieldErrs)
		return
	}

	rec, err = db.UpdateRecord(s.db, def.path, rec.ID, patch)
	if err != nil {
		s.serverError(w, "failed to update record", err)
		return
	}
	writeJSON(w, http.StatusOK, s.render(def, rec))
}

// decodeBody reads a JSON or multipart body into a plain map. Uploaded files
// are recorded as media paths.
func (s *Server) decodeBody(r *http.Request, def *resourceDef) (map[string]any, error) {
	body := map[string]any{}
	if r.ContentLength == 0 {
		return body, nil
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, fmt.Errorf("Multipart form parse error - %v", err)
		}
		for k, vals := range r.MultipartForm.Value {
			if len(vals) > 0 {
				body[k] = vals[0]
			}
		}
		for k, files := range r.MultipartForm.File {
			if len(files) > 0 {
				body[k] = path.Join("/media", def.path, files[0].Filename)
			}
		}
		return body, nil
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("JSON parse error - %v", err)
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

// validate coerces every known field. partial skips required checks for
// absent fields.
func (s *Server) validate(def *resourceDef, body map[string]any, partial bool) (map[string]any, map[string][]string) {
	out := map[string]any{}
	fieldErrs := map[string][]string{}
	for _, f := range def.fields {
		v, present := body[f.name]
		if !present {
			if partial {
				continue
			}
			if f.autoNow {
				out[f.name] = s.now().UTC().Format("2006-01-02T15:04:05Z07:00")
				continue
			}
		}
		if f.kind == kindFile && v == "" {
			// An empty upload field keeps the stored file.
			continue
		}
		coerced, msg := coerce(f, v, s.exists)
		if msg != "" {
			fieldErrs[f.name] = append(fieldErrs[f.name], msg)
			continue
		}
		out[f.name] = coerced
	}
	return out, fieldErrs
}

func (s *Server) exists(resource string, id int64) bool {
	_, err := db.GetRecord(s.db, resource, id)
	return err == nil
}

// render returns the record as the API shows it, with labels of referenced
// records filled in.
func (s *Server) render(def *resourceDef, rec db.Record) map[string]any {
	row := rec.Fields()
	for _, f := range def.fields {
		if f.kind != kindRef || f.display == "" {
			continue
		}
		row[f.display] = ""
		id, ok := toFloat(row[f.name])
		if !ok {
			continue
		}
		target := s.defs[f.ref]
		if ref, err := db.GetRecord(s.db, f.ref, int64(id)); err == nil && target != nil {
			row[f.display] = valueString(ref.Data[target.label])
		}
	}
	return row
}

func resolveWarning(s *Server, rec db.Record, body map[string]any) (map[string]any, map[string][]string, error) {
	if resolved, _ := rec.Data["is_resolved"].(bool); resolved {
		return nil, map[string][]string{"non_field_errors": {"Warning is already resolved."}}, nil
	}

	fixedBy, _ := body["fixed_by"].(string)
	if strings.TrimSpace(fixedBy) != "" {
		notes, _ := body["notes"].(string)
		fix := map[string]any{
			"warning":  rec.ID,
			"fixed_by": strings.TrimSpace(fixedBy),
			"notes":    notes,
			"fixed_at": s.now().UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
		if _, err := db.InsertRecord(s.db, "warning-fixes", fix); err != nil {
			return nil, nil, err
		}
	}
	return map[string]any{"is_resolved": true}, nil, nil
}

func addQuantity(_ *Server, rec db.Record, body map[string]any) (map[string]any, map[string][]string, error) {
	raw, present := body["quantity"]
	if !present || raw == nil || raw == "" {
		return nil, map[string][]string{"quantity": {msgRequired}}, nil
	}
	n, ok := toFloat(raw)
	if !ok || n != float64(int64(n)) {
		return nil, map[string][]string{"quantity": {"A valid integer is required."}}, nil
	}
	if n <= 0 {
		return nil, map[string][]string{"quantity": {"Ensure this value is greater than 0."}}, nil
	}
	current, _ := toFloat(rec.Data["quantity"])
	return map[string]any{"quantity": int64(current) + int64(n)}, nil, nil
}
