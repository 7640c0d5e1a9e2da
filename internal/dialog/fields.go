package dialog

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"welfaredesk/internal/api"
	"welfaredesk/internal/filter"
)

// FieldKind selects how a form value is edited and encoded.
type FieldKind int

const (
	Text FieldKind = iota
	Number
	Integer
	// Choice is a fixed set of string values.
	Choice
	// Ref is a select over related entities; the value is an id.
	Ref
	Bool
	Date
	DateTime
	File
)

// Field describes one form input.
type Field struct {
	Key      string
	Label    string
	Kind     FieldKind
	Required bool
	Options  []filter.Option
	Hint     string
}

// ErrRequired is the message for a missing required value.
const ErrRequired = "This field is required."

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

// Defaults maps an entity onto the string values a form expects: ids and
// numbers as decimal strings, dates as YYYY-MM-DD, datetimes truncated to
// YYYY-MM-DDTHH:MM and absent values as "". A nil entity yields an empty
// map. It never fails.
func Defaults[T any](fields []Field, entity *T) map[string]string {
	out := map[string]string{}
	if entity == nil {
		return out
	}
	raw := toMap(*entity)
	for _, f := range fields {
		out[f.Key] = defaultValue(f, raw[f.Key])
	}
	return out
}

func toMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

func defaultValue(f Field, v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		switch f.Kind {
		case Date:
			return truncateDate(x)
		case DateTime:
			return truncateDateTime(x)
		case File:
			return ""
		}
		return x
	default:
		return ""
	}
}

func truncateDate(s string) string {
	if t, ok := parseTime(s); ok {
		return t.Format(dateLayout)
	}
	return ""
}

func truncateDateTime(s string) string {
	if t, ok := parseTime(s); ok {
		return t.Format(dateTimeLayout)
	}
	return ""
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	dateTimeLayout,
	"2006-01-02 15:04:05",
	dateLayout,
}

// parseTime reads the value in the zone it was written in, so a stored
// 10:00Z edits as 10:00.
func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize converts form values into a request payload, returning
// per-field messages for values that cannot be sent.
func Normalize(fields []Field, values map[string]string) (api.Payload, map[string]string) {
	p := api.Payload{}
	errs := map[string]string{}
	for _, f := range fields {
		raw := strings.TrimSpace(values[f.Key])
		if raw == "" {
			switch {
			case f.Kind == Bool:
				p[f.Key] = false
			case f.Kind == File:
				p[f.Key] = api.File{}
			case f.Required:
				errs[f.Key] = ErrRequired
			case f.Kind == Text || f.Kind == Choice:
				p[f.Key] = ""
			default:
				p[f.Key] = nil
			}
			continue
		}

		switch f.Kind {
		case Number:
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				errs[f.Key] = "Enter a number."
				continue
			}
			p[f.Key] = n
		case Integer, Ref:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				errs[f.Key] = "Enter a whole number."
				continue
			}
			p[f.Key] = n
		case Bool:
			b, err := parseBool(raw)
			if err != nil {
				errs[f.Key] = "Enter yes or no."
				continue
			}
			p[f.Key] = b
		case Choice:
			if len(f.Options) > 0 && !hasOption(f.Options, raw) {
				errs[f.Key] = "Select a valid choice."
				continue
			}
			p[f.Key] = raw
		case Date:
			if _, err := time.Parse(dateLayout, raw); err != nil {
				errs[f.Key] = "Use YYYY-MM-DD."
				continue
			}
			p[f.Key] = raw
		case DateTime:
			t, ok := parseTime(raw)
			if !ok {
				errs[f.Key] = "Use YYYY-MM-DDTHH:MM."
				continue
			}
			p[f.Key] = t.Format(dateTimeLayout)
		case File:
			p[f.Key] = api.File{Path: raw}
		default:
			p[f.Key] = raw
		}
	}
	return p, errs
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func hasOption(opts []filter.Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

// FormatErrors joins local field errors in field order, the way backend
// field errors are shown.
func FormatErrors(fields []Field, errs map[string]string) string {
	var parts []string
	for _, f := range fields {
		if msg, ok := errs[f.Key]; ok {
			parts = append(parts, f.Key+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

// Choices builds options from fixed values.
func Choices(values ...string) []filter.Option {
	out := make([]filter.Option, len(values))
	for i, v := range values {
		out[i] = filter.Option{Value: v, Label: strings.ReplaceAll(v, "_", " ")}
	}
	return out
}

// RefOptions builds select options from a loaded related collection.
func RefOptions[R any](items []R, id func(R) int64, label func(R) string) []filter.Option {
	out := make([]filter.Option, 0, len(items))
	for _, item := range items {
		out = append(out, filter.Option{Value: strconv.FormatInt(id(item), 10), Label: label(item)})
	}
	return out
}

// WithOptions returns a copy of fields with key's options replaced.
func WithOptions(fields []Field, key string, opts []filter.Option) []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	for i := range out {
		if out[i].Key == key {
			out[i].Options = opts
		}
	}
	return out
}
