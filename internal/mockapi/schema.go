package mockapi

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"welfaredesk/internal/model"
)

type kind int

const (
	kindString kind = iota
	kindInt
	kindFloat
	kindBool
	kindRef
	kindDate
	kindDateTime
	kindFile
)

type field struct {
	name     string
	kind     kind
	required bool
	ref      string // target resource for kindRef
	display  string // output key receiving the referenced entity's label
	choices  []string
	autoNow  bool
}

type resourceDef struct {
	path      string
	label     string // field shown when another resource references this one
	fields    []field
	writers   []model.Role // admin is always allowed
	paginated bool
	ordering  string
	actions   map[string]actionFunc
}

func (d *resourceDef) field(name string) (field, bool) {
	for _, f := range d.fields {
		if f.name == name {
			return f, true
		}
	}
	return field{}, false
}

func (d *resourceDef) canWrite(role model.Role) bool {
	return role == model.RoleAdmin || slices.Contains(d.writers, role)
}

var (
	dialysisRoles = []model.Role{model.RoleDialysisManager}
	accountRoles  = []model.Role{model.RoleAccountant}
)

func resourceDefs() []*resourceDef {
	return []*resourceDef{
		{
			path:  "wards",
			label: "ward_name",
			fields: []field{
				{name: "ward_name", kind: kindString, required: true},
				{name: "floor", kind: kindString},
				{name: "description", kind: kindString},
			},
			writers: dialysisRoles,
		},
		{
			path:  "beds",
			label: "bed_name",
			fields: []field{
				{name: "bed_name", kind: kindString, required: true},
				{name: "ward", kind: kindRef, ref: "wards", display: "ward_name", required: true},
				{name: "is_occupied", kind: kindBool},
				{name: "notes", kind: kindString},
			},
			writers: dialysisRoles,
		},
		{
			path:  "machines",
			label: "machine_name",
			fields: []field{
				{name: "machine_name", kind: kindString, required: true},
				{name: "serial_number", kind: kindString, required: true},
				{name: "ward", kind: kindRef, ref: "wards", display: "ward_name"},
				{name: "status", kind: kindString, choices: []string{"active", "maintenance", "retired"}, required: true},
				{name: "last_maintenance", kind: kindDate},
				{name: "next_maintenance", kind: kindDate},
			},
			writers: dialysisRoles,
		},
		{
			path:  "warnings",
			label: "title",
			fields: []field{
				{name: "machine", kind: kindRef, ref: "machines", display: "machine_name", required: true},
				{name: "title", kind: kindString, required: true},
				{name: "description", kind: kindString},
				{name: "severity", kind: kindString, choices: []string{"low", "medium", "high"}, required: true},
				{name: "is_resolved", kind: kindBool},
				{name: "created_at", kind: kindDateTime, autoNow: true},
			},
			writers:  dialysisRoles,
			ordering: "-created_at",
			actions:  map[string]actionFunc{"resolve": resolveWarning},
		},
		{
			path:  "warning-fixes",
			label: "notes",
			fields: []field{
				{name: "warning", kind: kindRef, ref: "warnings", display: "warning_title", required: true},
				{name: "fixed_by", kind: kindString, required: true},
				{name: "notes", kind: kindString},
				{name: "fixed_at", kind: kindDateTime, autoNow: true},
			},
			writers:  dialysisRoles,
			ordering: "-fixed_at",
		},
		{
			path:  "donors",
			label: "name",
			fields: []field{
				{name: "name", kind: kindString, required: true},
				{name: "phone", kind: kindString},
				{name: "email", kind: kindString},
				{name: "city", kind: kindString},
				{name: "donor_type", kind: kindString, choices: []string{"individual", "organization"}, required: true},
			},
			writers: []model.Role{model.RoleAccountant, model.RoleOfficeStaff},
		},
		{
			path:  "donations",
			label: "purpose",
			fields: []field{
				{name: "donner", kind: kindRef, ref: "donors", display: "donner_name", required: true},
				{name: "amount", kind: kindFloat, required: true},
				{name: "currency", kind: kindString, choices: []string{"PKR", "USD", "EUR", "GBP"}, required: true},
				{name: "purpose", kind: kindString},
				{name: "donation_type", kind: kindString, choices: []string{"cash", "cheque", "bank_transfer", "in_kind"}, required: true},
				{name: "date", kind: kindDateTime, required: true},
				{name: "notes", kind: kindString},
			},
			writers:   accountRoles,
			paginated: true,
			ordering:  "-date",
		},
		{
			path:  "vendors",
			label: "name",
			fields: []field{
				{name: "name", kind: kindString, required: true},
				{name: "phone", kind: kindString},
				{name: "email", kind: kindString},
				{name: "category", kind: kindString},
			},
			writers: accountRoles,
		},
		{
			path:  "expenses",
			label: "description",
			fields: []field{
				{name: "vendor", kind: kindRef, ref: "vendors", display: "vendor_name"},
				{name: "category", kind: kindString, required: true},
				{name: "amount", kind: kindFloat, required: true},
				{name: "description", kind: kindString},
				{name: "date", kind: kindDate, required: true},
				{name: "receipt", kind: kindFile},
			},
			writers:  accountRoles,
			ordering: "-date",
		},
		{
			path:  "items",
			label: "name",
			fields: []field{
				{name: "name", kind: kindString, required: true},
				{name: "category", kind: kindString},
				{name: "quantity", kind: kindInt},
				{name: "unit", kind: kindString},
				{name: "description", kind: kindString},
			},
			writers: []model.Role{model.RoleOfficeStaff},
			actions: map[string]actionFunc{"add-quantity": addQuantity},
		},
		{
			path:  "appointments",
			label: "patient_name",
			fields: []field{
				{name: "patient_name", kind: kindString, required: true},
				{name: "machine", kind: kindRef, ref: "machines", display: "machine_name"},
				{name: "scheduled_at", kind: kindDateTime, required: true},
				{name: "status", kind: kindString, choices: []string{"scheduled", "completed", "cancelled"}, required: true},
				{name: "notes", kind: kindString},
			},
			writers:  []model.Role{model.RoleDialysisManager, model.RoleOfficeStaff},
			ordering: "scheduled_at",
		},
		{
			path:  "dialysis-sessions",
			label: "patient_name",
			fields: []field{
				{name: "patient_name", kind: kindString, required: true},
				{name: "machine", kind: kindRef, ref: "machines", display: "machine_name", required: true},
				{name: "session_date", kind: kindDateTime, required: true},
				{name: "duration_minutes", kind: kindInt},
				{name: "status", kind: kindString, choices: []string{"scheduled", "in_progress", "completed", "cancelled"}, required: true},
				{name: "notes", kind: kindString},
			},
			writers:  dialysisRoles,
			ordering: "-session_date",
		},
	}
}

const (
	msgRequired = "This field is required."
	dateLayout  = "2006-01-02"
)

var dateTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// coerce converts a decoded JSON or form value into the field's stored
// representation. exists reports whether a referenced id is present.
func coerce(f field, v any, exists func(resource string, id int64) bool) (any, string) {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	if v == nil || v == "" {
		if f.kind == kindBool {
			return false, ""
		}
		if f.required {
			return nil, msgRequired
		}
		if f.kind == kindString || f.kind == kindDate || f.kind == kindDateTime || f.kind == kindFile {
			return "", ""
		}
		return nil, ""
	}

	switch f.kind {
	case kindString, kindFile:
		s := fmt.Sprint(v)
		if len(f.choices) > 0 && !slices.Contains(f.choices, s) {
			return nil, fmt.Sprintf("%q is not a valid choice.", s)
		}
		return s, ""
	case kindInt:
		n, ok := toFloat(v)
		if !ok || n != math.Trunc(n) {
			return nil, "A valid integer is required."
		}
		return int64(n), ""
	case kindFloat:
		n, ok := toFloat(v)
		if !ok {
			return nil, "A valid number is required."
		}
		if n <= 0 {
			return nil, "Ensure this value is greater than 0."
		}
		return n, ""
	case kindBool:
		switch b := v.(type) {
		case bool:
			return b, ""
		case string:
			if parsed, err := strconv.ParseBool(b); err == nil {
				return parsed, ""
			}
		}
		return nil, "Must be a valid boolean."
	case kindRef:
		n, ok := toFloat(v)
		if !ok || n != math.Trunc(n) {
			return nil, "Incorrect type. Expected pk value."
		}
		id := int64(n)
		if !exists(f.ref, id) {
			return nil, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
		}
		return id, ""
	case kindDate:
		s := fmt.Sprint(v)
		if len(s) > len(dateLayout) {
			s = s[:len(dateLayout)]
		}
		if _, err := time.Parse(dateLayout, s); err != nil {
			return nil, "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
		}
		return s, ""
	case kindDateTime:
		s := fmt.Sprint(v)
		for _, layout := range dateTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format("2006-01-02T15:04:05Z07:00"), ""
			}
		}
		return nil, "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z]."
	}
	return v, ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// valueString renders a stored value the way it appears in query strings.
func valueString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}
