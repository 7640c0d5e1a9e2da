package ui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"

	"welfaredesk/internal/dialog"
	"welfaredesk/internal/filter"
	"welfaredesk/internal/model"
	"welfaredesk/internal/resource"
	"welfaredesk/internal/table"
	"welfaredesk/internal/util"
)

var (
	dialysisWriters = []model.Role{model.RoleDialysisManager}
	accountWriters  = []model.Role{model.RoleAccountant}
)

func criterion[T model.Entity](key, label string, kind filter.Kind, value func(T) string) Criterion[T] {
	return Criterion[T]{Criterion: filter.Criterion[T]{Key: key, Label: label, Kind: kind, Value: value}}
}

// choices attaches a fixed option list.
func (c Criterion[T]) choices(values ...string) Criterion[T] {
	opts := dialog.Choices(values...)
	c.Options = func([]T, Lookups) []filter.Option { return opts }
	return c
}

// ref attaches the options of a lookup.
func (c Criterion[T]) ref(lookup string) Criterion[T] {
	c.Options = func(_ []T, l Lookups) []filter.Option { return l.Options(lookup) }
	return c
}

// distinct offers the values present in the loaded collection.
func (c Criterion[T]) distinct() Criterion[T] {
	value := c.Value
	c.Options = func(items []T, _ Lookups) []filter.Option { return filter.DistinctOptions(items, value) }
	return c
}

func id(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

func optionalID(v *int64) string {
	if v == nil {
		return ""
	}
	return id(*v)
}

func amount(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func textCol[T any](key, header string, width int, value func(T) string) table.Column[T] {
	return table.Column[T]{Key: key, Header: header, Width: width, Sortable: true, Value: value}
}

func dateCol[T any](key, header string, width int, value func(T) string, format func(string) string) table.Column[T] {
	return table.Column[T]{
		Key: key, Header: header, Width: width, Sortable: true, Value: value,
		Render: func(row T) string { return format(value(row)) },
	}
}

func wardLookup(d Deps) *refLookup[model.Ward] {
	return newLookup(d, "wards", "Ward", func(w model.Ward) string { return w.WardName })
}

func machineLookup(d Deps) *refLookup[model.Machine] {
	return newLookup(d, "machines", "Machine", func(m model.Machine) string { return m.MachineName })
}

func wardsDescriptor() Descriptor[model.Ward] {
	return Descriptor[model.Ward]{
		Route: "/dialysis/wards", Title: "Wards", Path: "wards", Name: "Ward", Noun: "wards",
		Writers: dialysisWriters,
		Columns: []table.Column[model.Ward]{
			textCol("ward_name", "Ward", 24, func(w model.Ward) string { return w.WardName }),
			textCol("floor", "Floor", 10, func(w model.Ward) string { return w.Floor }),
			textCol("description", "Description", 40, func(w model.Ward) string { return w.Description }),
		},
		DefaultSort: "ward_name",
		Search: []func(model.Ward) string{
			func(w model.Ward) string { return w.WardName },
			func(w model.Ward) string { return w.Description },
		},
		Criteria: []Criterion[model.Ward]{
			criterion("floor", "Floor", filter.Exact, func(w model.Ward) string { return w.Floor }).distinct(),
		},
		Fields: func(Lookups) []dialog.Field {
			return []dialog.Field{
				{Key: "ward_name", Label: "Name", Kind: dialog.Text, Required: true},
				{Key: "floor", Label: "Floor", Kind: dialog.Text},
				{Key: "description", Label: "Description", Kind: dialog.Text},
			}
		},
		Label: func(w model.Ward) string { return w.WardName },
	}
}

func bedsDescriptor() Descriptor[model.Bed] {
	return Descriptor[model.Bed]{
		Route: "/dialysis/beds", Title: "Beds", Path: "beds", Name: "Bed", Noun: "beds",
		Writers: dialysisWriters,
		Columns: []table.Column[model.Bed]{
			textCol("bed_name", "Bed", 16, func(b model.Bed) string { return b.BedName }),
			textCol("ward_name", "Ward", 20, func(b model.Bed) string { return b.WardName }),
			{
				Key: "is_occupied", Header: "Occupied", Width: 10, Sortable: true,
				Value:  func(b model.Bed) string { return strconv.FormatBool(b.IsOccupied) },
				Render: func(b model.Bed) string { return util.FormatBool(b.IsOccupied) },
			},
			textCol("notes", "Notes", 36, func(b model.Bed) string { return b.Notes }),
		},
		DefaultSort: "bed_name",
		Search: []func(model.Bed) string{
			func(b model.Bed) string { return b.BedName },
			func(b model.Bed) string { return b.WardName },
			func(b model.Bed) string { return b.Notes },
		},
		Criteria: []Criterion[model.Bed]{
			criterion("ward", "Ward", filter.Exact, func(b model.Bed) string { return id(b.Ward) }).ref("wards"),
			criterion("is_occupied", "Occupied", filter.Exact, func(b model.Bed) string { return strconv.FormatBool(b.IsOccupied) }).choices("true", "false"),
		},
		Fields: func(l Lookups) []dialog.Field {
			return []dialog.Field{
				{Key: "bed_name", Label: "Name", Kind: dialog.Text, Required: true},
				{Key: "ward", Label: "Ward", Kind: dialog.Ref, Required: true, Options: l.Options("wards")},
				{Key: "is_occupied", Label: "Occupied", Kind: dialog.Bool},
				{Key: "notes", Label: "Notes", Kind: dialog.Text},
			}
		},
		Label:   func(b model.Bed) string { return b.BedName },
		Lookups: func(d Deps) Lookups { return Lookups{"wards": wardLookup(d)} },
	}
}

var machineStatuses = []string{"active", "maintenance", "retired"}

func machinesDescriptor() Descriptor[model.Machine] {
	return Descriptor[model.Machine]{
		Route: "/dialysis/machines", Title: "Machines", Path: "machines", Name: "Machine", Noun: "machines",
		Writers: dialysisWriters,
		Columns: []table.Column[model.Machine]{
			textCol("machine_name", "Machine", 18, func(m model.Machine) string { return m.MachineName }),
			textCol("serial_number", "Serial", 14, func(m model.Machine) string { return m.SerialNumber }),
			{
				Key: "ward_name", Header: "Ward", Width: 16, Sortable: true,
				Value:  func(m model.Machine) string { return m.WardName },
				Render: func(m model.Machine) string { return util.FormatOptionalID(m.Ward, m.WardName) },
			},
			{
				Key: "status", Header: "Status", Width: 12, Sortable: true,
				Value:  func(m model.Machine) string { return m.Status },
				Render: func(m model.Machine) string { return util.Humanize(m.Status) },
			},
			dateCol("last_maintenance", "Last service", 14, func(m model.Machine) string { return m.LastMaintenance }, util.FormatDate),
			dateCol("next_maintenance", "Next service", 14, func(m model.Machine) string { return m.NextMaintenance }, util.FormatDate),
		},
		DefaultSort: "machine_name",
		Search: []func(model.Machine) string{
			func(m model.Machine) string { return m.MachineName },
			func(m model.Machine) string { return m.SerialNumber },
		},
		Criteria: []Criterion[model.Machine]{
			criterion("ward", "Ward", filter.Exact, func(m model.Machine) string { return optionalID(m.Ward) }).ref("wards"),
			criterion("status", "Status", filter.Exact, func(m model.Machine) string { return m.Status }).choices(machineStatuses...),
			criterion("next_maintenance", "Next service", filter.DateEquals, func(m model.Machine) string { return m.NextMaintenance }),
		},
		Fields: func(l Lookups) []dialog.Field {
			return []dialog.Field{
				{Key: "machine_name", Label: "Name", Kind: dialog.Text, Required: true},
				{Key: "serial_number", Label: "Serial number", Kind: dialog.Text, Required: true},
				{Key: "ward", Label: "Ward", Kind: dialog.Ref, Options: l.Options("wards")},
				{Key: "status", Label: "Status", Kind: dialog.Choice, Required: true, Options: dialog.Choices(machineStatuses...)},
				{Key: "last_maintenance", Label: "Last service", Kind: dialog.Date},
				{Key: "next_maintenance", Label: "Next service", Kind: dialog.Date},
			}
		},
		Label:   func(m model.Machine) string { return m.MachineName },
		Lookups: func(d Deps) Lookups { return Lookups{"wards": wardLookup(d)} },
	}
}

var severities = []string{"low", "medium", "high"}

func warningsDescriptor() Descriptor[model.Warning] {
	return Descriptor[model.Warning]{
		Route: "/dialysis/warnings", Title: "Warnings", Path: "warnings", Name: "Warning", Noun: "warnings",
		Writers: dialysisWriters,
		Columns: []table.Column[model.Warning]{
			textCol("title", "Title", 26, func(w model.Warning) string { return w.Title }),
			textCol("machine_name", "Machine", 16, func(w model.Warning) string { return w.MachineName }),
			{
				Key: "severity", Header: "Severity", Width: 10, Sortable: true,
				Value:  func(w model.Warning) string { return w.Severity },
				Render: func(w model.Warning) string { return util.Humanize(w.Severity) },
			},
			{
				Key: "is_resolved", Header: "Resolved", Width: 10, Sortable: true,
				Value:  func(w model.Warning) string { return strconv.FormatBool(w.IsResolved) },
				Render: func(w model.Warning) string { return util.FormatBool(w.IsResolved) },
			},
			dateCol("created_at", "Reported", 18, func(w model.Warning) string { return w.CreatedAt }, util.FormatDateTime),
		},
		DefaultSort: "created_at",
		DefaultDesc: true,
		Search: []func(model.Warning) string{
			func(w model.Warning) string { return w.Title },
			func(w model.Warning) string { return w.Description },
			func(w model.Warning) string { return w.MachineName },
		},
		Criteria: []Criterion[model.Warning]{
			criterion("machine", "Machine", filter.Exact, func(w model.Warning) string { return id(w.Machine) }).ref("machines"),
			criterion("severity", "Severity", filter.Exact, func(w model.Warning) string { return w.Severity }).choices(severities...),
			criterion("is_resolved", "Resolved", filter.Exact, func(w model.Warning) string { return strconv.FormatBool(w.IsResolved) }).choices("true", "false"),
		},
		Fields: func(l Lookups) []dialog.Field {
			return []dialog.Field{
				{Key: "machine", Label: "Machine", Kind: dialog.Ref, Required: true, Options: l.Options("machines")},
				{Key: "title", Label: "Title", Kind: dialog.Text, Required: true},
				{Key: "description", Label: "Description", Kind: dialog.Text},
				{Key: "severity", Label: "Severity", Kind: dialog.Choice, Required: true, Options: dialog.Choices(severities...)},
			}
		},
		Actions: []RowAction[model.Warning]{{
			Binding: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "resolve")),
			Action:  "resolve",
			Title:   "Resolve warning",
			Fields: []dialog.Field{
				{Key: "fixed_by", Label: "Fixed by", Kind: dialog.Text, Hint: "leave empty to skip the fix record"},
				{Key: "notes", Label: "Notes", Kind: dialog.Text},
			},
			When: func(w model.Warning) bool { return !w.IsResolved },
			Done: "Warning resolved",
		}},
		Label:     func(w model.Warning) string { return w.Title },
		Placement: resource.Prepend,
		Lookups:   func(d Deps) Lookups { return Lookups{"machines": machineLookup(d)} },
	}
}

func warningFixesDescriptor() Descriptor[model.WarningFix] {
	return Descriptor[model.WarningFix]{
		Route: "/dialysis/warning-fixes", Title: "Warning fixes", Path: "warning-fixes", Name: "Warning fix", Noun: "fixes",
		Writers: dialysisWriters,
		Columns: []table.Column[model.WarningFix]{
			textCol("warning_title", "Warning", 26, func(f model.WarningFix) string { return f.WarningTitle }),
			textCol("fixed_by", "Fixed by", 18, func(f model.WarningFix) string { return f.FixedBy }),
			textCol("notes", "Notes", 30, func(f model.WarningFix) string { return f.Notes }),
			dateCol("fixed_at", "Fixed", 18, func(f model.WarningFix) string { return f.FixedAt }, util.FormatDateTime),
		},
		DefaultSort: "fixed_at",
		DefaultDesc: true,
		Search: []func(model.WarningFix) string{
			func(f model.WarningFix) string { return f.WarningTitle },
			func(f model.WarningFix) string { return f.FixedBy },
			func(f model.WarningFix) string { return f.Notes },
		},
		Criteria: []Criterion[model.WarningFix]{
			{
				Criterion: filter.Criterion[model.WarningFix]{Key: "machine", Label: "Machine", Kind: filter.Related},
				Derive: func(l Lookups) func(model.WarningFix) string {
					return filter.RelatedValue(func(f model.WarningFix) int64 { return f.Warning }, l.Index("warnings", "machine"))
				},
				Options: func(_ []model.WarningFix, l Lookups) []filter.Option { return l.Options("machines") },
			},
			criterion("fixed_at", "Fixed on", filter.DateEquals, func(f model.WarningFix) string { return f.FixedAt }),
		},
		Fields: func(l Lookups) []dialog.Field {
			return []dialog.Field{
				{Key: "warning", Label: "Warning", Kind: dialog.Ref, Required: true, Options: l.Options("warnings")},
				{Key: "fixed_by", Label: "Fixed by", Kind: dialog.Text, Required: true},
				{Key: "notes", Label: "Notes", Kind: dialog.Text},
			}
		},
		Label:      func(f model.WarningFix) string { return f.WarningTitle + " (" + f.FixedBy + ")" },
		Placement:  resource.Prepend,
		MergePages: true,
		PageSize:   50,
		Ordering:   "-fixed_at",
		Lookups: func(d Deps) Lookups {
			warnings := newLookup(d, "warnings", "Warning", func(w model.Warning) string { return w.Title }).
				with("machine", func(w model.Warning) string { return id(w.Machine) })
			return Lookups{"warnings": warnings, "machines": machineLookup(d)}
		},
	}
}

var donorTypes = []string{"individual", "organization"}

func donorsDescriptor() Descriptor[model.Donor] {
	return Descriptor[model.Donor]{
		Route: "/donations/donors", Title: "Donors", Path: "donors", Name: "Donor", Noun: "donors",
		Writers: []model.Role{model.RoleAccountant, model.RoleOfficeStaff},
		Columns: []table.Column[model.Donor]{
			textCol("name", "Name", 24, func(d model.Donor) string { return d.Name }),
			{
				Key: "donor_type", Header: "Type", Width: 14, Sortable: true,
				Value:  func(d model.Donor) string { return d.DonorType },
				Render: func(d model.Donor) string { return util.Humanize(d.DonorType) },
			},
			textCol("phone", "Phone", 16, func(d model.Donor) string { return d.Phone }),
			textCol("email", "Email", 26, func(d model.Donor) string { return d.Email }),
			textCol("city", "City", 14, func(d model.Donor) string { return d.City }),
		},
		DefaultSort: "name",
		Search: []func(model.Donor) string{
			func(d model.Donor) string { return d.Name },
			func(d model.Donor) string { return d.Email },
			func(d model.Donor) string { return d.Phone },
		},
		Criteria: []Criterion[model.Donor]{
			criterion("donor_type", "Type", filter.Exact, func(d model.Donor) string { return d.DonorType }).choices(donorTypes...),
			criterion("city", "City", filter.Contains, func(d model.Donor) string { return d.City }),
		},
		Fields: func(Lookups) []dialog.Field {
			return []dialog.Field{
				{Key: "name", Label: "Name", Kind: dialog.Text, Required: true},
				{Key: "donor_type", Label: "Type", Kind: dialog.Choice, Required: true, Options: dialog.Choices(donorTypes...)},
				{Key: "phone", Label: "Phone", Kind: dialog.Text},
				{Key: "email", Label: "Email", Kind: dialog.Text},
				{Key: "city", Label: "City", Kind: dialog.Text},
			}
		},
		Label: func(d model.Donor) string { return d.Name },
	}
}

var (
	currencies    = []string{"PKR", "USD", "EUR", "GBP"}
	donationTypes = []string{"cash", "cheque", "bank_transfer", "in_kind"}
)

func donationsDescriptor() Descriptor[model.Donation] {
	return Descriptor[model.Donation]{
		Route: "/donations/donations", Title: "Donations", Path: "donations", Name: "Donation", Noun: "donations",
		Writers: accountWriters,
		Columns: []table.Column[model.Donation]{
			dateCol("date", "Date", 18, func(d model.Donation) string { return d.Date }, util.FormatDateTime),
			textCol("donner_name", "Donor", 22, func(d model.Donation) string { return d.DonnerName }),
			{
				Key: "amount", Header: "Amount", Width: 14, Sortable: true,
				Value:  func(d model.Donation) string { return amount(d.Amount) },
				Render: func(d model.Donation) string { return util.FormatAmount(d.Amount, d.Currency) },
			},
			{
				Key: "donation_type", Header: "Type", Width: 14, Sortable: true,
				Value:  func(d model.Donation) string { return d.DonationType },
				Render: func(d model.Donation) string { return util.Humanize(d.DonationType) },
			},
			textCol("purpose", "Purpose", 24, func(d model.Donation) string { return d.Purpose }),
		},
		DefaultSort: "date",
		DefaultDesc: true,
		Search: []func(model.Donation) string{
			func(d model.Donation) string { return d.DonnerName },
			func(d model.Donation) string { return d.Purpose },
			func(d model.Donation) string { return d.Notes },
		},
		Criteria: []Criterion[model.Donation]{
			criterion("donner", "Donor", filter.Exact, func(d model.Donation) string { return id(d.Donner) }).ref("donors"),
			criterion("currency", "Currency", filter.Exact, func(d model.Donation) string { return d.Currency }).choices(currencies...),
			criterion("donation_type", "Type", filter.Exact, func(d model.Donation) string { return d.DonationType }).choices(donationTypes...),
			criterion("date", "Date", filter.DateEquals, func(d model.Donation) string { return d.Date }),
		},
		Fields: func(l Lookups) []dialog.Field {
			return []dialog.Field{
				{Key: "donner", Label: "Donor", Kind: dialog.Ref, Required: true, Options: l.Options("donors")},
				{Key: "amount", Label: "Amount", Kind: dialog.Number, Required: true},
				{Key: "currency", Label: "Currency", Kind: dialog.Choice, Required: true, Options: dialog.Choices(currencies...)},
				{Key: "donation_type", Label: "Type", Kind: dialog.Choice, Required: true, Options: dialog.Choices(donationTypes...)},
				{Key: "date", Label: "Date", Kind: dialog.DateTime, Required: true},
				{Key: "purpose", Label: "Purpose", Kind: dialog.Text},
				{Key: "notes", Label: "Notes", Kind: dialog.Text},
			}
		},
		Label:     func(d model.Donation) string { return util.FormatAmount(d.Amount, d.Currency) + " from " + d.DonnerName },
		Placement: resource.Prepend,
		Paging:    table.ExternalPaging,
		Ordering:  "-date",
		Lookups: func(d Deps) Lookups {
			return Lookups{"donors": newLookup(d, "donors", "Donor", func(x model.Donor) string { return x.Name })}
		},
	}
}

func vendorsDescriptor() Descriptor[model.Vendor] {
	return Descriptor[model.Vendor]{
		Route: "/accounts/vendors", Title: "Vendors", Path: "vendors", Name: "Vendor", Noun: "vendors",
		Writers: accountWriters,
		Columns: []table.Column[model.Vendor]{
			textCol("name", "Name", 24, func(v model.Vendor) string { return v.Name }),
			textCol("category", "Category", 16, func(v model.Vendor) string { return v.Category }),
			textCol("phone", "Phone", 16, func(v model.Vendor) string { return v.Phone }),
			textCol("email", "Email", 26, func(v model.Vendor) string { return v.Email }),
		},
		DefaultSort: "name",
		Search: []func(model.Vendor) string{
			func(v model.Vendor) string { return v.Name },
			func(v model.Vendor) string { return v.Email },
		},
		Criteria: []Criterion[model.Vendor]{
			criterion("category", "Category", filter.Exact, func(v model.Vendor) string { return v.Category }).distinct(),
		},
		Fields: func(Lookups) []dialog.Field {
			return []dialog.Field{
				{Key: "name", Label: "Name", Kind: dialog.Text, Required: true},
				{Key: "category", Label: "Category", Kind: dialog.Text},
				{Key: "phone", Label: "Phone", Kind: dialog.Text},
				{Key: "email", Label: "Email", Kind: dialog.Text},
			}
		},
		Label: func(v model.Vendor) string { return v.Name },
	}
}

func expensesDescriptor() Descriptor[model.Expense] {
	return Descriptor[model.Expense]{
		Route: "/accounts/expenses", Title: "Expenses", Path: "expenses", Name: "Expense", Noun: "expenses",
		Writers: accountWriters,
		Columns: []table.Column[model.Expense]{
			dateCol("date", "Date", 14, func(e model.Expense) string { return e.Date }, util.FormatDate),
			textCol("vendor_name", "Vendor", 20, func(e model.Expense) string { return e.VendorName }),
			textCol("category", "Category", 14, func(e model.Expense) string { return e.Category }),
			{
				Key: "amount", Header: "Amount", Width: 14, Sortable: true,
				Value:  func(e model.Expense) string { return amount(e.Amount) },
				Render: func(e model.Expense) string { return util.FormatAmount(e.Amount, "") },
			},
			textCol("description", "Description", 28, func(e model.Expense) string { return e.Description }),
			{
				Key: "receipt", Header: "Receipt", Width: 10,
				Value: func(e model.Expense) string { return e.Receipt },
				Render: func(e model.Expense) string {
					if e.Receipt == "" {
						return ""
					}
					return "attached"
				},
			},
		},
		DefaultSort: "date",
		DefaultDesc: true,
		Search: []func(model.Expense) string{
			func(e model.Expense) string { return e.Description },
			func(e model.Expense) string { return e.VendorName },
			func(e model.Expense) string { return e.Category },
		},
		Criteria: []Criterion[model.Expense]{
			criterion("vendor", "Vendor", filter.Exact, func(e model.Expense) string { return optionalID(e.Vendor) }).ref("vendors"),
			criterion("category", "Category", filter.Exact, func(e model.Expense) string { return e.Category }).distinct(),
			criterion("date", "Date", filter.DateEquals, func(e model.Expense) string { return e.Date }),
		},
		Fields: func(l Lookups) []dialog.Field {
			return []dialog.Field{
				{Key: "vendor", Label: "Vendor", Kind: dialog.Ref, Options: l.Options("vendors")},
				{Key: "category", Label: "Category", Kind: dialog.Text, Required: true},
				{Key: "amount", Label: "Amount", Kind: dialog.Number, Required: true},
				{Key: "date", Label: "Date", Kind: dialog.Date, Required: true},
				{Key: "description", Label: "Description", Kind: dialog.Text},
				{Key: "receipt", Label: "Receipt", Kind: dialog.File},
			}
		},
		Label:     func(e model.Expense) string { return e.Description },
		Placement: resource.Prepend,
		Ordering:  "-date",
		Lookups: func(d Deps) Lookups {
			return Lookups{"vendors": newLookup(d, "vendors", "Vendor", func(v model.Vendor) string { return v.Name })}
		},
	}
}

func itemsDescriptor() Descriptor[model.Item] {
	return Descriptor[model.Item]{
		Route: "/inventory/items", Title: "Items", Path: "items", Name: "Item", Noun: "items",
		Writers: []model.Role{model.RoleOfficeStaff},
		Columns: []table.Column[model.Item]{
			textCol("name", "Name", 24, func(i model.Item) string { return i.Name }),
			textCol("category", "Category", 16, func(i model.Item) string { return i.Category }),
			{
				Key: "quantity", Header: "Quantity", Width: 12, Sortable: true,
				Value:  func(i model.Item) string { return strconv.Itoa(i.Quantity) },
				Render: func(i model.Item) string { return strconv.Itoa(i.Quantity) + " " + i.Unit },
			},
			textCol("description", "Description", 30, func(i model.Item) string { return i.Description }),
		},
		DefaultSort: "name",
		Search: []func(model.Item) string{
			func(i model.Item) string { return i.Name },
			func(i model.Item) string { return i.Description },
		},
		Criteria: []Criterion[model.Item]{
			criterion("category", "Category", filter.Exact, func(i model.Item) string { return i.Category }).distinct(),
		},
		Fields: func(Lookups) []dialog.Field {
			return []dialog.Field{
				{Key: "name", Label: "Name", Kind: dialog.Text, Required: true},
				{Key: "category", Label: "Category", Kind: dialog.Text},
				{Key: "quantity", Label: "Quantity", Kind: dialog.Integer},
				{Key: "unit", Label: "Unit", Kind: dialog.Text, Hint: "e.g. boxes"},
				{Key: "description", Label: "Description", Kind: dialog.Text},
			}
		},
		Actions: []RowAction[model.Item]{{
			Binding: key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "add stock")),
			Action:  "add-quantity",
			Title:   "Add stock",
			Fields: []dialog.Field{
				{Key: "quantity", Label: "Quantity to add", Kind: dialog.Integer, Required: true},
			},
			Done: "Stock updated",
		}},
		Label: func(i model.Item) string { return i.Name },
	}
}

var appointmentStatuses = []string{"scheduled", "completed", "cancelled"}

func appointmentsDescriptor() Descriptor[model.Appointment] {
	return Descriptor[model.Appointment]{
		Route: "/dialysis/appointments", Title: "Appointments", Path: "appointments", Name: "Appointment", Noun: "appointments",
		Writers: []model.Role{model.RoleDialysisManager, model.RoleOfficeStaff},
		Columns: []table.Column[model.Appointment]{
			dateCol("scheduled_at", "Scheduled", 18, func(a model.Appointment) string { return a.ScheduledAt }, util.FormatDateTime),
			textCol("patient_name", "Patient", 22, func(a model.Appointment) string { return a.PatientName }),
			textCol("machine_name", "Machine", 16, func(a model.Appointment) string { return a.MachineName }),
			{
				Key: "status", Header: "Status", Width: 12, Sortable: true,
				Value:  func(a model.Appointment) string { return a.Status },
				Render: func(a model.Appointment) string { return util.Humanize(a.Status) },
			},
			textCol("notes", "Notes", 28, func(a model.Appointment) string { return a.Notes }),
		},
		DefaultSort: "scheduled_at",
		Search: []func(model.Appointment) string{
			func(a model.Appointment) string { return a.PatientName },
			func(a model.Appointment) string { return a.Notes },
		},
		Criteria: []Criterion[model.Appointment]{
			criterion("machine", "Machine", filter.Exact, func(a model.Appointment) string { return optionalID(a.Machine) }).ref("machines"),
			criterion("status", "Status", filter.Exact, func(a model.Appointment) string { return a.Status }).choices(appointmentStatuses...),
			criterion("scheduled_at", "Day", filter.DateEquals, func(a model.Appointment) string { return a.ScheduledAt }),
		},
		Fields: func(l Lookups) []dialog.Field {
			return []dialog.Field{
				{Key: "patient_name", Label: "Patient", Kind: dialog.Text, Required: true},
				{Key: "machine", Label: "Machine", Kind: dialog.Ref, Options: l.Options("machines")},
				{Key: "scheduled_at", Label: "Scheduled at", Kind: dialog.DateTime, Required: true},
				{Key: "status", Label: "Status", Kind: dialog.Choice, Required: true, Options: dialog.Choices(appointmentStatuses...)},
				{Key: "notes", Label: "Notes", Kind: dialog.Text},
			}
		},
		Label:    func(a model.Appointment) string { return a.PatientName },
		Ordering: "scheduled_at",
		Lookups:  func(d Deps) Lookups { return Lookups{"machines": machineLookup(d)} },
	}
}

var sessionStatuses = []string{"scheduled", "in_progress", "completed", "cancelled"}

func dialysisSessionsDescriptor() Descriptor[model.DialysisSession] {
	return Descriptor[model.DialysisSession]{
		Route: "/dialysis/sessions", Title: "Dialysis sessions", Path: "dialysis-sessions", Name: "Session", Noun: "sessions",
		Writers: dialysisRoles,
		Columns: []table.Column[model.DialysisSession]{
			dateCol("session_date", "Date", 18, func(s model.DialysisSession) string { return s.SessionDate }, util.FormatDateTime),
			textCol("patient_name", "Patient", 22, func(s model.DialysisSession) string { return s.PatientName }),
			textCol("machine_name", "Machine", 16, func(s model.DialysisSession) string { return s.MachineName }),
			{
				Key: "duration_minutes", Header: "Minutes", Width: 8, Sortable: true,
				Value: func(s model.DialysisSession) string { return strconv.Itoa(s.DurationMinutes) },
			},
			{
				Key: "status", Header: "Status", Width: 12, Sortable: true,
				Value:  func(s model.DialysisSession) string { return s.Status },
				Render: func(s model.DialysisSession) string { return util.Humanize(s.Status) },
			},
			textCol("notes", "Notes", 24, func(s model.DialysisSession) string { return s.Notes }),
		},
		DefaultSort: "session_date",
		DefaultDesc: true,
		Search: []func(model.DialysisSession) string{
			func(s model.DialysisSession) string { return s.PatientName },
			func(s model.DialysisSession) string { return s.MachineName },
		},
		Criteria: []Criterion[model.DialysisSession]{
			criterion("machine", "Machine", filter.Exact, func(s model.DialysisSession) string { return optionalID(s.Machine) }).ref("machines"),
			criterion("status", "Status", filter.Exact, func(s model.DialysisSession) string { return s.Status }).choices(sessionStatuses...),
			criterion("session_date", "Day", filter.DateEquals, func(s model.DialysisSession) string { return s.SessionDate }),
		},
		Fields: func(l Lookups) []dialog.Field {
			return []dialog.Field{
				{Key: "patient_name", Label: "Patient", Kind: dialog.Text, Required: true},
				{Key: "machine", Label: "Machine", Kind: dialog.Ref, Required: true, Options: l.Options("machines")},
				{Key: "session_date", Label: "Date", Kind: dialog.DateTime, Required: true},
				{Key: "duration_minutes", Label: "Minutes", Kind: dialog.Integer},
				{Key: "status", Label: "Status", Kind: dialog.Choice, Required: true, Options: dialog.Choices(sessionStatuses...)},
				{Key: "notes", Label: "Notes", Kind: dialog.Text},
			}
		},
		Label:    func(s model.DialysisSession) string { return s.PatientName },
		Ordering: "-session_date",
		Lookups:  func(d Deps) Lookups { return Lookups{"machines": machineLookup(d)} },
	}
}
