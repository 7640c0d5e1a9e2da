package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"welfaredesk/internal/filter"
	"welfaredesk/internal/model"
	"welfaredesk/internal/nav"
	"welfaredesk/internal/util"
)

// overview is the home screen: who is signed in and a few headline numbers
// from the collections the role may read.
type overview struct {
	deps         Deps
	warnings     *refLookup[model.Warning]
	appointments *refLookup[model.Appointment]
	items        *refLookup[model.Item]
}

func newOverview(d Deps) *overview {
	o := &overview{deps: d}
	if nav.Allowed(d.User.Role, dialysisRoles) {
		o.warnings = newLookup(d, "warnings", "Warning", func(w model.Warning) string { return w.Title })
	}
	if nav.Allowed(d.User.Role, []model.Role{model.RoleDialysisManager, model.RoleOfficeStaff}) {
		o.appointments = newLookup(d, "appointments", "Appointment", func(a model.Appointment) string { return a.PatientName })
	}
	if nav.Allowed(d.User.Role, inventoryRoles) {
		o.items = newLookup(d, "items", "Item", func(i model.Item) string { return i.Name })
	}
	return o
}

func (o *overview) lookups() []lookup {
	var out []lookup
	if o.warnings != nil {
		out = append(out, o.warnings)
	}
	if o.appointments != nil {
		out = append(out, o.appointments)
	}
	if o.items != nil {
		out = append(out, o.items)
	}
	return out
}

func (o *overview) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, lk := range o.lookups() {
		cmds = append(cmds, lk.load())
	}
	return tea.Batch(cmds...)
}

func (o *overview) Update(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "r":
			return o.Init()
		case "w":
			return o.navigate(o.warnings != nil, "/dialysis/warnings")
		case "p":
			return o.navigate(o.appointments != nil, "/dialysis/appointments")
		case "i":
			return o.navigate(o.items != nil, "/inventory/items")
		}
		return nil
	}
	for _, lk := range o.lookups() {
		if lk.apply(msg) {
			break
		}
	}
	return nil
}

func (o *overview) navigate(allowed bool, route string) tea.Cmd {
	if !allowed {
		return nil
	}
	return func() tea.Msg { return model.NavigateMsg{Route: route} }
}

func (o *overview) Title() string   { return "Overview" }
func (o *overview) Capturing() bool { return false }

func (o *overview) HelpKeys() []string {
	keys := []string{"r reload"}
	if o.warnings != nil {
		keys = append(keys, "w warnings")
	}
	if o.appointments != nil {
		keys = append(keys, "p appointments")
	}
	if o.items != nil {
		keys = append(keys, "i items")
	}
	return keys
}

func (o *overview) stat(label string, value string) string {
	return LabelStyle.Width(formLabelWidth+4).Render(label) + TitleStyle.Render(value)
}

func (o *overview) View(width, height int) string {
	now := o.deps.Now()
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Welcome, "+o.deps.User.Username) + "\n")
	b.WriteString(HelpDescStyle.Render(o.deps.User.Role.Label()+" · "+now.Format("Monday, Jan 02 2006")) + "\n\n")

	var stats []string
	if o.warnings != nil {
		open := 0
		for _, w := range o.warnings.c.Items() {
			if !w.IsResolved {
				open++
			}
		}
		stats = append(stats, o.counted(o.warnings, "Open warnings", open))
	}
	if o.appointments != nil {
		today := now.Format("2006-01-02")
		due := 0
		next := ""
		for _, a := range o.appointments.c.Items() {
			day, ok := filter.CalendarDay(a.ScheduledAt)
			if ok && day == today && a.Status == "scheduled" {
				due++
			}
			if a.Status == "scheduled" && day >= today && (next == "" || a.ScheduledAt < next) {
				next = a.ScheduledAt
			}
		}
		stats = append(stats, o.counted(o.appointments, "Appointments today", due))
		if next != "" {
			stats = append(stats, o.stat("Next appointment", util.FormatDateHuman(next, now)))
		}
	}
	if o.items != nil {
		low := 0
		for _, i := range o.items.c.Items() {
			if i.Quantity <= lowStock {
				low++
			}
		}
		stats = append(stats, o.counted(o.items, fmt.Sprintf("Items at or below %d", lowStock), low))
	}
	if len(stats) == 0 {
		stats = append(stats, EmptyStateStyle.Render("Pick a section from the menu to get started."))
	}
	b.WriteString(strings.Join(stats, "\n"))

	return PanelStyle.Width(min(70, width-4)).MaxHeight(height).Render(b.String())
}

const lowStock = 10

func (o *overview) counted(lk lookup, label string, n int) string {
	switch {
	case lk.err() != "":
		return o.stat(label, ErrorStyle.Render(lk.err()))
	case lk.loading():
		return o.stat(label, "…")
	}
	return o.stat(label, fmt.Sprint(n))
}
