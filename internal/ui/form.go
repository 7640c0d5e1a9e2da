package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"welfaredesk/internal/dialog"
	"welfaredesk/internal/filter"
)

// formInput is one editable field: a text input, or a select cycling
// through options.
type formInput struct {
	field   dialog.Field
	text    textinput.Model
	options []filter.Option
	choice  int
}

func (in formInput) isSelect() bool {
	return in.options != nil
}

func (in formInput) value() string {
	if in.isSelect() {
		if in.choice < 0 || in.choice >= len(in.options) {
			return ""
		}
		return in.options[in.choice].Value
	}
	return in.text.Value()
}

// formModel edits a set of dialog fields.
type formModel struct {
	inputs  []formInput
	focused int
	keys    FormKeyMap
}

func selectOptions(f dialog.Field) []filter.Option {
	var opts []filter.Option
	switch {
	case f.Kind == dialog.Bool:
		return []filter.Option{{Value: "false", Label: "No"}, {Value: "true", Label: "Yes"}}
	case len(f.Options) > 0:
		opts = f.Options
	case f.Kind == dialog.Choice:
		opts = []filter.Option{}
	default:
		return nil
	}
	if !f.Required {
		opts = append([]filter.Option{{Value: "", Label: "—"}}, opts...)
	}
	return opts
}

func placeholder(f dialog.Field) string {
	if f.Hint != "" {
		return f.Hint
	}
	switch f.Kind {
	case dialog.Date:
		return "YYYY-MM-DD"
	case dialog.DateTime:
		return "YYYY-MM-DDTHH:MM"
	case dialog.File:
		return "path to file (optional)"
	case dialog.Number:
		return "0.00"
	case dialog.Integer, dialog.Ref:
		return "0"
	}
	return f.Label
}

// newFormModel builds inputs for fields seeded with values.
func newFormModel(fields []dialog.Field, values map[string]string) *formModel {
	inputs := make([]formInput, len(fields))
	for i, f := range fields {
		in := formInput{field: f, options: selectOptions(f), choice: -1}
		v := values[f.Key]
		if in.isSelect() {
			for j, o := range in.options {
				if o.Value == v {
					in.choice = j
					break
				}
			}
			if in.choice < 0 && len(in.options) > 0 && (v == "" || f.Required) {
				in.choice = 0
			}
		} else {
			in.text = textinput.New()
			in.text.Placeholder = placeholder(f)
			in.text.CharLimit = 500
			in.text.SetValue(v)
		}
		inputs[i] = in
	}
	m := &formModel{inputs: inputs, keys: DefaultFormKeyMap()}
	m.focus(0)
	return m
}

// Values returns the raw string value of every field.
func (m *formModel) Values() map[string]string {
	out := make(map[string]string, len(m.inputs))
	for _, in := range m.inputs {
		out[in.field.Key] = in.value()
	}
	return out
}

// Set overrides a field's value.
func (m *formModel) Set(key, value string) {
	for i := range m.inputs {
		in := &m.inputs[i]
		if in.field.Key != key {
			continue
		}
		if in.isSelect() {
			for j, o := range in.options {
				if o.Value == value {
					in.choice = j
				}
			}
		} else {
			in.text.SetValue(value)
		}
	}
}

func (m *formModel) focus(i int) {
	if len(m.inputs) == 0 {
		return
	}
	if !m.inputs[m.focused].isSelect() {
		m.inputs[m.focused].text.Blur()
	}
	m.focused = (i + len(m.inputs)) % len(m.inputs)
	if !m.inputs[m.focused].isSelect() {
		m.inputs[m.focused].text.Focus()
	}
}

func (m *formModel) nextField() { m.focus(m.focused + 1) }

// onLast reports whether the last field has focus.
func (m *formModel) onLast() bool { return m.focused == len(m.inputs)-1 }
func (m *formModel) prevField() { m.focus(m.focused - 1) }

// Update handles field navigation and editing. Save and cancel are left to
// the owner.
func (m *formModel) Update(msg tea.Msg) tea.Cmd {
	if len(m.inputs) == 0 {
		return nil
	}
	in := &m.inputs[m.focused]
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.NextField):
			m.nextField()
			return nil
		case key.Matches(keyMsg, m.keys.PrevField):
			m.prevField()
			return nil
		}
		if in.isSelect() {
			n := len(in.options)
			switch {
			case n == 0:
			case key.Matches(keyMsg, m.keys.NextOption), keyMsg.String() == " ":
				in.choice = (in.choice + 1) % n
			case key.Matches(keyMsg, m.keys.PrevOption):
				in.choice = (in.choice - 1 + n) % n
			}
			return nil
		}
	}
	if in.isSelect() {
		return nil
	}
	var cmd tea.Cmd
	in.text, cmd = in.text.Update(msg)
	return cmd
}

const formLabelWidth = 20

// View renders one line per field.
func (m *formModel) View(width int) string {
	var lines []string
	for i, in := range m.inputs {
		label := in.field.Label
		if in.field.Required {
			label += " *"
		}
		marker := "  "
		if i == m.focused {
			marker = HelpKeyStyle.Render("› ")
		}

		var value string
		if in.isSelect() {
			current := "—"
			if in.choice >= 0 && in.choice < len(in.options) {
				current = in.options[in.choice].Label
			}
			if len(in.options) == 0 {
				current = "no options loaded"
			}
			value = "‹ " + current + " ›"
			if i == m.focused {
				value = BreadcrumbActiveStyle.Render(value)
			}
		} else {
			in.text.Width = max(10, width-formLabelWidth-6)
			value = in.text.View()
		}
		lines = append(lines, marker+LabelStyle.Width(formLabelWidth).Render(label)+value)
	}
	return strings.Join(lines, "\n")
}

// inlineView renders the fields side by side, for the filter bar.
func (m *formModel) inlineView(active bool) string {
	var parts []string
	for i, in := range m.inputs {
		var value string
		if in.isSelect() {
			value = "All"
			if v := in.value(); v != "" {
				value = in.options[in.choice].Label
			}
		} else {
			in.text.Width = 14
			value = in.text.View()
		}
		part := HelpDescStyle.Render(in.field.Label+": ") + value
		if active && i == m.focused {
			part = lipgloss.NewStyle().Underline(true).Render(in.field.Label+":") + " " + value
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "   ")
}
