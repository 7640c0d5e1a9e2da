package ui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"welfaredesk/internal/api"
	"welfaredesk/internal/dialog"
	"welfaredesk/internal/filter"
	"welfaredesk/internal/model"
	"welfaredesk/internal/nav"
	"welfaredesk/internal/resource"
	"welfaredesk/internal/table"
)

// Criterion is a filter criterion whose value accessor or options may
// depend on related collections.
type Criterion[T model.Entity] struct {
	filter.Criterion[T]
	// Derive builds the value accessor once lookups are loaded. It is used
	// for Related criteria.
	Derive func(l Lookups) func(T) string
	// Options lists the selectable values; nil means free text.
	Options func(items []T, l Lookups) []filter.Option
}

// RowAction is a custom endpoint run on the cursor row.
type RowAction[T model.Entity] struct {
	Binding key.Binding
	Action  string
	Title   string
	Fields  []dialog.Field
	// When hides the action for rows it does not apply to.
	When func(T) bool
	Done string
}

// Descriptor is everything a CRUD screen needs to know about a resource.
type Descriptor[T model.Entity] struct {
	Route string
	Title string
	Path  string
	// Name is the singular display name, e.g. "Bed".
	Name string
	// Noun is the plural used in messages, e.g. "beds".
	Noun    string
	Writers []model.Role

	Columns     []table.Column[T]
	DefaultSort string
	DefaultDesc bool
	Empty       string

	Search   []func(T) string
	Criteria []Criterion[T]

	Fields  func(l Lookups) []dialog.Field
	Label   func(T) string
	Actions []RowAction[T]
	Lookups func(d Deps) Lookups

	Placement  resource.Placement
	Paging     table.Paging
	PageSize   int
	MergePages bool
	Ordering   string
}

type crudMode int

const (
	modeBrowse crudMode = iota
	modeSearch
	modeFilter
	modeDetail
)

// CrudScreen lists, filters and edits one resource.
type CrudScreen[T model.Entity] struct {
	desc      Descriptor[T]
	deps      Deps
	keys      KeyMap
	formKeys  FormKeyMap
	canWrite  bool
	container *resource.Container[T]
	dialogs   *dialog.Lifecycle[T]
	table     *table.Model[T]
	lookups   Lookups

	mode       crudMode
	query      api.Query
	filters    filter.State
	search     textinput.Model
	filterForm *formModel

	form       *formModel
	formFields []dialog.Field
	action     *RowAction[T]
	info       string
}

// NewCrudScreen builds the screen for desc.
func NewCrudScreen[T model.Entity](desc Descriptor[T], deps Deps) *CrudScreen[T] {
	backend := api.NewResource[T](deps.Client, desc.Path, desc.Name)
	c := resource.New[T](backend, resource.Options{
		Placement:  desc.Placement,
		MergePages: desc.MergePages,
		Timeout:    deps.Timeout,
	})

	pageSize := desc.PageSize
	if pageSize == 0 && (desc.Paging == table.ExternalPaging || desc.MergePages) {
		pageSize = deps.PageSize
	}
	tablePageSize := 0
	if desc.Paging == table.ExternalPaging {
		tablePageSize = pageSize
	}

	search := textinput.New()
	search.Placeholder = "search " + desc.Noun
	search.Prompt = "/ "
	search.CharLimit = 100

	s := &CrudScreen[T]{
		desc:      desc,
		deps:      deps,
		keys:      DefaultKeyMap(),
		formKeys:  DefaultFormKeyMap(),
		canWrite:  nav.Allowed(deps.User.Role, desc.Writers),
		container: c,
		dialogs:   dialog.New(c),
		table: table.New(desc.Columns, table.Options{
			Noun:        desc.Noun,
			PageSize:    tablePageSize,
			Paging:      desc.Paging,
			DefaultSort: desc.DefaultSort,
			DefaultDesc: desc.DefaultDesc,
			Empty:       desc.Empty,
			Styles:      tableStyles(),
		}),
		lookups: Lookups{},
		search:  search,
		query:   api.Query{Ordering: desc.Ordering},
	}
	if pageSize > 0 {
		s.query.Page = 1
		s.query.PageSize = pageSize
	}
	if desc.Lookups != nil {
		s.lookups = desc.Lookups(deps)
	}
	s.table.OnPage(func(page int) tea.Cmd {
		s.query.Page = page
		return tea.Batch(s.container.List(s.query), s.table.SetLoading(true))
	})
	s.table.SetActions(s.rowActions()...)
	s.rebuildFilterForm()
	return s
}

func (s *CrudScreen[T]) rowActions() []table.Action[T] {
	actions := []table.Action[T]{
		{Binding: s.keys.Select, Run: s.openDetail},
		{Binding: s.keys.Edit, Run: s.openEdit},
		{Binding: s.keys.Delete, Run: s.openDelete},
	}
	for i := range s.desc.Actions {
		a := &s.desc.Actions[i]
		actions = append(actions, table.Action[T]{
			Binding: a.Binding,
			Run:     func(row T) tea.Cmd { return s.openAction(row, a) },
		})
	}
	return actions
}

func (s *CrudScreen[T]) Init() tea.Cmd {
	cmds := []tea.Cmd{s.container.List(s.query), s.table.SetLoading(true)}
	for _, lk := range s.lookups {
		cmds = append(cmds, lk.load())
	}
	return tea.Batch(cmds...)
}

func (s *CrudScreen[T]) Title() string { return s.desc.Title }

func (s *CrudScreen[T]) Table() tableController { return s.table }

func (s *CrudScreen[T]) Capturing() bool {
	if _, open := s.dialogs.Active(); open {
		return true
	}
	return s.mode != modeBrowse
}

func (s *CrudScreen[T]) fields() []dialog.Field {
	if s.desc.Fields == nil {
		return nil
	}
	return s.desc.Fields(s.lookups)
}

func (s *CrudScreen[T]) denied() tea.Cmd {
	s.info = ""
	return func() tea.Msg {
		return model.ErrorMsg{Err: fmt.Errorf("your role cannot modify %s", s.desc.Noun)}
	}
}

func (s *CrudScreen[T]) openAdd() tea.Cmd {
	if !s.canWrite {
		return s.denied()
	}
	s.formFields = s.fields()
	s.form = newFormModel(s.formFields, nil)
	s.dialogs.OpenAdd()
	return textinput.Blink
}

func (s *CrudScreen[T]) openEdit(row T) tea.Cmd {
	if !s.canWrite {
		return s.denied()
	}
	s.formFields = s.fields()
	s.form = newFormModel(s.formFields, dialog.Defaults(s.formFields, &row))
	s.dialogs.OpenEdit(row)
	return textinput.Blink
}

func (s *CrudScreen[T]) openDelete(row T) tea.Cmd {
	if !s.canWrite {
		return s.denied()
	}
	s.form = nil
	s.dialogs.OpenDelete(row)
	return nil
}

func (s *CrudScreen[T]) openAction(row T, a *RowAction[T]) tea.Cmd {
	if !s.canWrite {
		return s.denied()
	}
	if a.When != nil && !a.When(row) {
		s.info = a.Title + " does not apply to this " + strings.ToLower(s.desc.Name)
		return nil
	}
	s.action = a
	s.formFields = a.Fields
	s.form = newFormModel(a.Fields, nil)
	s.dialogs.OpenAction(row, a.Action)
	return textinput.Blink
}

func (s *CrudScreen[T]) openDetail(row T) tea.Cmd {
	s.mode = modeDetail
	return s.container.Get(row.GetID())
}

// spec resolves derived criteria against the loaded lookups.
func (s *CrudScreen[T]) spec() filter.Spec[T] {
	criteria := make([]filter.Criterion[T], 0, len(s.desc.Criteria))
	for _, c := range s.desc.Criteria {
		fc := c.Criterion
		if c.Derive != nil {
			fc.Value = c.Derive(s.lookups)
		}
		criteria = append(criteria, fc)
	}
	return filter.Spec[T]{SearchFields: s.desc.Search, Criteria: criteria}
}

func (s *CrudScreen[T]) filterFields() []dialog.Field {
	fields := make([]dialog.Field, 0, len(s.desc.Criteria))
	for _, c := range s.desc.Criteria {
		f := dialog.Field{Key: c.Key, Label: c.Label, Kind: dialog.Text}
		switch {
		case c.Options != nil:
			f.Kind = dialog.Choice
			f.Options = c.Options(s.container.Items(), s.lookups)
		case c.Kind == filter.DateEquals:
			f.Kind = dialog.Date
		}
		fields = append(fields, f)
	}
	return fields
}

func (s *CrudScreen[T]) rebuildFilterForm() {
	if s.mode == modeFilter {
		return
	}
	s.filterForm = newFormModel(s.filterFields(), s.filters.Values)
}

// sync pushes the filtered collection and its status into the table.
func (s *CrudScreen[T]) sync() tea.Cmd {
	s.table.SetRows(filter.Apply(s.container.Items(), s.spec(), s.filters))
	s.table.SetTotal(s.container.Count())
	return s.table.SetLoading(s.container.Status(resource.OpList).Loading)
}

func (s *CrudScreen[T]) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case resource.Result[T]:
		if msg.Resource == s.container.Name() {
			return s.applyResult(msg)
		}
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	for _, lk := range s.lookups {
		if lk.apply(msg) {
			s.rebuildFilterForm()
			return s.sync()
		}
	}
	return s.table.Update(msg)
}

func (s *CrudScreen[T]) applyResult(r resource.Result[T]) tea.Cmd {
	ok := s.dialogs.Apply(r)
	if _, open := s.dialogs.Active(); !open {
		s.form = nil
		s.action = nil
	}
	if ok {
		switch r.Op {
		case resource.OpCreate:
			s.info = s.desc.Name + " created"
		case resource.OpUpdate:
			s.info = s.desc.Name + " updated"
		case resource.OpDelete:
			s.info = s.desc.Name + " deleted"
		case resource.OpAction:
			s.info = s.desc.Name + " updated"
			for _, a := range s.desc.Actions {
				if a.Action == r.Action && a.Done != "" {
					s.info = a.Done
				}
			}
		case resource.OpList:
			if s.desc.Paging == table.ExternalPaging {
				s.table.SetPage(s.container.LastPage())
			}
			s.rebuildFilterForm()
		}
	}
	cmd := s.sync()
	// Focus after sync so the new row is already in the table.
	if ok && (r.Op == resource.OpCreate || r.Op == resource.OpUpdate || r.Op == resource.OpAction) {
		s.table.Focus(r.Item.GetID())
	}
	return cmd
}

func (s *CrudScreen[T]) handleKey(msg tea.KeyMsg) tea.Cmd {
	if k, open := s.dialogs.Active(); open {
		return s.handleDialogKey(k, msg)
	}
	switch s.mode {
	case modeSearch:
		return s.handleSearchKey(msg)
	case modeFilter:
		return s.handleFilterKey(msg)
	case modeDetail:
		return s.handleDetailKey(msg)
	}

	s.info = ""
	switch {
	case key.Matches(msg, s.keys.Add):
		return s.openAdd()
	case key.Matches(msg, s.keys.Search):
		s.mode = modeSearch
		return s.search.Focus()
	case key.Matches(msg, s.keys.Filters):
		if len(s.desc.Criteria) == 0 {
			return nil
		}
		s.filterForm = newFormModel(s.filterFields(), s.filters.Values)
		s.mode = modeFilter
		return textinput.Blink
	case key.Matches(msg, s.keys.ClearFilters):
		s.filters = s.filters.Clear()
		s.search.SetValue("")
		s.table.ClearFilter()
		s.rebuildFilterForm()
		return s.sync()
	case key.Matches(msg, s.keys.Refresh):
		return s.reload()
	case key.Matches(msg, s.keys.NextPage):
		return s.table.NextPage()
	case key.Matches(msg, s.keys.PrevPage):
		return s.table.PrevPage()
	case key.Matches(msg, s.keys.LoadMore):
		if !s.desc.MergePages || !s.container.HasNext() {
			return nil
		}
		q := s.query
		q.Page = s.container.LastPage() + 1
		return tea.Batch(s.container.List(q), s.table.SetLoading(true))
	}

	cmd, _ := s.table.HandleKey(msg)
	return cmd
}

func (s *CrudScreen[T]) reload() tea.Cmd {
	if s.query.PageSize > 0 {
		s.query.Page = 1
	}
	cmds := []tea.Cmd{s.container.List(s.query), s.table.SetLoading(true)}
	for _, lk := range s.lookups {
		cmds = append(cmds, lk.load())
	}
	return tea.Batch(cmds...)
}

func (s *CrudScreen[T]) handleDialogKey(k dialog.Kind, msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, s.formKeys.Cancel) {
		s.dialogs.Cancel(k)
		s.form = nil
		s.action = nil
		return nil
	}
	if s.dialogs.Dialog(k).State() == dialog.OpenPending {
		return nil
	}

	if k == dialog.Delete {
		if key.Matches(msg, s.formKeys.Confirm) {
			return s.dialogs.Submit(k, nil)
		}
		if msg.String() == "n" {
			s.dialogs.Cancel(k)
		}
		return nil
	}

	if key.Matches(msg, s.formKeys.Save) || (msg.Type == tea.KeyEnter && s.form.onLast()) {
		payload, errs := dialog.Normalize(s.formFields, s.form.Values())
		if len(errs) > 0 {
			s.dialogs.Reject(k, dialog.FormatErrors(s.formFields, errs))
			return nil
		}
		return s.dialogs.Submit(k, payload)
	}
	return s.form.Update(msg)
}

func (s *CrudScreen[T]) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		s.search.Blur()
		s.mode = modeBrowse
		return nil
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	s.filters = s.filters.WithSearch(s.search.Value())
	return tea.Batch(cmd, s.sync())
}

func (s *CrudScreen[T]) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyEsc, msg.Type == tea.KeyEnter:
		s.mode = modeBrowse
		return nil
	}
	cmd := s.filterForm.Update(msg)
	for k, v := range s.filterForm.Values() {
		s.filters = s.filters.With(k, v)
	}
	return tea.Batch(cmd, s.sync())
}

func (s *CrudScreen[T]) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, s.keys.Back), key.Matches(msg, s.keys.Select), key.Matches(msg, s.keys.Left):
		s.mode = modeBrowse
		s.container.ClearError(resource.OpGet)
		return nil
	case key.Matches(msg, s.keys.Edit), key.Matches(msg, s.keys.Delete):
		row, ok := s.container.Detail()
		if !ok {
			return nil
		}
		s.mode = modeBrowse
		if key.Matches(msg, s.keys.Edit) {
			return s.openEdit(row)
		}
		return s.openDelete(row)
	}
	return nil
}

func (s *CrudScreen[T]) HelpKeys() []string {
	if k, open := s.dialogs.Active(); open {
		if k == dialog.Delete {
			return []string{"y/enter confirm", "esc cancel"}
		}
		return []string{"tab next field", "←/→ option", "ctrl+s save", "esc cancel"}
	}
	switch s.mode {
	case modeSearch:
		return []string{"enter done", "esc done"}
	case modeFilter:
		return []string{"tab next filter", "←/→ option", "enter done"}
	case modeDetail:
		return []string{"e edit", "d delete", "esc back"}
	}

	keys := []string{"enter details", "/ search"}
	if len(s.desc.Criteria) > 0 {
		keys = append(keys, "f filters")
	}
	if s.canWrite {
		keys = append(keys, "a add", "e edit", "d delete")
		for _, a := range s.desc.Actions {
			keys = append(keys, a.Binding.Help().Key+" "+a.Binding.Help().Desc)
		}
	}
	if s.desc.Paging == table.ExternalPaging {
		keys = append(keys, "[/] page")
	}
	if s.desc.MergePages {
		keys = append(keys, "m more")
	}
	return append(keys, "r reload")
}

func (s *CrudScreen[T]) View(width, height int) string {
	var top []string
	top = append(top, s.filterBar())
	if err := s.container.Status(resource.OpList).Err; err != "" {
		top = append(top, ErrorStyle.Render("✗ "+err+"  (r to retry)"))
	}
	for _, name := range slices.Sorted(maps.Keys(s.lookups)) {
		if err := s.lookups[name].err(); err != "" {
			top = append(top, WarningStyle.Render("! "+name+": "+err))
		}
	}
	if s.info != "" {
		top = append(top, SuccessStyle.Render("✓ "+s.info))
	}
	header := strings.Join(top, "\n")
	bodyHeight := max(3, height-lipgloss.Height(header))

	var body string
	switch k, open := s.dialogs.Active(); {
	case open:
		body = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center, s.dialogView(k, width))
	case s.mode == modeDetail:
		body = s.detailView(width)
	default:
		body = s.table.View(width, bodyHeight)
	}
	return header + "\n" + body
}

func (s *CrudScreen[T]) filterBar() string {
	parts := []string{s.search.View()}
	if s.search.Value() == "" && s.mode != modeSearch {
		parts[0] = HelpDescStyle.Render("/ search " + s.desc.Noun)
	}
	if len(s.desc.Criteria) > 0 {
		parts = append(parts, s.filterForm.inlineView(s.mode == modeFilter))
	}
	return strings.Join(parts, "   ")
}

func (s *CrudScreen[T]) dialogView(k dialog.Kind, width int) string {
	d := s.dialogs.Dialog(k)
	inner := min(72, width-6)

	var title, body string
	switch k {
	case dialog.Add:
		title = "New " + strings.ToLower(s.desc.Name)
	case dialog.Edit:
		title = "Edit " + strings.ToLower(s.desc.Name)
	case dialog.Action:
		title = s.desc.Name
		if s.action != nil {
			title = s.action.Title
		}
	case dialog.Delete:
		title = "Delete " + strings.ToLower(s.desc.Name)
	}
	if k == dialog.Delete {
		label := s.desc.Name
		if row, ok := s.container.Selected(); ok && s.desc.Label != nil {
			label = s.desc.Label(row)
		}
		body = fmt.Sprintf("Delete %q? This cannot be undone.\n\n%s",
			label, HelpDescStyle.Render("y/enter confirm · esc cancel"))
	} else if s.form != nil {
		body = s.form.View(inner)
		if k == dialog.Action && s.action != nil && len(s.action.Fields) == 0 {
			body = HelpDescStyle.Render("Press ctrl+s to continue.")
		}
	}

	switch d.State() {
	case dialog.OpenPending:
		body += "\n\n" + WarningStyle.Render("Saving...")
	case dialog.OpenError:
		body += "\n\n" + ErrorStyle.Width(inner).Render(d.Err())
	}
	return DialogStyle.Width(inner).Render(TitleStyle.Render(title) + "\n\n" + body)
}

func (s *CrudScreen[T]) detailView(width int) string {
	status := s.container.Status(resource.OpGet)
	var body string
	row, ok := s.container.Detail()
	switch {
	case status.Loading:
		body = HelpDescStyle.Render("Loading...")
	case status.Err != "":
		body = ErrorStyle.Render(status.Err)
	case !ok:
		body = EmptyStateStyle.Render("Nothing selected.")
	default:
		var lines []string
		for _, c := range s.desc.Columns {
			var v string
			switch {
			case c.Render != nil:
				v = c.Render(row)
			case c.Value != nil:
				v = c.Value(row)
			}
			if v == "" {
				v = "—"
			}
			lines = append(lines, LabelStyle.Width(formLabelWidth).Render(c.Header)+v)
		}
		body = strings.Join(lines, "\n")
	}
	title := s.desc.Name
	if ok && s.desc.Label != nil {
		title = s.desc.Label(row)
	}
	return PanelStyle.Width(min(80, width-4)).Render(TitleStyle.Render(title) + "\n\n" + body)
}
