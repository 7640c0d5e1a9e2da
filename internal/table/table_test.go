package table

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welfaredesk/internal/model"
)

func itemColumns() []Column[model.Item] {
	return []Column[model.Item]{
		{Key: "name", Header: "name", Width: 16, Sortable: true, Value: func(i model.Item) string { return i.Name }},
		{Key: "category", Header: "category", Sortable: true, Value: func(i model.Item) string { return i.Category }},
		{
			Key: "quantity", Header: "qty", Width: 10, Sortable: true,
			Value:  func(i model.Item) string { return strconv.Itoa(i.Quantity) },
			Render: func(i model.Item) string { return fmt.Sprintf("%d %s", i.Quantity, i.Unit) },
		},
		{Key: "description", Header: "description", Value: func(i model.Item) string { return i.Description }},
	}
}

func sampleItems() []model.Item {
	return []model.Item{
		{ID: 1, Name: "Saline", Category: "Fluids", Quantity: 120, Unit: "bags"},
		{ID: 2, Name: "dialyzer", Category: "Consumables", Quantity: 40, Unit: "pcs"},
		{ID: 3, Name: "Gloves", Category: "Consumables", Quantity: 9, Unit: "box"},
		{ID: 4, Name: "Heparin", Category: "Fluids", Quantity: 40, Unit: "vials"},
	}
}

func ids(items []model.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestSortIsStableAndToggles(t *testing.T) {
	m := New(itemColumns(), Options{})
	m.SetRows(sampleItems())

	require.True(t, m.SortBy("quantity", false))
	assert.Equal(t, []int64{3, 2, 4, 1}, ids(m.Rows()), "numeric order, ties keep input order")

	require.True(t, m.SortBy("quantity", true))
	assert.Equal(t, []int64{1, 2, 4, 3}, ids(m.Rows()))

	require.True(t, m.SortBy("name", false))
	assert.Equal(t, []int64{2, 3, 4, 1}, ids(m.Rows()), "case-insensitive")

	assert.False(t, m.SortBy("description", false), "unsortable column")
	assert.False(t, m.SortBy("missing", false))
}

func TestCompareRawOrdersNumbersFirst(t *testing.T) {
	values := []string{"2", "10", "1x", "abc", "", " 1.5 ", "B"}

	for _, a := range values {
		for _, b := range values {
			assert.Equal(t, -compareRaw(b, a), compareRaw(a, b), "%q vs %q", a, b)
			for _, c := range values {
				if compareRaw(a, b) < 0 && compareRaw(b, c) < 0 {
					assert.Negative(t, compareRaw(a, c), "%q < %q < %q", a, b, c)
				}
			}
		}
	}

	assert.Negative(t, compareRaw("2", "10"))
	assert.Negative(t, compareRaw("10", "1x"))
	assert.Negative(t, compareRaw("1x", "abc"))
}

func TestCycleSortReturnsToDefault(t *testing.T) {
	m := New(itemColumns(), Options{DefaultSort: "name"})
	m.SetRows(sampleItems())
	assert.Equal(t, []int64{2, 3, 4, 1}, ids(m.Rows()))

	m.JumpToColumn(3)
	assert.Equal(t, "Sorted QTY ascending", m.CycleSortActiveColumn())
	assert.Equal(t, "Sorted QTY descending", m.CycleSortActiveColumn())
	assert.Equal(t, "Sorting reset", m.CycleSortActiveColumn())
	k, desc := m.Sort()
	assert.Equal(t, "name", k)
	assert.False(t, desc)

	m.JumpToColumn(4)
	assert.Equal(t, "DESCRIPTION is not sortable", m.CycleSortActiveColumn())
}

func TestClientPaging(t *testing.T) {
	m := New(itemColumns(), Options{PageSize: 3})
	m.SetRows(sampleItems())

	assert.Equal(t, 2, m.Pages())
	assert.Equal(t, []int64{1, 2, 3}, ids(m.PageRows()))
	assert.Nil(t, m.NextPage())
	assert.Equal(t, 2, m.Page())
	assert.Equal(t, []int64{4}, ids(m.PageRows()))
	assert.Nil(t, m.NextPage(), "already on the last page")
	assert.Equal(t, 2, m.Page())

	// Shrinking the collection pulls the page back in range.
	m.SetRows(sampleItems()[:2])
	assert.Equal(t, 1, m.Page())
	assert.Equal(t, []int64{1, 2}, ids(m.PageRows()))
}

func TestExternalPaging(t *testing.T) {
	m := New(itemColumns(), Options{PageSize: 2, Paging: ExternalPaging})
	var requested []int
	m.OnPage(func(page int) tea.Cmd {
		requested = append(requested, page)
		return func() tea.Msg { return page }
	})
	m.SetRows(sampleItems()[:2])
	m.SetTotal(5)

	assert.Equal(t, 3, m.Pages())
	assert.Equal(t, []int64{1, 2}, ids(m.PageRows()), "rows are the server page")

	cmd := m.NextPage()
	require.NotNil(t, cmd)
	assert.Equal(t, 2, cmd())
	assert.Equal(t, []int{2}, requested)
	assert.Equal(t, 2, m.Page())

	m.SetPage(1)
	assert.Nil(t, m.PrevPage())
	assert.Equal(t, []int{2}, requested)
}

func TestCursorFollowsEntityAcrossUpdates(t *testing.T) {
	m := New(itemColumns(), Options{DefaultSort: "name"})
	m.SetRows(sampleItems())
	m.MoveDown()
	m.MoveDown()
	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, int64(4), cur.ID)

	rows := append([]model.Item{{ID: 9, Name: "Alcohol swabs"}}, sampleItems()...)
	m.SetRows(rows)
	cur, _ = m.Current()
	assert.Equal(t, int64(4), cur.ID)
}

func TestRowActions(t *testing.T) {
	m := New(itemColumns(), Options{})
	m.SetRows(sampleItems())
	var got []int64
	m.SetActions(Action[model.Item]{
		Binding: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Run: func(row model.Item) tea.Cmd {
			got = append(got, row.ID)
			return nil
		},
	})

	m.MoveDown()
	_, handled := m.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	assert.True(t, handled)
	_, handled = m.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.False(t, handled)
	assert.Equal(t, []int64{2}, got)
	assert.Len(t, m.ActionBindings(), 1)
}

func TestFilterBySelectedValue(t *testing.T) {
	m := New(itemColumns(), Options{})
	m.SetRows(sampleItems())
	m.NextColumn()

	assert.Equal(t, "Filter applied from selected value", m.CycleFilterBySelectedValue())
	assert.Equal(t, []int64{1, 4}, ids(m.Rows()))
	assert.Contains(t, m.TableMeta(), `filter CATEGORY="Fluids"`)
	assert.Equal(t, "Filter cleared", m.CycleFilterBySelectedValue())
	assert.Len(t, m.Rows(), 4)
}

func TestColumnVisibilityAndPrefs(t *testing.T) {
	m := New(itemColumns(), Options{})
	m.SetRows(sampleItems())
	m.JumpToColumn(2)
	require.True(t, m.HideActiveColumn())
	m.SortBy("quantity", true)

	p := m.Prefs()
	assert.Equal(t, []string{"category"}, p.HiddenColumns)
	assert.Equal(t, "quantity", p.SortKey)
	assert.True(t, p.SortDesc)

	other := New(itemColumns(), Options{})
	other.SetRows(sampleItems())
	other.ApplyPrefs(p)
	assert.Equal(t, ids(m.Rows()), ids(other.Rows()))
	assert.False(t, other.JumpToColumn(2), "hidden columns cannot be activated")

	other.ShowAllColumns()
	assert.True(t, other.JumpToColumn(2))
}

func TestLoadingAndEmptyStates(t *testing.T) {
	m := New(itemColumns(), Options{Noun: "items", Empty: "No items yet."})
	assert.Contains(t, m.View(100, 12), "No items yet.")

	require.NotNil(t, m.SetLoading(true))
	assert.Nil(t, m.SetLoading(true), "already loading")
	m.SetRows(sampleItems())
	view := m.View(100, 12)
	assert.Contains(t, view, "Loading items...")
	assert.NotContains(t, view, "Saline")

	m.SetLoading(false)
	view = m.View(100, 12)
	assert.Contains(t, view, "Saline")
	assert.Contains(t, view, "120 bags", "custom renderer")
	assert.Contains(t, view, "4 items")
	assert.True(t, strings.Contains(view, "NAME"))
}
