package nav

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welfaredesk/internal/model"
)

var (
	manager    = model.RoleDialysisManager
	accountant = model.RoleAccountant
	staff      = model.RoleOfficeStaff
)

func menu() []Node {
	return []Node{
		{Key: "home", Label: "Overview", Route: "/"},
		{Key: "dialysis", Label: "Dialysis", Children: []Node{
			{Key: "beds", Label: "Beds", Route: "/dialysis/beds", Roles: []model.Role{manager}},
			{Key: "equipment", Label: "Equipment", Children: []Node{
				{Key: "machines", Label: "Machines", Route: "/dialysis/machines", Roles: []model.Role{manager}},
				{Key: "warnings", Label: "Warnings", Route: "/dialysis/warnings", Roles: []model.Role{manager}},
			}},
			{Key: "appointments", Label: "Appointments", Route: "/dialysis/appointments", Roles: []model.Role{manager, staff}},
		}},
		{Key: "accounts", Label: "Accounts", Roles: []model.Role{accountant}, Children: []Node{
			{Key: "expenses", Label: "Expenses", Route: "/accounts/expenses"},
		}},
	}
}

func labels(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Node.Label)
	}
	return out
}

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed(staff, nil))
	assert.True(t, Allowed(model.RoleAdmin, []model.Role{accountant}))
	assert.True(t, Allowed(accountant, []model.Role{manager, accountant}))
	assert.False(t, Allowed(staff, []model.Role{accountant}))
	assert.False(t, Allowed("", []model.Role{accountant}))
}

func TestFilterDropsEmptyBranches(t *testing.T) {
	got := Filter(menu(), staff)
	require.Len(t, got, 2)
	assert.Equal(t, "home", got[0].Key)
	assert.Equal(t, "dialysis", got[1].Key)
	require.Len(t, got[1].Children, 1, "equipment has nothing for staff")
	assert.Equal(t, "appointments", got[1].Children[0].Key)

	assert.Len(t, Filter(menu(), model.RoleAdmin), 3)
}

func TestGuard(t *testing.T) {
	nodes := menu()
	assert.True(t, Guard(nodes, "/dialysis/machines", manager))
	assert.False(t, Guard(nodes, "/dialysis/machines", staff))
	assert.True(t, Guard(nodes, "/accounts/expenses", accountant))
	assert.False(t, Guard(nodes, "/accounts/expenses", manager), "ancestor roles apply")
	assert.False(t, Guard(nodes, "/nowhere", model.RoleAdmin))
	assert.True(t, Guard(nodes, "/", staff))
}

func TestExpandCollapseByKey(t *testing.T) {
	tree := NewTree(menu(), model.RoleAdmin)
	assert.Equal(t, []string{"Overview", "Dialysis", "Accounts"}, labels(tree.Entries()))

	tree.Toggle("dialysis")
	tree.Toggle("accounts")
	tree.Toggle("equipment")
	assert.Equal(t, []string{
		"Overview", "Dialysis", "Beds", "Equipment", "Machines", "Warnings", "Appointments", "Accounts", "Expenses",
	}, labels(tree.Entries()))

	// Collapsing one branch leaves siblings and nested state alone.
	tree.Toggle("dialysis")
	assert.Equal(t, []string{"Overview", "Dialysis", "Accounts", "Expenses"}, labels(tree.Entries()))
	assert.True(t, tree.IsExpanded("equipment"))
	assert.Equal(t, []string{"accounts", "equipment"}, tree.Expanded())
	tree.Toggle("dialysis")
	assert.Contains(t, labels(tree.Entries()), "Machines")
}

func TestActivateAndReveal(t *testing.T) {
	tree := NewTree(menu(), manager)
	tree.MoveDown()
	route, ok := tree.Activate()
	assert.False(t, ok, "branches toggle")
	assert.Empty(t, route)
	assert.True(t, tree.IsExpanded("dialysis"))

	tree.MoveDown()
	route, ok = tree.Activate()
	require.True(t, ok)
	assert.Equal(t, "/dialysis/beds", route)

	require.True(t, tree.Reveal("/dialysis/warnings"))
	e, _ := tree.Current()
	assert.Equal(t, "Warnings", e.Node.Label)
	assert.Equal(t, 2, e.Depth)

	tree.CollapseCurrent()
	e, _ = tree.Current()
	assert.Equal(t, "Equipment", e.Node.Label)
	assert.False(t, tree.IsExpanded("equipment"))

	assert.False(t, tree.Reveal("/accounts/expenses"), "filtered out for this role")
}

func TestView(t *testing.T) {
	tree := NewTree(menu(), model.RoleAdmin)
	tree.Toggle("dialysis")
	s := Styles{Item: lipgloss.NewStyle(), Cursor: lipgloss.NewStyle(), Active: lipgloss.NewStyle(), Branch: lipgloss.NewStyle(), Inactive: lipgloss.NewStyle()}
	out := tree.View(s, "/dialysis/beds", true, 30)
	assert.Contains(t, out, "▾ Dialysis")
	assert.Contains(t, out, "▸ Equipment")
	assert.Contains(t, out, "    Beds")
}
