// Package nav is the role-filtered sidebar: a tree of menu nodes, the
// expanded-branch set and the route guard.
package nav

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"welfaredesk/internal/model"
)

// Node is a menu entry. A node with Children is a branch; otherwise Route
// names the screen it opens. Roles lists who may see it; empty means any
// signed-in user.
type Node struct {
	Key      string
	Label    string
	Route    string
	Roles    []model.Role
	Children []Node
}

func (n Node) branch() bool { return len(n.Children) > 0 }

// Allowed reports whether role satisfies required. Admins pass every check.
func Allowed(role model.Role, required []model.Role) bool {
	if len(required) == 0 || role == model.RoleAdmin {
		return true
	}
	return slices.Contains(required, role)
}

// Filter returns the nodes visible to role. Branches left without visible
// children are dropped.
func Filter(nodes []Node, role model.Role) []Node {
	var out []Node
	for _, n := range nodes {
		if !Allowed(role, n.Roles) {
			continue
		}
		if n.branch() {
			children := Filter(n.Children, role)
			if len(children) == 0 {
				continue
			}
			n.Children = children
		}
		out = append(out, n)
	}
	return out
}

// Find returns the leaf for route and the keys of its ancestors.
func Find(nodes []Node, route string) (Node, []string, bool) {
	for _, n := range nodes {
		if !n.branch() {
			if n.Route == route {
				return n, nil, true
			}
			continue
		}
		if leaf, path, ok := Find(n.Children, route); ok {
			return leaf, append([]string{n.Key}, path...), true
		}
	}
	return Node{}, nil, false
}

// Guard reports whether role may open route: the route must exist and role
// must be allowed on the leaf and every ancestor.
func Guard(nodes []Node, route string, role model.Role) bool {
	for _, n := range nodes {
		if !n.branch() {
			if n.Route == route {
				return Allowed(role, n.Roles)
			}
			continue
		}
		if _, _, ok := Find(n.Children, route); ok {
			return Allowed(role, n.Roles) && Guard(n.Children, route, role)
		}
	}
	return false
}

// Entry is one visible line of the flattened tree.
type Entry struct {
	Node     Node
	Depth    int
	Expanded bool
}

// Branch reports whether the entry can expand.
func (e Entry) Branch() bool { return e.Node.branch() }

// Tree is the sidebar state for one signed-in user.
type Tree struct {
	roots    []Node
	expanded map[string]bool
	cursor   int
}

// NewTree filters nodes for role.
func NewTree(nodes []Node, role model.Role) *Tree {
	return &Tree{roots: Filter(nodes, role), expanded: map[string]bool{}}
}

// Roots returns the filtered top-level nodes.
func (t *Tree) Roots() []Node { return t.roots }

// Entries flattens the tree through the expanded branches.
func (t *Tree) Entries() []Entry {
	var out []Entry
	var walk func(nodes []Node, depth int)
	walk = func(nodes []Node, depth int) {
		for _, n := range nodes {
			open := n.branch() && t.expanded[n.Key]
			out = append(out, Entry{Node: n, Depth: depth, Expanded: open})
			if open {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(t.roots, 0)
	return out
}

func (t *Tree) IsExpanded(key string) bool { return t.expanded[key] }

// Expanded returns the open branch keys, sorted.
func (t *Tree) Expanded() []string {
	keys := make([]string, 0, len(t.expanded))
	for k := range t.expanded {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Toggle expands or collapses one branch. Other branches keep their state.
func (t *Tree) Toggle(key string) {
	if t.expanded[key] {
		delete(t.expanded, key)
	} else {
		t.expanded[key] = true
	}
	t.clamp()
}

func (t *Tree) Expand(key string) { t.expanded[key] = true }

func (t *Tree) Collapse(key string) {
	delete(t.expanded, key)
	t.clamp()
}

// Reveal expands the ancestors of route and moves the cursor onto it.
func (t *Tree) Reveal(route string) bool {
	_, path, ok := Find(t.roots, route)
	if !ok {
		return false
	}
	for _, k := range path {
		t.expanded[k] = true
	}
	for i, e := range t.Entries() {
		if !e.Branch() && e.Node.Route == route {
			t.cursor = i
			break
		}
	}
	return true
}

func (t *Tree) clamp() {
	n := len(t.Entries())
	t.cursor = min(max(0, t.cursor), max(0, n-1))
}

// Current returns the entry under the cursor.
func (t *Tree) Current() (Entry, bool) {
	entries := t.Entries()
	if t.cursor >= len(entries) {
		return Entry{}, false
	}
	return entries[t.cursor], true
}

func (t *Tree) MoveDown() {
	if t.cursor < len(t.Entries())-1 {
		t.cursor++
	}
}

func (t *Tree) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
	}
}

// Activate toggles the branch under the cursor or returns its route.
func (t *Tree) Activate() (string, bool) {
	e, ok := t.Current()
	if !ok {
		return "", false
	}
	if e.Branch() {
		t.Toggle(e.Node.Key)
		return "", false
	}
	return e.Node.Route, true
}

// CollapseCurrent collapses the branch under the cursor, or the parent of a
// leaf, moving the cursor onto the collapsed branch.
func (t *Tree) CollapseCurrent() {
	entries := t.Entries()
	if t.cursor >= len(entries) {
		return
	}
	e := entries[t.cursor]
	if e.Branch() && e.Expanded {
		t.Collapse(e.Node.Key)
		return
	}
	for i := t.cursor - 1; i >= 0; i-- {
		if entries[i].Depth < e.Depth {
			t.cursor = i
			t.Collapse(entries[i].Node.Key)
			return
		}
	}
}

// Styles for View.
type Styles struct {
	Item     lipgloss.Style
	Cursor   lipgloss.Style
	Active   lipgloss.Style
	Branch   lipgloss.Style
	Inactive lipgloss.Style
}

// View renders the tree. active is the open route; focused draws the
// cursor.
func (t *Tree) View(s Styles, active string, focused bool, width int) string {
	var lines []string
	for i, e := range t.Entries() {
		marker := "  "
		if e.Branch() {
			marker = "▸ "
			if e.Expanded {
				marker = "▾ "
			}
		}
		line := strings.Repeat("  ", e.Depth) + marker + e.Node.Label

		style := s.Item
		switch {
		case focused && i == t.cursor:
			style = s.Cursor
		case !e.Branch() && e.Node.Route == active:
			style = s.Active
		case e.Branch():
			style = s.Branch
		case !focused:
			style = s.Inactive
		}
		lines = append(lines, style.Width(width).Render(line))
	}
	return strings.Join(lines, "\n")
}
