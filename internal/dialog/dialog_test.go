package dialog

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welfaredesk/internal/api"
	"welfaredesk/internal/model"
	"welfaredesk/internal/resource"
)

type machineBackend struct {
	rows   []model.Machine
	fail   error
	nextID int64
}

func (b *machineBackend) Name() string { return "Machine" }

func (b *machineBackend) List(context.Context, api.Query) (api.Page[model.Machine], error) {
	return api.Page[model.Machine]{Results: append([]model.Machine(nil), b.rows...)}, b.fail
}

func (b *machineBackend) Get(_ context.Context, id int64) (model.Machine, error) {
	for _, m := range b.rows {
		if m.ID == id {
			return m, b.fail
		}
	}
	return model.Machine{}, &api.Error{Status: http.StatusNotFound, Message: "Machine not found"}
}

func (b *machineBackend) Create(_ context.Context, p api.Payload) (model.Machine, error) {
	if b.fail != nil {
		return model.Machine{}, b.fail
	}
	b.nextID++
	m := model.Machine{ID: b.nextID, MachineName: p["machine_name"].(string)}
	b.rows = append(b.rows, m)
	return m, nil
}

func (b *machineBackend) Update(_ context.Context, id int64, p api.Payload) (model.Machine, error) {
	if b.fail != nil {
		return model.Machine{}, b.fail
	}
	for i := range b.rows {
		if b.rows[i].ID == id {
			if name, ok := p["machine_name"].(string); ok {
				b.rows[i].MachineName = name
			}
			return b.rows[i], nil
		}
	}
	return model.Machine{}, &api.Error{Status: http.StatusNotFound, Message: "Machine not found"}
}

func (b *machineBackend) Delete(_ context.Context, id int64) error {
	if b.fail != nil {
		return b.fail
	}
	for i := range b.rows {
		if b.rows[i].ID == id {
			b.rows = append(b.rows[:i], b.rows[i+1:]...)
			return nil
		}
	}
	return &api.Error{Status: http.StatusNotFound, Message: "Machine not found"}
}

func (b *machineBackend) Action(ctx context.Context, id int64, _ string, p api.Payload) (model.Machine, error) {
	return b.Update(ctx, id, p)
}

func setup(t *testing.T) (*Lifecycle[model.Machine], *resource.Container[model.Machine], *machineBackend) {
	t.Helper()
	backend := &machineBackend{nextID: 3, rows: []model.Machine{
		{ID: 1, MachineName: "Unit-1"},
		{ID: 3, MachineName: "Unit-3"},
	}}
	c := resource.New[model.Machine](backend, resource.Options{})
	l := New(c)
	require.True(t, apply(t, l, c.List(api.Query{})))
	return l, c, backend
}

func apply(t *testing.T, l *Lifecycle[model.Machine], cmd tea.Cmd) bool {
	t.Helper()
	require.NotNil(t, cmd)
	return l.Apply(cmd().(resource.Result[model.Machine]))
}

func TestEditSuccessSyncsAndCloses(t *testing.T) {
	l, c, _ := setup(t)
	m3, _ := c.Find(3)

	l.OpenEdit(m3)
	assert.Equal(t, OpenIdle, l.Dialog(Edit).State())

	cmd := l.Submit(Edit, api.Payload{"machine_name": "Unit-9"})
	assert.Equal(t, OpenPending, l.Dialog(Edit).State())
	assert.Nil(t, l.Submit(Edit, api.Payload{}), "double submit is ignored")

	msg := cmd().(resource.Result[model.Machine])
	// Before the dialog sees the result, the container alone keeps the
	// selection in step with the collection.
	require.True(t, c.Apply(msg))
	got, _ := c.Find(3)
	sel, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, "Unit-9", got.MachineName)
	assert.Equal(t, got, sel)
}

func TestEditLifecycle(t *testing.T) {
	l, c, _ := setup(t)
	m3, _ := c.Find(3)

	l.OpenEdit(m3)
	require.True(t, apply(t, l, l.Submit(Edit, api.Payload{"machine_name": "Unit-9"})))

	assert.Equal(t, Closed, l.Dialog(Edit).State())
	_, ok := c.Selected()
	assert.False(t, ok, "success clears the selection")
	got, _ := c.Find(3)
	assert.Equal(t, "Unit-9", got.MachineName)
}

func TestFailureKeepsDialogOpenAndSelection(t *testing.T) {
	l, c, backend := setup(t)
	m1, _ := c.Find(1)

	backend.fail = &api.Error{Status: http.StatusBadRequest, Message: "machine_name: This field is required."}
	l.OpenEdit(m1)
	assert.False(t, apply(t, l, l.Submit(Edit, api.Payload{"machine_name": ""})))

	d := l.Dialog(Edit)
	assert.Equal(t, OpenError, d.State())
	assert.Equal(t, "machine_name: This field is required.", d.Err())
	sel, ok := c.Selected()
	assert.True(t, ok)
	assert.Equal(t, int64(1), sel.ID)

	// Resubmission goes back to pending and succeeds.
	backend.fail = nil
	cmd := l.Submit(Edit, api.Payload{"machine_name": "Fixed"})
	assert.Equal(t, OpenPending, l.Dialog(Edit).State())
	assert.Empty(t, l.Dialog(Edit).Err())
	assert.True(t, apply(t, l, cmd))
	assert.Equal(t, Closed, l.Dialog(Edit).State())
}

func TestCancelClearsErrorAndSelection(t *testing.T) {
	l, c, backend := setup(t)
	m1, _ := c.Find(1)

	backend.fail = errors.New("boom")
	l.OpenDelete(m1)
	assert.False(t, apply(t, l, l.Submit(Delete, nil)))
	assert.NotEmpty(t, c.Status(resource.OpDelete).Err)

	l.Cancel(Delete)
	assert.Equal(t, Closed, l.Dialog(Delete).State())
	assert.Empty(t, c.Status(resource.OpDelete).Err)
	_, ok := c.Selected()
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len(), "failed delete removed nothing")
}

func TestLateResultAfterCancelLeavesNewerDialogAlone(t *testing.T) {
	l, c, backend := setup(t)
	m1, _ := c.Find(1)
	m3, _ := c.Find(3)

	l.OpenEdit(m1)
	first := l.Submit(Edit, api.Payload{"machine_name": "Unit-1b"})
	require.NotNil(t, first)
	l.Cancel(Edit)

	l.OpenEdit(m3)
	second := l.Submit(Edit, api.Payload{"machine_name": ""})
	require.NotNil(t, second)

	late := first().(resource.Result[model.Machine])
	backend.fail = &api.Error{Status: http.StatusBadRequest, Message: "machine_name: This field is required."}
	failed := second().(resource.Result[model.Machine])

	assert.True(t, l.Apply(late), "the container still takes the earlier update")
	got, _ := c.Find(1)
	assert.Equal(t, "Unit-1b", got.MachineName)
	assert.Equal(t, OpenPending, l.Dialog(Edit).State())
	sel, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(3), sel.ID)

	assert.False(t, l.Apply(failed))
	assert.Equal(t, OpenError, l.Dialog(Edit).State())
	assert.Equal(t, "machine_name: This field is required.", l.Dialog(Edit).Err())
}

func TestAddDoesNotTouchSelection(t *testing.T) {
	l, c, _ := setup(t)
	m1, _ := c.Find(1)
	c.Select(m1)

	l.OpenAdd()
	require.True(t, apply(t, l, l.Submit(Add, api.Payload{"machine_name": "New"})))
	assert.Equal(t, 3, c.Len())
	_, ok := c.Selected()
	assert.True(t, ok)

	l.OpenAdd()
	l.Cancel(Add)
	_, ok = c.Selected()
	assert.True(t, ok)
}

func TestActionDialog(t *testing.T) {
	l, c, _ := setup(t)
	m1, _ := c.Find(1)

	l.OpenAction(m1, "rename")
	assert.Equal(t, "rename", l.ActionName())
	k, open := l.Active()
	require.True(t, open)
	assert.Equal(t, Action, k)

	require.True(t, apply(t, l, l.Submit(Action, api.Payload{"machine_name": "Renamed"})))
	assert.Equal(t, Closed, l.Dialog(Action).State())
	assert.Empty(t, l.ActionName())
	got, _ := c.Find(1)
	assert.Equal(t, "Renamed", got.MachineName)
}

func TestSubmitWithoutSelectionFailsLocally(t *testing.T) {
	l, c, _ := setup(t)
	m1, _ := c.Find(1)
	l.OpenEdit(m1)
	c.ClearSelection()

	assert.Nil(t, l.Submit(Edit, api.Payload{}))
	assert.Equal(t, OpenError, l.Dialog(Edit).State())
	assert.Equal(t, "No Machine selected", l.Dialog(Edit).Err())
}

func TestSubmitOnClosedDialogIsIgnored(t *testing.T) {
	l, _, _ := setup(t)
	assert.Nil(t, l.Submit(Add, api.Payload{}))
	assert.Equal(t, Closed, l.Dialog(Add).State())
}

func TestRejectShowsLocalValidation(t *testing.T) {
	l, _, _ := setup(t)
	l.OpenAdd()
	l.Reject(Add, "amount: Enter a number.")
	assert.Equal(t, OpenError, l.Dialog(Add).State())
	assert.Equal(t, "amount: Enter a number.", l.Dialog(Add).Err())
}

// TestNeverStuckPending drives random open/submit/cancel sequences with
// random outcomes and checks that every submission that reaches the
// backend leaves its dialog out of the pending state once applied.
func TestNeverStuckPending(t *testing.T) {
	for seed := uint64(1); seed <= 100; seed++ {
		rng := rand.New(rand.NewPCG(seed, 99))
		l, c, backend := setup(t)

		for step := 0; step < 40; step++ {
			k := Kind(rng.IntN(int(kindCount)))
			items := c.Items()
			if len(items) == 0 {
				break
			}
			item := items[rng.IntN(len(items))]

			switch k {
			case Add:
				l.OpenAdd()
			case Edit:
				l.OpenEdit(item)
			case Delete:
				l.OpenDelete(item)
			case Action:
				l.OpenAction(item, "rename")
			}

			if rng.IntN(4) == 0 {
				l.Cancel(k)
				require.Equal(t, Closed, l.Dialog(k).State())
				continue
			}

			if rng.IntN(3) == 0 {
				backend.fail = errors.New("boom")
			} else {
				backend.fail = nil
			}
			cmd := l.Submit(k, api.Payload{"machine_name": "m"})
			if cmd == nil {
				require.NotEqual(t, OpenPending, l.Dialog(k).State(), "seed %d step %d", seed, step)
				continue
			}
			l.Apply(cmd().(resource.Result[model.Machine]))
			require.NotEqual(t, OpenPending, l.Dialog(k).State(), "seed %d step %d", seed, step)

			if l.Dialog(k).State() == OpenError && rng.IntN(2) == 0 {
				l.Cancel(k)
			}
		}
	}
}
