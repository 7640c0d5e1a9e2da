// Package dialog drives the Add, Edit, Delete and Action dialogs of a
// resource screen against its resource.Container.
package dialog

import (
	tea "github.com/charmbracelet/bubbletea"

	"welfaredesk/internal/api"
	"welfaredesk/internal/model"
	"welfaredesk/internal/resource"
)

// State is where a dialog is in its lifecycle.
type State int

const (
	Closed State = iota
	OpenIdle
	OpenPending
	OpenError
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case OpenIdle:
		return "open"
	case OpenPending:
		return "pending"
	case OpenError:
		return "error"
	}
	return "unknown"
}

// Kind identifies one of the dialogs.
type Kind int

const (
	Add Kind = iota
	Edit
	Delete
	// Action posts to a named action endpoint and shares Edit's lifecycle.
	Action
	kindCount
)

func (k Kind) String() string {
	switch k {
	case Add:
		return "add"
	case Edit:
		return "edit"
	case Delete:
		return "delete"
	case Action:
		return "action"
	}
	return "unknown"
}

func (k Kind) op() resource.Op {
	switch k {
	case Add:
		return resource.OpCreate
	case Edit:
		return resource.OpUpdate
	case Delete:
		return resource.OpDelete
	default:
		return resource.OpAction
	}
}

func kindOf(op resource.Op) (Kind, bool) {
	switch op {
	case resource.OpCreate:
		return Add, true
	case resource.OpUpdate:
		return Edit, true
	case resource.OpDelete:
		return Delete, true
	case resource.OpAction:
		return Action, true
	}
	return 0, false
}

// usesSelection reports whether the dialog works on the selected entity.
func (k Kind) usesSelection() bool {
	return k != Add
}

// Dialog is one dialog's state and inline error.
type Dialog struct {
	state State
	err   string
}

func (d Dialog) State() State { return d.state }
func (d Dialog) Err() string  { return d.err }
func (d Dialog) IsOpen() bool { return d.state != Closed }

func (d *Dialog) open() {
	if d.state == Closed {
		d.state = OpenIdle
		d.err = ""
	}
}

// submit moves an open dialog to pending. A pending or closed dialog
// ignores the submission.
func (d *Dialog) submit() bool {
	if d.state != OpenIdle && d.state != OpenError {
		return false
	}
	d.state = OpenPending
	d.err = ""
	return true
}

func (d *Dialog) succeed() {
	if d.state == OpenPending {
		d.state = Closed
		d.err = ""
	}
}

func (d *Dialog) fail(msg string) {
	if d.state == OpenPending || d.state == OpenIdle || d.state == OpenError {
		d.state = OpenError
		d.err = msg
	}
}

func (d *Dialog) cancel() {
	d.state = Closed
	d.err = ""
}

// Lifecycle coordinates the dialogs of one screen with its container.
type Lifecycle[T model.Entity] struct {
	container *resource.Container[T]
	dialogs   [kindCount]Dialog
	action    string
	// seq is the container dispatch each pending dialog waits for.
	seq [kindCount]uint64
}

// New binds a lifecycle to a container.
func New[T model.Entity](c *resource.Container[T]) *Lifecycle[T] {
	return &Lifecycle[T]{container: c}
}

// Dialog returns the state of one dialog.
func (l *Lifecycle[T]) Dialog(k Kind) Dialog {
	return l.dialogs[k]
}

// Active returns the open dialog, if any.
func (l *Lifecycle[T]) Active() (Kind, bool) {
	for k := Add; k < kindCount; k++ {
		if l.dialogs[k].IsOpen() {
			return k, true
		}
	}
	return 0, false
}

// ActionName is the action of the open Action dialog.
func (l *Lifecycle[T]) ActionName() string {
	return l.action
}

// OpenAdd opens the Add dialog.
func (l *Lifecycle[T]) OpenAdd() {
	l.dialogs[Add].open()
}

// OpenEdit selects item and opens the Edit dialog.
func (l *Lifecycle[T]) OpenEdit(item T) {
	l.container.Select(item)
	l.dialogs[Edit].open()
}

// OpenDelete selects item and opens the delete confirmation.
func (l *Lifecycle[T]) OpenDelete(item T) {
	l.container.Select(item)
	l.dialogs[Delete].open()
}

// OpenAction selects item and opens the dialog for a named action.
func (l *Lifecycle[T]) OpenAction(item T, action string) {
	l.container.Select(item)
	l.action = action
	l.dialogs[Action].open()
}

// Submit sends the dialog's operation. It returns nil when the dialog is
// not in a submittable state or validation failed locally.
func (l *Lifecycle[T]) Submit(k Kind, p api.Payload) tea.Cmd {
	d := &l.dialogs[k]
	if !d.submit() {
		return nil
	}

	var cmd tea.Cmd
	if k == Add {
		cmd = l.container.Create(p)
	} else {
		selected, ok := l.container.Selected()
		if !ok {
			d.fail("No " + l.container.Name() + " selected")
			return nil
		}
		switch k {
		case Edit:
			cmd = l.container.Update(selected.GetID(), p)
		case Delete:
			cmd = l.container.Delete(selected.GetID())
		default:
			cmd = l.container.Action(selected.GetID(), l.action, p)
		}
	}
	l.seq[k] = l.container.LastSeq()
	return cmd
}

// Reject fails an open dialog without contacting the backend, for local
// validation errors.
func (l *Lifecycle[T]) Reject(k Kind, msg string) {
	l.dialogs[k].fail(msg)
}

// Cancel closes a dialog, clearing its operation's error and, for dialogs
// bound to a row, the selection.
func (l *Lifecycle[T]) Cancel(k Kind) {
	l.dialogs[k].cancel()
	l.container.ClearError(k.op())
	if k.usesSelection() {
		l.container.ClearSelection()
	}
	if k == Action {
		l.action = ""
	}
}

// Apply hands a result to the container and moves the dialog waiting for
// it. Results of submissions the dialog no longer waits for, such as one
// sent before a cancel, reach the container only. It reports whether the
// operation succeeded.
func (l *Lifecycle[T]) Apply(r resource.Result[T]) bool {
	ok := l.container.Apply(r)

	k, isDialogOp := kindOf(r.Op)
	if !isDialogOp {
		return ok
	}
	d := &l.dialogs[k]
	if d.State() != OpenPending || r.Seq != l.seq[k] {
		return ok
	}

	if ok {
		d.succeed()
		if k.usesSelection() {
			l.container.ClearSelection()
		}
		if k == Action {
			l.action = ""
		}
		l.container.ClearErrors()
		return true
	}
	d.fail(l.container.Status(r.Op).Err)
	return false
}
