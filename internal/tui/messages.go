package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aeternum/aeternum/internal/optimistic"
	"github.com/aeternum/aeternum/pkg/client"
	"github.com/aeternum/aeternum/pkg/domain"
)

// toastTTL is how long a toast stays on screen.
const toastTTL = 3 * time.Second

// toastMsg asks the App to show a transient status line.
type toastMsg string

// toastExpiredMsg clears the toast it was scheduled for.
type toastExpiredMsg struct{ id int }

func toast(format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return toastMsg(text) }
}

// apiResult is implemented by messages that carry an API error, so the App
// can end the session when the server answers 401.
type apiResult interface {
	apiErr() error
}

// resultMsg reports a finished server action, optimistic or not.
type resultMsg struct {
	ok     string
	fail   string
	err    error
	reload bool // the view should refetch its list
}

func (m resultMsg) apiErr() error { return m.err }

// text is the toast shown for the result.
func (m resultMsg) text() string {
	if m.err != nil {
		return m.fail + ": " + client.Message(m.err)
	}
	return m.ok
}

// beginFailed turns a rejected Begin into a toast.
func beginFailed(err error) tea.Cmd {
	if errors.Is(err, optimistic.ErrBusy) {
		return toast("busy, try again")
	}
	return toast("%v", err)
}

// runMutation settles h by running call on the command goroutine. A panic in
// call is reported as a failed result; the controller has already rolled back.
func runMutation[T any](
	ctrl *optimistic.Controller[domain.ID, T],
	h optimistic.Handle[domain.ID],
	res resultMsg,
	call func(ctx context.Context) (*T, error),
) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				res.err = fmt.Errorf("%v", r)
				msg = res
			}
		}()
		res.err = ctrl.Do(context.Background(), h, call)
		return res
	}
}

// runAction performs a non-optimistic server call.
func runAction(res resultMsg, call func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		res.err = call(context.Background())
		return res
	}
}

// pendingReloadText is shown when a fresh list arrives while mutations are
// still in flight.
const pendingReloadText = "changes still pending, the list refreshes once they settle"

// reloadNow reports whether a list refresh should start. want asks for one;
// a refresh asked for while mutations are in flight stays due until the
// last of them settles.
func reloadNow(due *bool, want bool, inFlight int) bool {
	if want {
		*due = true
	}
	if !*due || inFlight > 0 {
		return false
	}
	*due = false
	return true
}
