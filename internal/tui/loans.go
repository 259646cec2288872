package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aeternum/aeternum/internal/optimistic"
	"github.com/aeternum/aeternum/pkg/client"
	"github.com/aeternum/aeternum/pkg/domain"
)

// loanFilters cycles the state filter; "" shows every loan.
var loanFilters = append([]string{""}, domain.LoanStates...)

type loansModel struct {
	client    *client.Client
	ctrl      *optimistic.Controller[domain.ID, domain.Loan]
	cursor    int
	filter    int // index into loanFilters
	loading   bool
	reloadDue bool // refresh once nothing is in flight
	err       error
	width     int
	height    int
}

type loansLoadedMsg struct {
	loans []domain.Loan
	err   error
}

func (m loansLoadedMsg) apiErr() error { return m.err }

func loanKey(l domain.Loan) domain.ID { return l.ID }

func newLoansModel(c *client.Client) loansModel {
	return loansModel{
		client:  c,
		ctrl:    optimistic.New(loanKey, nil),
		loading: true,
	}
}

func (m loansModel) Init() tea.Cmd {
	return m.load()
}

func (m loansModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		loans, err := c.MyLoans(context.Background())
		return loansLoadedMsg{loans: loans, err: err}
	}
}

// visible returns the loans matching the current state filter.
func (m loansModel) visible() []domain.Loan {
	return filterLoans(m.ctrl.Items(), loanFilters[m.filter], "")
}

// filterLoans keeps loans in estado (any when empty) that match search.
func filterLoans(loans []domain.Loan, estado, search string) []domain.Loan {
	out := make([]domain.Loan, 0, len(loans))
	for _, l := range loans {
		if estado != "" && l.Estado != estado {
			continue
		}
		if !matches(search, l.Titulo, l.Autor, l.Borrower(), l.Correo) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (m loansModel) Update(msg tea.Msg) (loansModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loansLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			if err := m.ctrl.Replace(msg.loans); err != nil {
				m.reloadDue = true
				return m, toast(pendingReloadText)
			}
		}
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		return m, nil

	case resultMsg:
		if reloadNow(&m.reloadDue, msg.reload, m.ctrl.InFlight()) {
			m.loading = true
			return m, m.load()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		loans := m.visible()
		key := msg.String()
		switch key {
		case "r":
			m.loading = true
			return m, m.load()
		case "f":
			m.filter = (m.filter + 1) % len(loanFilters)
			m.cursor = 0
			return m, nil
		case "x":
			if m.cursor >= len(loans) {
				return m, nil
			}
			loan := loans[m.cursor]
			if !loan.Cancellable() {
				return m, toast("only pending requests can be cancelled")
			}
			next := loan
			next.Estado = domain.LoanCancelled
			h, err := m.ctrl.Begin(loan.ID, next)
			if err != nil {
				return m, beginFailed(err)
			}
			c := m.client
			res := resultMsg{ok: "request for " + loan.Titulo + " cancelled", fail: "could not cancel"}
			return m, runMutation(m.ctrl, h, res, func(ctx context.Context) (*domain.Loan, error) {
				return nil, c.CancelLoan(ctx, loan.ID)
			})
		default:
			m.cursor = moveCursor(m.cursor, len(loans), key)
		}
	}
	return m, nil
}

func (m loansModel) editing() bool { return false }

func (m loansModel) helpKeys() string {
	return helpBar("j/k", "nav", "x", "cancel", "f", "filter", "r", "reload", "h", "help", "q", "quit")
}

func (m loansModel) View() string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("My loans") + "  " + filterLabel(loanFilters[m.filter]) + "\n\n")

	loans := m.visible()
	switch {
	case m.loading && m.ctrl.Len() == 0:
		b.WriteString(" " + pendingStyle.Render("loading...") + "\n")
		return b.String()
	case m.err != nil && m.ctrl.Len() == 0:
		b.WriteString(" " + errorStyle.Render(client.Message(m.err)) + "\n")
		return b.String()
	case len(loans) == 0:
		b.WriteString(" " + dimStyle.Render("no loans") + "\n")
		return b.String()
	}

	titleW := m.width - 48
	if titleW < 20 {
		titleW = 20
	}
	cursor := clampCursor(m.cursor, len(loans))
	start, end := visibleRange(cursor, len(loans), m.height-4)
	for i := start; i < end; i++ {
		b.WriteString(m.renderLoan(loans[i], titleW, i == cursor) + "\n")
	}
	return b.String()
}

func (m loansModel) renderLoan(l domain.Loan, titleW int, selected bool) string {
	estado := estadoStyle(l.Estado).Render(padRight(l.Estado, 10))
	if m.ctrl.Pending(l.ID) {
		estado = pendingStyle.Render(padRight(l.Estado+"…", 10))
	}
	dates := fmt.Sprintf("%s → %s", formatDate(l.FechaRecogida), formatDate(l.FechaDevolucion))
	line := fmt.Sprintf(" %s  %s  ", padRight(l.Titulo, titleW), padRight(dates, 24))
	if selected {
		return selectedRowBg.Render(selectedStyle.Render(line)) + estado
	}
	return normalStyle.Render(line) + estado
}

func filterLabel(estado string) string {
	if estado == "" {
		return metaStyle.Render("[all]")
	}
	return estadoStyle(estado).Render("[" + estado + "]")
}
