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

// stateKeys maps a key press to the loan state it sets.
var stateKeys = map[string]string{
	"p": domain.LoanPending,
	"a": domain.LoanActive,
	"v": domain.LoanOverdue,
	"d": domain.LoanReturned,
	"x": domain.LoanCancelled,
}

type adminLoansModel struct {
	client    *client.Client
	ctrl      *optimistic.Controller[domain.ID, domain.Loan]
	digital   []domain.DigitalLoan
	showDig   bool
	cursor    int
	filter    int // index into loanFilters
	search    string
	typing    bool
	loading   bool
	reloadDue bool // refresh once nothing is in flight
	err       error
	width     int
	height    int
}

type adminLoansLoadedMsg struct {
	loans []domain.Loan
	err   error
}

func (m adminLoansLoadedMsg) apiErr() error { return m.err }

type digitalLoadedMsg struct {
	loans []domain.DigitalLoan
	err   error
}

func (m digitalLoadedMsg) apiErr() error { return m.err }

func newAdminLoansModel(c *client.Client) adminLoansModel {
	return adminLoansModel{
		client:  c,
		ctrl:    optimistic.New(loanKey, nil),
		loading: true,
	}
}

func (m adminLoansModel) Init() tea.Cmd {
	return m.load()
}

func (m adminLoansModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		loans, err := c.RecentLoans(context.Background(), pageSize)
		return adminLoansLoadedMsg{loans: loans, err: err}
	}
}

func (m adminLoansModel) loadDigital() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		loans, err := c.DigitalLoans(context.Background())
		return digitalLoadedMsg{loans: loans, err: err}
	}
}

func (m adminLoansModel) visible() []domain.Loan {
	return filterLoans(m.ctrl.Items(), loanFilters[m.filter], m.search)
}

func (m adminLoansModel) visibleDigital() []domain.DigitalLoan {
	out := make([]domain.DigitalLoan, 0, len(m.digital))
	for _, d := range m.digital {
		if matches(m.search, d.Titulo, d.Autor, d.Nombre, d.Correo) {
			out = append(out, d)
		}
	}
	return out
}

func (m adminLoansModel) rows() int {
	if m.showDig {
		return len(m.visibleDigital())
	}
	return len(m.visible())
}

func (m adminLoansModel) Update(msg tea.Msg) (adminLoansModel, tea.Cmd) {
	switch msg := msg.(type) {
	case adminLoansLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			if err := m.ctrl.Replace(msg.loans); err != nil {
				m.reloadDue = true
				return m, toast(pendingReloadText)
			}
		}
		m.cursor = clampCursor(m.cursor, m.rows())
		return m, nil

	case digitalLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.digital = msg.loans
		}
		m.cursor = clampCursor(m.cursor, m.rows())
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
		if m.typing {
			switch msg.String() {
			case "enter":
				m.typing = false
			case "esc":
				m.typing = false
				m.search = ""
			default:
				m.search = editRune(m.search, msg.String())
				m.cursor = 0
			}
			return m, nil
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m adminLoansModel) updateList(msg tea.KeyMsg) (adminLoansModel, tea.Cmd) {
	key := msg.String()
	switch key {
	case "/":
		m.typing = true
		return m, nil
	case "w":
		m.showDig = !m.showDig
		m.cursor = 0
		if m.showDig && m.digital == nil {
			m.loading = true
			return m, m.loadDigital()
		}
		return m, nil
	case "r":
		m.loading = true
		if m.showDig {
			return m, m.loadDigital()
		}
		return m, m.load()
	case "f":
		if !m.showDig {
			m.filter = (m.filter + 1) % len(loanFilters)
			m.cursor = 0
		}
		return m, nil
	}

	if m.showDig {
		m.cursor = moveCursor(m.cursor, m.rows(), key)
		return m, nil
	}

	loans := m.visible()
	estado, isState := stateKeys[key]
	if !isState || m.cursor >= len(loans) {
		m.cursor = moveCursor(m.cursor, len(loans), key)
		return m, nil
	}
	loan := loans[m.cursor]
	if loan.Estado == estado {
		return m, toast("already %s", estado)
	}
	next := loan
	next.Estado = estado
	h, err := m.ctrl.Begin(loan.ID, next)
	if err != nil {
		return m, beginFailed(err)
	}
	c := m.client
	res := resultMsg{ok: fmt.Sprintf("%s marked %s", loan.Titulo, estado), fail: "could not update " + loan.Titulo}
	return m, runMutation(m.ctrl, h, res, func(ctx context.Context) (*domain.Loan, error) {
		return nil, c.SetLoanState(ctx, loan.ID, estado)
	})
}

func (m adminLoansModel) editing() bool { return m.typing }

func (m adminLoansModel) helpKeys() string {
	switch {
	case m.typing:
		return helpBar("enter", "apply", "esc", "clear")
	case m.showDig:
		return helpBar("j/k", "nav", "/", "filter", "w", "physical", "r", "reload", "h", "help")
	}
	return helpBar("j/k", "nav", "p/a/v/d/x", "set state", "f", "state filter", "/", "filter", "w", "digital", "r", "reload", "h", "help")
}

func (m adminLoansModel) View() string {
	var b strings.Builder
	title := "Loans"
	if m.showDig {
		title = "Digital loans"
	}
	b.WriteString(" " + sectionHeaderStyle.Render(title))
	if !m.showDig {
		b.WriteString("  " + filterLabel(loanFilters[m.filter]))
	}
	if m.typing {
		b.WriteString("  " + searchStyle.Render("/ ") + m.search + accentStyle.Render("█"))
	} else if m.search != "" {
		b.WriteString("  " + metaStyle.Render("filter: ") + m.search)
	}
	b.WriteString("\n\n")

	if m.showDig {
		return b.String() + m.viewDigital()
	}

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

	titleW := m.width - 62
	if titleW < 18 {
		titleW = 18
	}
	cursor := clampCursor(m.cursor, len(loans))
	start, end := visibleRange(cursor, len(loans), m.height-4)
	for i := start; i < end; i++ {
		l := loans[i]
		st := estadoStyle(l.Estado).Render(l.Estado)
		if m.ctrl.Pending(l.ID) {
			st = pendingStyle.Render(l.Estado + "…")
		}
		line := fmt.Sprintf(" %s  %s  %s  ",
			padRight(l.Titulo, titleW),
			padRight(l.Borrower(), 20),
			padRight(formatDate(l.FechaRecogida)+" → "+formatDate(l.FechaDevolucion), 24),
		)
		if i == cursor {
			b.WriteString(selectedRowBg.Render(selectedStyle.Render(line)) + st + "\n")
		} else {
			b.WriteString(normalStyle.Render(line) + st + "\n")
		}
	}
	return b.String()
}

func (m adminLoansModel) viewDigital() string {
	loans := m.visibleDigital()
	switch {
	case m.loading && m.digital == nil:
		return " " + pendingStyle.Render("loading...") + "\n"
	case m.err != nil && m.digital == nil:
		return " " + errorStyle.Render(client.Message(m.err)) + "\n"
	case len(loans) == 0:
		return " " + dimStyle.Render("no digital loans") + "\n"
	}

	var b strings.Builder
	titleW := m.width - 50
	if titleW < 18 {
		titleW = 18
	}
	cursor := clampCursor(m.cursor, len(loans))
	start, end := visibleRange(cursor, len(loans), m.height-4)
	for i := start; i < end; i++ {
		d := loans[i]
		line := fmt.Sprintf(" %s  %s  %s",
			padRight(d.Titulo, titleW),
			padRight(d.Nombre, 20),
			formatDate(d.FechaPrestamo),
		)
		if i == cursor {
			b.WriteString(selectedRowBg.Render(selectedStyle.Render(line)) + "\n")
		} else {
			b.WriteString(normalStyle.Render(line) + "\n")
		}
	}
	return b.String()
}
