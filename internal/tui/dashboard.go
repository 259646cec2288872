package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/aeternum/aeternum/pkg/client"
	"github.com/aeternum/aeternum/pkg/domain"
)

const (
	dashboardRecent  = 5
	dashboardPopular = 5
	chartWidth       = 30
)

// dashboard is everything the librarian landing view shows.
type dashboard struct {
	stats   *domain.GeneralStats
	alerts  *domain.Alerts
	monthly []domain.MonthlyLoans
	popular []domain.PopularBook
	recent  []domain.Loan
}

type dashboardModel struct {
	client    *client.Client
	data      dashboard
	popularBy string
	loading   bool
	err       error
	width     int
}

type dashboardLoadedMsg struct {
	data dashboard
	err  error
}

func (m dashboardLoadedMsg) apiErr() error { return m.err }

func newDashboardModel(c *client.Client) dashboardModel {
	return dashboardModel{client: c, popularBy: client.PopularByLoans, loading: true}
}

func (m dashboardModel) Init() tea.Cmd {
	return m.load()
}

func (m dashboardModel) load() tea.Cmd {
	c, by := m.client, m.popularBy
	return func() tea.Msg {
		var d dashboard
		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() (err error) {
			d.stats, err = c.GeneralStats(ctx)
			return err
		})
		g.Go(func() (err error) {
			d.alerts, err = c.Alerts(ctx)
			return err
		})
		g.Go(func() (err error) {
			d.monthly, err = c.MonthlyLoans(ctx)
			return err
		})
		g.Go(func() (err error) {
			d.popular, err = c.PopularBooks(ctx, by)
			return err
		})
		g.Go(func() (err error) {
			d.recent, err = c.RecentLoans(ctx, dashboardRecent)
			return err
		})
		if err := g.Wait(); err != nil {
			return dashboardLoadedMsg{err: err}
		}
		return dashboardLoadedMsg{data: d}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.data = msg.data
		}
		return m, nil

	case resultMsg:
		if msg.reload {
			return m, m.load()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.load()
		case "p":
			if m.popularBy == client.PopularByLoans {
				m.popularBy = client.PopularByWishlist
			} else {
				m.popularBy = client.PopularByLoans
			}
			m.loading = true
			return m, m.load()
		}
	}
	return m, nil
}

func (m dashboardModel) editing() bool { return false }

func (m dashboardModel) helpKeys() string {
	return helpBar("r", "reload", "p", "popular by loans/wishlist", "h", "help", "q", "quit")
}

func (m dashboardModel) View() string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("Dashboard"))
	if m.loading {
		b.WriteString("  " + pendingStyle.Render("refreshing..."))
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(" " + errorStyle.Render(client.Message(m.err)) + "\n")
		if m.data.stats == nil {
			return b.String()
		}
		b.WriteString("\n")
	}
	if m.data.stats == nil {
		return b.String()
	}

	s := m.data.stats
	b.WriteString(" " + counter("active", s.TotalActivos, okStyle) +
		"   " + counter("to approve", s.PendientesAprobar, pendingStyle) +
		"   " + counter("pickup today", s.ParaRecogerHoy, accentStyle) +
		"   " + counter("overdue", s.Vencidos, errorStyle) + "\n\n")

	if a := m.data.alerts; a != nil && (len(a.RecogenHoy) > 0 || len(a.PorVencer) > 0) {
		b.WriteString(" " + sectionHeaderStyle.Render("Alerts") + "\n")
		for _, al := range a.RecogenHoy {
			b.WriteString("  " + accentStyle.Render("pickup ") + normalStyle.Render(al.Titulo) + metaStyle.Render("  "+al.Nombre+" "+al.Apellido) + "\n")
		}
		for _, al := range a.PorVencer {
			b.WriteString("  " + errorStyle.Render("due    ") + normalStyle.Render(al.Titulo) + metaStyle.Render("  "+al.Nombre+" "+al.Apellido+"  "+formatDate(al.FechaDevolucion)) + "\n")
		}
		b.WriteString("\n")
	}

	if len(m.data.monthly) > 0 {
		b.WriteString(" " + sectionHeaderStyle.Render("Loans per month") + "\n")
		b.WriteString(renderChart(m.data.monthly))
		b.WriteString("\n")
	}

	by := "loans"
	if m.popularBy == client.PopularByWishlist {
		by = "wishlist"
	}
	b.WriteString(" " + sectionHeaderStyle.Render("Popular by "+by) + "\n")
	if len(m.data.popular) == 0 {
		b.WriteString("  " + dimStyle.Render("nothing yet") + "\n")
	}
	for i, p := range m.data.popular {
		if i == dashboardPopular {
			break
		}
		b.WriteString(fmt.Sprintf("  %s %s  %s\n", metaStyle.Render(fmt.Sprintf("%d.", i+1)), padRight(p.Titulo, 36), dimStyle.Render(fmt.Sprintf("%d", p.Total))))
	}
	b.WriteString("\n")

	b.WriteString(" " + sectionHeaderStyle.Render("Recent requests") + "\n")
	if len(m.data.recent) == 0 {
		b.WriteString("  " + dimStyle.Render("none") + "\n")
	}
	for _, l := range m.data.recent {
		b.WriteString(fmt.Sprintf("  %s  %s  %s\n", padRight(l.Titulo, 32), padRight(l.Borrower(), 20), estadoStyle(l.Estado).Render(l.Estado)))
	}
	return b.String()
}

func counter(label string, n int, style lipgloss.Style) string {
	return style.Render(fmt.Sprintf("%d", n)) + " " + metaStyle.Render(label)
}

// renderChart draws one horizontal bar per month scaled to the busiest one.
func renderChart(series []domain.MonthlyLoans) string {
	peak := 0
	for _, p := range series {
		if p.Total > peak {
			peak = p.Total
		}
	}
	var b strings.Builder
	for _, p := range series {
		width := 0
		if peak > 0 {
			width = p.Total * chartWidth / peak
		}
		if width == 0 && p.Total > 0 {
			width = 1
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			metaStyle.Render(padRight(p.Mes, 8)),
			barStyle.Render(strings.Repeat("█", width))+strings.Repeat(" ", chartWidth-width),
			dimStyle.Render(fmt.Sprintf("%d", p.Total)),
		))
	}
	return b.String()
}
