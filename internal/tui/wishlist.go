package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aeternum/aeternum/internal/optimistic"
	"github.com/aeternum/aeternum/pkg/client"
	"github.com/aeternum/aeternum/pkg/domain"
)

type wishlistModel struct {
	client    *client.Client
	ctrl      *optimistic.Controller[domain.ID, domain.WishlistItem]
	cursor    int
	loading   bool
	reloadDue bool // refresh once nothing is in flight
	err       error
	pickup    *form // open while requesting a physical loan
	pickupID  domain.ID
	width     int
	height    int
}

type wishlistLoadedMsg struct {
	items []domain.WishlistItem
	err   error
}

func (m wishlistLoadedMsg) apiErr() error { return m.err }

func wishlistKey(w domain.WishlistItem) domain.ID { return w.ID }

func newWishlistModel(c *client.Client) wishlistModel {
	return wishlistModel{
		client:  c,
		ctrl:    optimistic.New(wishlistKey, nil),
		loading: true,
	}
}

func (m wishlistModel) Init() tea.Cmd {
	return m.load()
}

func (m wishlistModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		items, err := c.Wishlist(context.Background())
		return wishlistLoadedMsg{items: items, err: err}
	}
}

func (m wishlistModel) Update(msg tea.Msg) (wishlistModel, tea.Cmd) {
	switch msg := msg.(type) {
	case wishlistLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			if err := m.ctrl.Replace(msg.items); err != nil {
				m.reloadDue = true
				return m, toast(pendingReloadText)
			}
		}
		m.cursor = clampCursor(m.cursor, m.ctrl.Len())
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
		if m.pickup != nil {
			return m.updatePickup(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m wishlistModel) updateList(msg tea.KeyMsg) (wishlistModel, tea.Cmd) {
	items := m.ctrl.Items()
	key := msg.String()
	switch key {
	case "r":
		m.loading = true
		return m, m.load()
	case "d", "x":
		if m.cursor >= len(items) {
			return m, nil
		}
		item := items[m.cursor]
		h, err := m.ctrl.BeginDelete(item.ID)
		if err != nil {
			return m, beginFailed(err)
		}
		m.cursor = clampCursor(m.cursor, m.ctrl.Len())
		c := m.client
		res := resultMsg{ok: fmt.Sprintf("%q removed", item.Titulo), fail: "could not remove " + item.Titulo}
		return m, runMutation(m.ctrl, h, res, func(ctx context.Context) (*domain.WishlistItem, error) {
			return nil, c.RemoveFromWishlist(ctx, item.ID)
		})
	case "p":
		if m.cursor >= len(items) {
			return m, nil
		}
		item := items[m.cursor]
		if item.ID.Local() {
			return m, toast("busy, try again")
		}
		f := newForm("Request pickup: "+item.Titulo,
			formField{label: "Pickup date", key: "FechaRecogida", value: time.Now().AddDate(0, 0, 1).Format("2006-01-02"), placeholder: "YYYY-MM-DD"},
		)
		m.pickup = &f
		m.pickupID = item.ID
		return m, nil
	default:
		m.cursor = moveCursor(m.cursor, len(items), key)
	}
	return m, nil
}

func (m wishlistModel) updatePickup(msg tea.KeyMsg) (wishlistModel, tea.Cmd) {
	f, submit, cancel := m.pickup.update(msg.String())
	if cancel {
		m.pickup = nil
		return m, nil
	}
	if !submit {
		m.pickup = &f
		return m, nil
	}

	req := domain.LoanRequest{LibroID: m.pickupID, FechaRecogida: f.value("FechaRecogida")}
	f, ok := f.check(req)
	if !ok {
		m.pickup = &f
		return m, nil
	}
	m.pickup = nil
	c := m.client
	res := resultMsg{ok: "pickup requested for " + req.FechaRecogida, fail: "could not request pickup"}
	return m, runAction(res, func(ctx context.Context) error {
		return c.RequestLoan(ctx, req)
	})
}

func (m wishlistModel) editing() bool { return m.pickup != nil }

func (m wishlistModel) helpKeys() string {
	if m.pickup != nil {
		return helpBar("enter", "request", "esc", "cancel")
	}
	return helpBar("j/k", "nav", "d", "remove", "p", "pickup", "r", "reload", "h", "help", "q", "quit")
}

func (m wishlistModel) View() string {
	if m.pickup != nil {
		return "\n" + m.pickup.View()
	}

	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("My wishlist") + "\n\n")

	items := m.ctrl.Items()
	switch {
	case m.loading && len(items) == 0:
		b.WriteString(" " + pendingStyle.Render("loading...") + "\n")
		return b.String()
	case m.err != nil && len(items) == 0:
		b.WriteString(" " + errorStyle.Render(client.Message(m.err)) + "\n")
		return b.String()
	case len(items) == 0:
		b.WriteString(" " + dimStyle.Render("your wishlist is empty, add books from the catalog (a)") + "\n")
		return b.String()
	}

	titleW := m.width - 44
	if titleW < 20 {
		titleW = 20
	}
	cursor := clampCursor(m.cursor, len(items))
	start, end := visibleRange(cursor, len(items), m.height-4)
	for i := start; i < end; i++ {
		it := items[i]
		avail := fmt.Sprintf("%d available", it.CantidadDisponible)
		line := fmt.Sprintf(" %s  %s  %s", padRight(it.Titulo, titleW), padRight(it.Autor, 20), avail)
		if i == cursor {
			b.WriteString(selectedRowBg.Render(selectedStyle.Render(line)) + "\n")
		} else {
			b.WriteString(normalStyle.Render(line) + "\n")
		}
	}
	return b.String()
}
