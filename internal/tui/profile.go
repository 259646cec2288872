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

// profileModel shows the signed-in account and lets its owner edit or
// deactivate it. The record lives in a one-item controller so edits show
// at once and roll back when refused.
type profileModel struct {
	client  *client.Client
	ctrl    *optimistic.Controller[domain.ID, domain.User]
	id      domain.ID
	edit    *form
	confirm bool // waiting for y to deactivate
	loading bool
	err     error
	width   int
	height  int
}

type profileLoadedMsg struct {
	user *domain.User
	err  error
}

func (m profileLoadedMsg) apiErr() error { return m.err }

// deactivatedMsg reports DELETE /users/me. On success the App signs out.
type deactivatedMsg struct {
	message string
	err     error
}

func (m deactivatedMsg) apiErr() error { return m.err }

func newProfileModel(c *client.Client) profileModel {
	return profileModel{
		client:  c,
		ctrl:    optimistic.New(userKey, nil),
		loading: true,
	}
}

func (m profileModel) Init() tea.Cmd {
	return m.load()
}

func (m profileModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		u, err := c.Me(context.Background())
		return profileLoadedMsg{user: u, err: err}
	}
}

// user returns the shown record.
func (m profileModel) user() (domain.User, bool) {
	if m.id == "" {
		return domain.User{}, false
	}
	return m.ctrl.Get(m.id)
}

func (m profileModel) Update(msg tea.Msg) (profileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		if err := m.ctrl.Replace([]domain.User{*msg.user}); err != nil {
			return m, toast(pendingReloadText)
		}
		m.id = msg.user.ID
		return m, nil

	case deactivatedMsg:
		// Only failures get here; the App handles success.
		return m, toast("could not deactivate: %s", client.Message(msg.err))

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.edit != nil:
			return m.updateForm(msg)
		case m.confirm:
			m.confirm = false
			if msg.String() != "y" {
				return m, toast("deactivation cancelled")
			}
			c := m.client
			return m, func() tea.Msg {
				text, err := c.DeactivateMe(context.Background())
				return deactivatedMsg{message: text, err: err}
			}
		}
		return m.updateView(msg)
	}
	return m, nil
}

func (m profileModel) updateView(msg tea.KeyMsg) (profileModel, tea.Cmd) {
	u, ok := m.user()
	switch msg.String() {
	case "r":
		m.loading = true
		return m, m.load()
	case "e":
		if !ok {
			return m, nil
		}
		if m.ctrl.Pending(u.ID) {
			return m, toast("busy, try again")
		}
		f := profileForm(u)
		m.edit = &f
	case "D":
		if ok {
			m.confirm = true
		}
	}
	return m, nil
}

func profileForm(u domain.User) form {
	return newForm("Edit profile",
		formField{label: "First name", key: "Nombre", value: u.Nombre},
		formField{label: "Last name", key: "Apellido", value: u.Apellido},
		formField{label: "Email", key: "Correo", value: u.Correo},
		formField{label: "ID type", key: "TipoIdentificacion", value: u.TipoIdentificacion, placeholder: "CC, TI, CE"},
		formField{label: "ID number", key: "NumIdentificacion", value: u.NumIdentificacion},
	)
}

func (m profileModel) updateForm(msg tea.KeyMsg) (profileModel, tea.Cmd) {
	f, submit, cancel := m.edit.update(msg.String())
	if cancel {
		m.edit = nil
		return m, nil
	}
	if !submit {
		m.edit = &f
		return m, nil
	}

	p := domain.ProfileUpdate{
		Nombre:             f.value("Nombre"),
		Apellido:           f.value("Apellido"),
		Correo:             f.value("Correo"),
		TipoIdentificacion: f.value("TipoIdentificacion"),
		NumIdentificacion:  f.value("NumIdentificacion"),
	}
	f, ok := f.check(p)
	if !ok {
		m.edit = &f
		return m, nil
	}
	m.edit = nil

	prev, found := m.user()
	if !found {
		return m, toast("profile not loaded")
	}
	next := prev
	next.Nombre, next.Apellido, next.Correo = p.Nombre, p.Apellido, p.Correo
	next.TipoIdentificacion, next.NumIdentificacion = p.TipoIdentificacion, p.NumIdentificacion
	h, err := m.ctrl.Begin(prev.ID, next)
	if err != nil {
		return m, beginFailed(err)
	}
	c := m.client
	res := resultMsg{ok: "profile updated", fail: "could not update profile"}
	return m, runMutation(m.ctrl, h, res, func(ctx context.Context) (*domain.User, error) {
		u, err := c.UpdateMe(ctx, p)
		if err != nil || u.ID != prev.ID {
			return nil, err
		}
		return u, nil
	})
}

func (m profileModel) editing() bool { return m.edit != nil || m.confirm }

func (m profileModel) helpKeys() string {
	switch {
	case m.edit != nil:
		return helpBar("tab", "next", "ctrl+s", "save", "esc", "cancel")
	case m.confirm:
		return helpBar("y", "deactivate", "any key", "cancel")
	}
	return helpBar("e", "edit", "D", "deactivate", "r", "reload", "h", "help", "q", "quit")
}

func (m profileModel) View() string {
	if m.edit != nil {
		return "\n" + m.edit.View()
	}

	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("My profile") + "\n\n")

	u, ok := m.user()
	switch {
	case m.loading && !ok:
		b.WriteString(" " + pendingStyle.Render("loading...") + "\n")
		return b.String()
	case m.err != nil && !ok:
		b.WriteString(" " + errorStyle.Render("profile unavailable: "+client.Message(m.err)) + "\n")
		return b.String()
	case !ok:
		return b.String()
	}

	pending := ""
	if m.ctrl.Pending(u.ID) {
		pending = pendingStyle.Render(" saving…")
	}
	idDoc := strings.TrimSpace(u.TipoIdentificacion + " " + u.NumIdentificacion)
	if idDoc == "" {
		idDoc = "-"
	}
	rows := []struct{ label, value string }{
		{"Name", u.FullName()},
		{"Email", u.Correo},
		{"Role", u.Rol},
		{"Status", u.Estado},
		{"Document", idDoc},
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf(" %s %s\n", metaStyle.Render(padRight(r.label, 10)), normalStyle.Render(r.value)))
	}
	b.WriteString(pending + "\n")
	if m.confirm {
		b.WriteString("\n " + errorStyle.Render("Deactivate your account? You will be signed out. Press y to confirm.") + "\n")
	}
	return b.String()
}
