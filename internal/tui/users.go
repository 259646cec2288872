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

type usersModel struct {
	client    *client.Client
	ctrl      *optimistic.Controller[domain.ID, domain.User]
	cursor    int
	search    string
	filter    bool // editing the search field
	edit      *form
	editID    domain.ID // empty while creating
	loading   bool
	reloadDue bool // refresh once nothing is in flight
	err       error
	width     int
	height    int
}

type usersLoadedMsg struct {
	users []domain.User
	err   error
}

func (m usersLoadedMsg) apiErr() error { return m.err }

func userKey(u domain.User) domain.ID { return u.ID }

func newUsersModel(c *client.Client) usersModel {
	return usersModel{
		client:  c,
		ctrl:    optimistic.New(userKey, nil),
		loading: true,
	}
}

func (m usersModel) Init() tea.Cmd {
	return m.load()
}

func (m usersModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		users, err := c.ListUsers(context.Background())
		return usersLoadedMsg{users: users, err: err}
	}
}

func (m usersModel) visible() []domain.User {
	all := m.ctrl.Items()
	out := make([]domain.User, 0, len(all))
	for _, u := range all {
		if matches(m.search, u.FullName(), u.Correo, u.NumIdentificacion, u.Rol) {
			out = append(out, u)
		}
	}
	return out
}

func (m usersModel) Update(msg tea.Msg) (usersModel, tea.Cmd) {
	switch msg := msg.(type) {
	case usersLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			if err := m.ctrl.Replace(msg.users); err != nil {
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
		switch {
		case m.edit != nil:
			return m.updateForm(msg)
		case m.filter:
			switch msg.String() {
			case "enter":
				m.filter = false
			case "esc":
				m.filter = false
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

func (m usersModel) updateList(msg tea.KeyMsg) (usersModel, tea.Cmd) {
	users := m.visible()
	key := msg.String()
	switch key {
	case "/":
		m.filter = true
		return m, nil
	case "r":
		m.loading = true
		return m, m.load()
	case "n":
		f := newForm("New account",
			formField{label: "First name", key: "Nombre"},
			formField{label: "Last name", key: "Apellido"},
			formField{label: "Email", key: "Correo", placeholder: "user@example.com"},
			formField{label: "Password", key: "Clave", placeholder: "at least 8 characters", masked: true},
			formField{label: "Role", key: "Rol", value: domain.RoleUser, placeholder: "usuario or bibliotecario"},
			formField{label: "ID type", key: "TipoIdentificacion", placeholder: "CC, TI, CE"},
			formField{label: "ID number", key: "NumIdentificacion"},
		)
		m.edit = &f
		m.editID = ""
		return m, nil
	}

	if m.cursor >= len(users) {
		return m, nil
	}
	u := users[m.cursor]

	switch key {
	case "t", " ", "space":
		if u.ID.Local() {
			return m, toast("busy, try again")
		}
		next := u
		next.Estado = domain.ToggledStatus(u.Estado)
		h, err := m.ctrl.Begin(u.ID, next)
		if err != nil {
			return m, beginFailed(err)
		}
		c, active := m.client, next.Active()
		verb := "disabled"
		if active {
			verb = "enabled"
		}
		res := resultMsg{ok: u.FullName() + " " + verb, fail: "could not update " + u.FullName()}
		return m, runMutation(m.ctrl, h, res, func(ctx context.Context) (*domain.User, error) {
			return nil, c.SetUserActive(ctx, u.ID, active)
		})
	case "e", "enter":
		if u.ID.Local() {
			return m, toast("busy, try again")
		}
		f := newForm("Edit "+u.FullName(),
			formField{label: "First name", key: "Nombre", value: u.Nombre},
			formField{label: "Last name", key: "Apellido", value: u.Apellido},
			formField{label: "Email", key: "Correo", value: u.Correo},
			formField{label: "ID type", key: "TipoIdentificacion", value: u.TipoIdentificacion},
			formField{label: "ID number", key: "NumIdentificacion", value: u.NumIdentificacion},
		)
		m.edit = &f
		m.editID = u.ID
		return m, nil
	default:
		m.cursor = moveCursor(m.cursor, len(users), key)
	}
	return m, nil
}

func (m usersModel) updateForm(msg tea.KeyMsg) (usersModel, tea.Cmd) {
	f, submit, cancel := m.edit.update(msg.String())
	if cancel {
		m.edit = nil
		return m, nil
	}
	if !submit {
		m.edit = &f
		return m, nil
	}
	if m.editID == "" {
		return m.submitCreate(f)
	}
	return m.submitEdit(f)
}

func (m usersModel) submitCreate(f form) (usersModel, tea.Cmd) {
	req := client.RegisterRequest{
		Nombre:             f.value("Nombre"),
		Apellido:           f.value("Apellido"),
		Correo:             f.value("Correo"),
		Clave:              f.value("Clave"),
		Rol:                f.value("Rol"),
		TipoIdentificacion: f.value("TipoIdentificacion"),
		NumIdentificacion:  f.value("NumIdentificacion"),
		Consent:            true,
	}
	f, ok := f.check(req)
	if !ok {
		m.edit = &f
		return m, nil
	}

	draft := domain.User{
		ID:                 domain.ID(domain.LocalIDPrefix + m.ctrl.TempID()),
		Nombre:             req.Nombre,
		Apellido:           req.Apellido,
		Correo:             req.Correo,
		Rol:                req.Rol,
		TipoIdentificacion: req.TipoIdentificacion,
		NumIdentificacion:  req.NumIdentificacion,
		Estado:             domain.StatusActive,
	}
	h, err := m.ctrl.BeginCreate(draft)
	if err != nil {
		return m, beginFailed(err)
	}
	m.edit = nil
	m.cursor = 0

	// Without an id in the response the list is refetched.
	c := m.client
	res := resultMsg{ok: "account created for " + draft.FullName(), fail: "could not create account"}
	return m, func() tea.Msg {
		var gotID bool
		out := runMutation(m.ctrl, h, res, func(ctx context.Context) (*domain.User, error) {
			id, err := c.Register(ctx, req)
			if err != nil {
				return nil, err
			}
			if id == "" {
				return nil, nil
			}
			gotID = true
			created := draft
			created.ID = id
			return &created, nil
		})().(resultMsg)
		out.reload = out.err == nil && !gotID
		return out
	}
}

func (m usersModel) submitEdit(f form) (usersModel, tea.Cmd) {
	req := client.UpdateUserRequest{
		Nombre:             f.value("Nombre"),
		Apellido:           f.value("Apellido"),
		Correo:             f.value("Correo"),
		TipoIdentificacion: f.value("TipoIdentificacion"),
		NumIdentificacion:  f.value("NumIdentificacion"),
	}
	f, ok := f.check(req)
	if !ok {
		m.edit = &f
		return m, nil
	}

	id := m.editID
	current, found := m.ctrl.Get(id)
	if !found {
		m.edit = nil
		return m, toast("account no longer listed")
	}
	next := current
	next.Nombre = req.Nombre
	next.Apellido = req.Apellido
	next.Correo = req.Correo
	next.TipoIdentificacion = req.TipoIdentificacion
	next.NumIdentificacion = req.NumIdentificacion
	h, err := m.ctrl.Begin(id, next)
	if err != nil {
		m.edit = &f
		return m, beginFailed(err)
	}
	m.edit = nil

	c := m.client
	res := resultMsg{ok: "saved " + next.FullName(), fail: "could not save " + current.FullName()}
	return m, runMutation(m.ctrl, h, res, func(ctx context.Context) (*domain.User, error) {
		return c.UpdateUser(ctx, id, req)
	})
}

func (m usersModel) editing() bool { return m.edit != nil || m.filter }

func (m usersModel) helpKeys() string {
	switch {
	case m.edit != nil:
		return helpBar("tab", "next", "ctrl+s", "save", "esc", "cancel")
	case m.filter:
		return helpBar("enter", "apply", "esc", "clear")
	}
	return helpBar("j/k", "nav", "/", "filter", "t", "toggle", "e", "edit", "n", "new", "r", "reload", "h", "help")
}

func (m usersModel) View() string {
	if m.edit != nil {
		return "\n" + m.edit.View()
	}

	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("Users"))
	if m.filter {
		b.WriteString("  " + searchStyle.Render("/ ") + m.search + accentStyle.Render("█"))
	} else if m.search != "" {
		b.WriteString("  " + metaStyle.Render("filter: ") + m.search)
	}
	b.WriteString("\n\n")

	users := m.visible()
	switch {
	case m.loading && m.ctrl.Len() == 0:
		b.WriteString(" " + pendingStyle.Render("loading...") + "\n")
		return b.String()
	case m.err != nil && m.ctrl.Len() == 0:
		b.WriteString(" " + errorStyle.Render(client.Message(m.err)) + "\n")
		return b.String()
	case len(users) == 0:
		b.WriteString(" " + dimStyle.Render("no users") + "\n")
		return b.String()
	}

	nameW := m.width - 60
	if nameW < 16 {
		nameW = 16
	}
	cursor := clampCursor(m.cursor, len(users))
	start, end := visibleRange(cursor, len(users), m.height-4)
	for i := start; i < end; i++ {
		u := users[i]
		estado := u.Estado
		if estado == "" {
			estado = domain.StatusActive
		}
		st := estadoStyle(estado).Render(estado)
		if m.ctrl.Pending(u.ID) {
			st = pendingStyle.Render(estado + "…")
		}
		line := fmt.Sprintf(" %s  %s  %s  ", padRight(u.FullName(), nameW), padRight(u.Correo, 28), padRight(u.Rol, 13))
		if i == cursor {
			b.WriteString(selectedRowBg.Render(selectedStyle.Render(line)) + st + "\n")
		} else {
			b.WriteString(normalStyle.Render(line) + st + "\n")
		}
	}
	return b.String()
}
