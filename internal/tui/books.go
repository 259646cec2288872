package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aeternum/aeternum/internal/optimistic"
	"github.com/aeternum/aeternum/pkg/client"
	"github.com/aeternum/aeternum/pkg/domain"
)

type booksModel struct {
	client    *client.Client
	ctrl      *optimistic.Controller[domain.ID, domain.Book]
	catalogs  *client.Catalogs
	cursor    int
	search    string
	filter    bool
	edit      *form
	editID    domain.ID // empty while creating
	loading   bool
	reloadDue bool // refresh once nothing is in flight
	err       error
	width     int
	height    int
}

type booksLoadedMsg struct {
	books    []domain.Book
	catalogs *client.Catalogs
	err      error
}

func (m booksLoadedMsg) apiErr() error { return m.err }

func bookKey(b domain.Book) domain.ID { return b.ID }

func newBooksModel(c *client.Client) booksModel {
	return booksModel{
		client:  c,
		ctrl:    optimistic.New(bookKey, nil),
		loading: true,
	}
}

func (m booksModel) Init() tea.Cmd {
	return m.load()
}

func (m booksModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx := context.Background()
		books, err := c.ListBooks(ctx)
		if err != nil {
			return booksLoadedMsg{err: err}
		}
		cat, err := c.LoadCatalogs(ctx)
		return booksLoadedMsg{books: books, catalogs: cat, err: err}
	}
}

func (m booksModel) visible() []domain.Book {
	all := m.ctrl.Items()
	out := make([]domain.Book, 0, len(all))
	for _, b := range all {
		if matches(m.search, b.Titulo, m.authorName(b), m.genreName(b)) {
			out = append(out, b)
		}
	}
	return out
}

func (m booksModel) authorName(b domain.Book) string {
	if b.AutorNombre != "" || m.catalogs == nil {
		return b.AutorNombre
	}
	return client.Name(m.catalogs.Autores, b.AutorID)
}

func (m booksModel) genreName(b domain.Book) string {
	if b.GeneroNombre != "" || m.catalogs == nil {
		return b.GeneroNombre
	}
	return client.Name(m.catalogs.Generos, b.GeneroID)
}

func (m booksModel) Update(msg tea.Msg) (booksModel, tea.Cmd) {
	switch msg := msg.(type) {
	case booksLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.catalogs != nil {
			m.catalogs = msg.catalogs
		}
		if msg.books != nil {
			if err := m.ctrl.Replace(msg.books); err != nil {
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

func bookForm(title string, b domain.Book) form {
	qty := ""
	if b.ID != "" {
		qty = strconv.Itoa(b.CantidadDisponible)
	}
	return newForm(title,
		formField{label: "Title", key: "Titulo", value: b.Titulo},
		formField{label: "Description", key: "Descripcion", value: b.Descripcion},
		formField{label: "Author id", key: "AutorID", value: b.AutorID.String()},
		formField{label: "Publisher id", key: "EditorialID", value: b.EditorialID.String()},
		formField{label: "Genre id", key: "GeneroID", value: b.GeneroID.String()},
		formField{label: "Published", key: "FechaPublicacion", value: formatOptionalDate(b.FechaPublicacion), placeholder: "YYYY-MM-DD"},
		formField{label: "Copies", key: "CantidadDisponible", value: qty, placeholder: "0"},
	)
}

func formatOptionalDate(raw string) string {
	if raw == "" {
		return ""
	}
	return formatDate(raw)
}

func (m booksModel) updateList(msg tea.KeyMsg) (booksModel, tea.Cmd) {
	books := m.visible()
	key := msg.String()
	switch key {
	case "/":
		m.filter = true
		return m, nil
	case "r":
		m.loading = true
		return m, m.load()
	case "n":
		if m.catalogs == nil {
			return m, toast("catalogs not loaded yet")
		}
		f := bookForm("New book", domain.Book{})
		m.edit = &f
		m.editID = ""
		return m, nil
	}

	if m.cursor >= len(books) {
		return m, nil
	}
	b := books[m.cursor]

	switch key {
	case "t", " ", "space":
		if b.ID.Local() {
			return m, toast("busy, try again")
		}
		next := b
		next.Estado = domain.ToggledStatus(b.Estado)
		h, err := m.ctrl.Begin(b.ID, next)
		if err != nil {
			return m, beginFailed(err)
		}
		c, active := m.client, next.Active()
		verb := "withdrawn"
		if active {
			verb = "available again"
		}
		res := resultMsg{ok: b.Titulo + " " + verb, fail: "could not update " + b.Titulo}
		return m, runMutation(m.ctrl, h, res, func(ctx context.Context) (*domain.Book, error) {
			return nil, c.SetBookActive(ctx, b.ID, active)
		})
	case "e", "enter":
		if b.ID.Local() {
			return m, toast("busy, try again")
		}
		if m.catalogs == nil {
			return m, toast("catalogs not loaded yet")
		}
		f := bookForm("Edit "+b.Titulo, b)
		m.edit = &f
		m.editID = b.ID
		return m, nil
	default:
		m.cursor = moveCursor(m.cursor, len(books), key)
	}
	return m, nil
}

// request builds a BookRequest from the form, checking catalog ids.
func (m booksModel) request(f form) (client.BookRequest, form, bool) {
	req := client.BookRequest{
		Titulo:           f.value("Titulo"),
		Descripcion:      f.value("Descripcion"),
		AutorID:          domain.ID(f.value("AutorID")),
		EditorialID:      domain.ID(f.value("EditorialID")),
		GeneroID:         domain.ID(f.value("GeneroID")),
		FechaPublicacion: f.value("FechaPublicacion"),
	}
	if raw := f.value("CantidadDisponible"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			f.err = "Copies: not a number"
			return req, f, false
		}
		req.CantidadDisponible = n
	}
	f, ok := f.check(req)
	if !ok {
		return req, f, false
	}
	if m.catalogs != nil {
		for _, ref := range []struct {
			label   string
			id      domain.ID
			entries []domain.CatalogEntry
		}{
			{"Author id", req.AutorID, m.catalogs.Autores},
			{"Publisher id", req.EditorialID, m.catalogs.Editoriales},
			{"Genre id", req.GeneroID, m.catalogs.Generos},
		} {
			if client.Name(ref.entries, ref.id) == "" {
				f.err = ref.label + ": unknown id " + ref.id.String()
				return req, f, false
			}
		}
	}
	return req, f, true
}

func (m booksModel) updateForm(msg tea.KeyMsg) (booksModel, tea.Cmd) {
	f, submit, cancel := m.edit.update(msg.String())
	if cancel {
		m.edit = nil
		return m, nil
	}
	if !submit {
		m.edit = &f
		return m, nil
	}
	req, f, ok := m.request(f)
	if !ok {
		m.edit = &f
		return m, nil
	}

	draft := domain.Book{
		Titulo:             req.Titulo,
		Descripcion:        req.Descripcion,
		AutorID:            req.AutorID,
		EditorialID:        req.EditorialID,
		GeneroID:           req.GeneroID,
		FechaPublicacion:   req.FechaPublicacion,
		CantidadDisponible: req.CantidadDisponible,
		Estado:             domain.StatusActive,
	}
	if m.catalogs != nil {
		draft.AutorNombre = client.Name(m.catalogs.Autores, req.AutorID)
		draft.EditorialNombre = client.Name(m.catalogs.Editoriales, req.EditorialID)
		draft.GeneroNombre = client.Name(m.catalogs.Generos, req.GeneroID)
	}
	c := m.client

	if m.editID != "" {
		id := m.editID
		current, found := m.ctrl.Get(id)
		if !found {
			m.edit = nil
			return m, toast("book no longer listed")
		}
		draft.ID = id
		draft.Estado = current.Estado
		draft.OpenLibraryKey = current.OpenLibraryKey
		draft.CoverID = current.CoverID
		req.OpenLibraryKey = current.OpenLibraryKey
		req.CoverID = current.CoverID
		h, err := m.ctrl.Begin(id, draft)
		if err != nil {
			m.edit = &f
			return m, beginFailed(err)
		}
		m.edit = nil
		res := resultMsg{ok: "saved " + draft.Titulo, fail: "could not save " + current.Titulo}
		return m, runMutation(m.ctrl, h, res, func(ctx context.Context) (*domain.Book, error) {
			return nil, c.UpdateBook(ctx, id, req)
		})
	}

	draft.ID = domain.ID(domain.LocalIDPrefix + m.ctrl.TempID())
	h, err := m.ctrl.BeginCreate(draft)
	if err != nil {
		return m, beginFailed(err)
	}
	m.edit = nil
	m.cursor = 0
	res := resultMsg{ok: "added " + draft.Titulo, fail: "could not add " + draft.Titulo, reload: true}
	return m, runMutation(m.ctrl, h, res, func(ctx context.Context) (*domain.Book, error) {
		id, err := c.CreateBook(ctx, req)
		if err != nil || id == "" {
			return nil, err
		}
		created := draft
		created.ID = id
		return &created, nil
	})
}

func (m booksModel) editing() bool { return m.edit != nil || m.filter }

func (m booksModel) helpKeys() string {
	switch {
	case m.edit != nil:
		return helpBar("tab", "next", "ctrl+s", "save", "esc", "cancel")
	case m.filter:
		return helpBar("enter", "apply", "esc", "clear")
	}
	return helpBar("j/k", "nav", "/", "filter", "t", "toggle", "e", "edit", "n", "new", "r", "reload", "h", "help")
}

func (m booksModel) View() string {
	if m.edit != nil {
		var b strings.Builder
		b.WriteString("\n" + m.edit.View())
		if m.catalogs != nil {
			b.WriteString("\n" + catalogHint("Authors", m.catalogs.Autores))
			b.WriteString(catalogHint("Publishers", m.catalogs.Editoriales))
			b.WriteString(catalogHint("Genres", m.catalogs.Generos))
		}
		return b.String()
	}

	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("Books"))
	if m.filter {
		b.WriteString("  " + searchStyle.Render("/ ") + m.search + accentStyle.Render("█"))
	} else if m.search != "" {
		b.WriteString("  " + metaStyle.Render("filter: ") + m.search)
	}
	b.WriteString("\n\n")

	books := m.visible()
	switch {
	case m.loading && m.ctrl.Len() == 0:
		b.WriteString(" " + pendingStyle.Render("loading...") + "\n")
		return b.String()
	case m.err != nil && m.ctrl.Len() == 0:
		b.WriteString(" " + errorStyle.Render(client.Message(m.err)) + "\n")
		return b.String()
	case len(books) == 0:
		b.WriteString(" " + dimStyle.Render("no books") + "\n")
		return b.String()
	}

	titleW := m.width - 60
	if titleW < 20 {
		titleW = 20
	}
	cursor := clampCursor(m.cursor, len(books))
	start, end := visibleRange(cursor, len(books), m.height-4)
	for i := start; i < end; i++ {
		bk := books[i]
		estado := bk.Estado
		if estado == "" {
			estado = domain.StatusActive
		}
		st := estadoStyle(estado).Render(estado)
		if m.ctrl.Pending(bk.ID) {
			st = pendingStyle.Render(estado + "…")
		}
		line := fmt.Sprintf(" %s  %s  %s  %3d  ",
			padRight(bk.Titulo, titleW),
			padRight(m.authorName(bk), 20),
			padRight(m.genreName(bk), 14),
			bk.CantidadDisponible,
		)
		if i == cursor {
			b.WriteString(selectedRowBg.Render(selectedStyle.Render(line)) + st + "\n")
		} else {
			b.WriteString(normalStyle.Render(line) + st + "\n")
		}
	}
	return b.String()
}

// catalogHint lists "id name" pairs under a book form.
func catalogHint(label string, entries []domain.CatalogEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.ID.String()+" "+e.Nombre)
	}
	return " " + metaStyle.Render(label+": ") + dimStyle.Render(truncStr(strings.Join(parts, ", "), 100)) + "\n"
}
