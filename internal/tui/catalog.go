package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aeternum/aeternum/internal/browser"
	"github.com/aeternum/aeternum/pkg/client"
	"github.com/aeternum/aeternum/pkg/domain"
)

type catalogModel struct {
	ol      *client.OpenLibrary
	api     *client.Client // nil for guests
	reader  *client.Client // reads reviews; the public client for guests
	detail  *reviewsModel  // open work, nil while browsing
	me      domain.ID      // the caller's account id once a detail learned it
	docs    []domain.OpenLibraryDoc
	cursor  int
	search  string
	editing bool
	subject int // index into client.Subjects
	query   string
	seq     int
	loading bool
	err     error
	width   int
	height  int
}

type docsLoadedMsg struct {
	seq   int
	query string
	docs  []domain.OpenLibraryDoc
	err   error
}

type copyResultMsg struct{ err error }

func newCatalogModel(ol *client.OpenLibrary, api *client.Client) catalogModel {
	return catalogModel{ol: ol, api: api, reader: api, loading: true}
}

// withReader sets the client guests read reviews with.
func (m catalogModel) withReader(c *client.Client) catalogModel {
	if m.api == nil {
		m.reader = c
	}
	return m
}

// typing reports whether keys are going into a text field or prompt.
func (m catalogModel) typing() bool {
	return m.editing || (m.detail != nil && m.detail.typing())
}

// closeDetail detaches the open work, if any.
func (m catalogModel) closeDetail() catalogModel {
	if m.detail != nil {
		m.detail.detach()
		m.detail = nil
	}
	return m
}

func (m catalogModel) updateDetail(msg tea.Msg) (catalogModel, tea.Cmd) {
	d, cmd := m.detail.Update(msg)
	m.detail = &d
	if d.me != "" {
		m.me = d.me
	}
	return m, cmd
}

// start fetches the default listing.
func (m catalogModel) start() (catalogModel, tea.Cmd) {
	cmd := m.loadSubject()
	return m, cmd
}

func (m *catalogModel) loadSubject() tea.Cmd {
	m.seq++
	m.loading = true
	seq, ol, subject := m.seq, m.ol, client.Subjects[m.subject]
	return func() tea.Msg {
		docs, err := ol.Subject(context.Background(), subject, pageSize)
		return docsLoadedMsg{seq: seq, query: client.SubjectQuery(subject), docs: docs, err: err}
	}
}

func (m *catalogModel) loadSearch() tea.Cmd {
	m.seq++
	m.loading = true
	seq, ol, q := m.seq, m.ol, m.search
	return func() tea.Msg {
		docs, err := ol.Search(context.Background(), q, pageSize)
		return docsLoadedMsg{seq: seq, query: client.NormalizeQuery(q), docs: docs, err: err}
	}
}

func (m catalogModel) Update(msg tea.Msg) (catalogModel, tea.Cmd) {
	switch msg := msg.(type) {
	case docsLoadedMsg:
		if msg.seq != m.seq {
			return m, nil // superseded by a newer search
		}
		m.loading = false
		m.err = msg.err
		m.query = msg.query
		if msg.err == nil {
			m.docs = msg.docs
		}
		m.cursor = clampCursor(m.cursor, len(m.docs))
		return m, nil

	case reviewsLoadedMsg, ratedMsg, resultMsg:
		if m.detail == nil {
			return m, nil
		}
		return m.updateDetail(msg)

	case copyResultMsg:
		if msg.err != nil {
			return m, toast("copy failed: %v", msg.err)
		}
		return m, toast("title copied")

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.detail != nil {
			return m.updateDetail(msg)
		}
		return m, nil

	case tea.KeyMsg:
		if m.detail != nil {
			if msg.String() == "esc" && !m.detail.typing() {
				return m.closeDetail(), nil
			}
			return m.updateDetail(msg)
		}
		if m.editing {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m catalogModel) updateSearch(msg tea.KeyMsg) (catalogModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		m.cursor = 0
		cmd := m.loadSearch()
		return m, cmd
	case "esc":
		m.editing = false
		m.search = ""
		m.cursor = 0
		cmd := m.loadSubject()
		return m, cmd
	default:
		m.search = editRune(m.search, msg.String())
	}
	return m, nil
}

func (m catalogModel) updateList(msg tea.KeyMsg) (catalogModel, tea.Cmd) {
	key := msg.String()
	switch key {
	case "/":
		m.editing = true
		m.search = ""
		return m, nil
	case "t":
		m.subject = (m.subject + 1) % len(client.Subjects)
		m.search = ""
		m.cursor = 0
		cmd := m.loadSubject()
		return m, cmd
	case "r":
		if m.search != "" {
			cmd := m.loadSearch()
			return m, cmd
		}
		cmd := m.loadSubject()
		return m, cmd
	}

	doc, ok := m.selected()
	if !ok {
		m.cursor = moveCursor(m.cursor, len(m.docs), key)
		return m, nil
	}

	switch key {
	case "enter":
		d := newReviewsModel(m.reader, m.api, doc, m.me)
		d.width, d.height = m.width, m.height
		m.detail = &d
		return m, d.Init()
	case "a":
		if m.api == nil {
			return m, toast("sign in to save books (press l)")
		}
		api, payload := m.api, doc.WishlistPayload()
		res := resultMsg{ok: fmt.Sprintf("%q added to your wishlist", doc.Title), fail: "could not add to wishlist"}
		return m, runAction(res, func(ctx context.Context) error {
			_, err := api.AddToWishlist(ctx, payload)
			return err
		})
	case "b":
		if m.api == nil {
			return m, toast("sign in to borrow books (press l)")
		}
		api, loan := m.api, doc.DigitalLoan()
		res := resultMsg{ok: fmt.Sprintf("digital loan of %q registered", doc.Title), fail: "could not borrow"}
		return m, runAction(res, func(ctx context.Context) error {
			return api.BorrowDigital(ctx, loan)
		})
	case "c":
		title := doc.Title
		return m, func() tea.Msg {
			return copyResultMsg{err: clipboard.WriteAll(title)}
		}
	case "o":
		if err := browser.Open(m.ol.WorkURL(doc)); err != nil {
			return m, toast("could not open browser: %v", err)
		}
		return m, nil
	default:
		m.cursor = moveCursor(m.cursor, len(m.docs), key)
	}
	return m, nil
}

func (m catalogModel) selected() (domain.OpenLibraryDoc, bool) {
	if m.cursor < 0 || m.cursor >= len(m.docs) {
		return domain.OpenLibraryDoc{}, false
	}
	return m.docs[m.cursor], true
}

func (m catalogModel) helpKeys() string {
	if m.detail != nil {
		return m.detail.helpKeys()
	}
	if m.editing {
		return helpBar("enter", "search", "esc", "cancel")
	}
	if m.api == nil {
		return helpBar("j/k", "nav", "enter", "reviews", "/", "search", "t", "subject", "c", "copy", "o", "open", "l", "sign in", "h", "help", "q", "quit")
	}
	return helpBar("j/k", "nav", "enter", "reviews", "/", "search", "t", "subject", "a", "wishlist", "b", "borrow", "c", "copy", "o", "open", "h", "help")
}

func (m catalogModel) View() string {
	if m.detail != nil {
		return m.detail.View()
	}
	var b strings.Builder

	// Subject bar
	var subjects []string
	for i, s := range client.Subjects {
		name := s
		if name == "" {
			name = "all"
		}
		if i == m.subject && m.search == "" {
			subjects = append(subjects, searchStyle.Render(name))
		} else {
			subjects = append(subjects, dimStyle.Render(name))
		}
	}
	b.WriteString(" " + strings.Join(subjects, metaStyle.Render(" · ")) + "\n")

	if m.editing {
		b.WriteString(" " + searchStyle.Render("/ ") + m.search + accentStyle.Render("█") + "\n")
	} else if m.search != "" {
		b.WriteString(" " + metaStyle.Render("results for ") + normalStyle.Render(m.query) + "\n")
	} else {
		b.WriteString("\n")
	}

	switch {
	case m.loading && len(m.docs) == 0:
		b.WriteString("\n " + pendingStyle.Render("loading catalog...") + "\n")
		return b.String()
	case m.err != nil:
		b.WriteString("\n " + errorStyle.Render("catalog unavailable: "+client.Message(m.err)) + "\n")
		if len(m.docs) == 0 {
			return b.String()
		}
	case len(m.docs) == 0:
		b.WriteString("\n " + dimStyle.Render("no books found") + "\n")
		return b.String()
	}

	titleW := m.width - 40
	if titleW < 20 {
		titleW = 20
	}
	rows := m.height - 6
	start, end := visibleRange(m.cursor, len(m.docs), rows)
	for i := start; i < end; i++ {
		d := m.docs[i]
		year := ""
		if d.FirstPublishYear > 0 {
			year = fmt.Sprintf("%d", d.FirstPublishYear)
		}
		line := fmt.Sprintf(" %s  %s  %s",
			padRight(d.Title, titleW),
			padRight(d.Author(), 24),
			year,
		)
		if i == m.cursor {
			b.WriteString(selectedRowBg.Render(selectedStyle.Render(line)) + "\n")
		} else {
			b.WriteString(normalStyle.Render(line) + "\n")
		}
	}
	b.WriteString(" " + metaStyle.Render(fmt.Sprintf("%d of %d", m.cursor+1, len(m.docs))) + "\n")
	return b.String()
}
