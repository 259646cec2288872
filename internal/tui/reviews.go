package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/aeternum/aeternum/internal/optimistic"
	"github.com/aeternum/aeternum/pkg/client"
	"github.com/aeternum/aeternum/pkg/domain"
)

// reviewsModel is the detail pane of one catalog work: its ratings and
// comments. Reads go through reader, which is the public client for guests;
// writes need api.
type reviewsModel struct {
	reader    *client.Client
	api       *client.Client // nil for guests
	doc       domain.OpenLibraryDoc
	ctrl      *optimistic.Controller[domain.ID, domain.Comment]
	stats     domain.RatingStats
	mine      int       // the caller's score, 0 when unrated
	rating    bool      // 1-5 picks a score
	me        domain.ID // the caller's account id, empty when unknown
	compose   *form
	editID    domain.ID // empty while writing a new comment
	cursor    int
	loading   bool
	reloadDue bool // refresh once nothing is in flight
	err       error
	width     int
	height    int
}

type reviewsLoadedMsg struct {
	key      string
	stats    domain.RatingStats
	mine     int
	me       domain.ID
	comments []domain.Comment
	err      error
}

func (m reviewsLoadedMsg) apiErr() error { return m.err }

// ratedMsg settles an optimistic score change.
type ratedMsg struct {
	key      string
	previous int
	res      *client.RateResult
	err      error
}

func (m ratedMsg) apiErr() error { return m.err }

// commentDraft is the payload checked before a comment is sent.
type commentDraft struct {
	Texto string `validate:"required,min=5"`
}

func commentKey(c domain.Comment) domain.ID { return c.ID }

func newReviewsModel(reader, api *client.Client, doc domain.OpenLibraryDoc, me domain.ID) reviewsModel {
	if reader == nil {
		reader = api
	}
	return reviewsModel{
		reader:  reader,
		api:     api,
		doc:     doc,
		me:      me,
		ctrl:    optimistic.New(commentKey, nil),
		loading: true,
	}
}

func (m reviewsModel) Init() tea.Cmd {
	return m.load()
}

// load fetches the stats and comments, plus the caller's score and id when
// signed in.
func (m reviewsModel) load() tea.Cmd {
	reader, api, key, me := m.reader, m.api, m.doc.Key, m.me
	work := m.doc.WorkID()
	return func() tea.Msg {
		msg := reviewsLoadedMsg{key: key, me: me}
		if reader == nil {
			msg.err = fmt.Errorf("reviews are unavailable offline")
			return msg
		}
		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() (err error) {
			msg.stats, err = reader.Ratings(ctx, work)
			return err
		})
		g.Go(func() (err error) {
			msg.comments, err = reader.Comments(ctx, work)
			return err
		})
		if api != nil {
			g.Go(func() (err error) {
				msg.mine, err = api.UserRating(ctx, work)
				return err
			})
			if me == "" {
				g.Go(func() error {
					u, err := api.Me(ctx)
					if err != nil {
						return err
					}
					msg.me = u.ID
					return nil
				})
			}
		}
		msg.err = g.Wait()
		return msg
	}
}

func (m reviewsModel) Update(msg tea.Msg) (reviewsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reviewsLoadedMsg:
		if msg.key != m.doc.Key {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.stats, m.mine, m.me = msg.stats, msg.mine, msg.me
		if err := m.ctrl.Replace(msg.comments); err != nil {
			m.reloadDue = true
			return m, toast(pendingReloadText)
		}
		m.cursor = clampCursor(m.cursor, m.ctrl.Len())
		return m, nil

	case ratedMsg:
		if msg.key != m.doc.Key {
			return m, nil
		}
		if msg.err != nil {
			m.mine = msg.previous
			return m, toast("could not rate: %s", client.Message(msg.err))
		}
		m.stats, m.mine = msg.res.Stats, msg.res.UserRating
		return m, toast("rated %d of %d", m.mine, domain.MaxRating)

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
		case m.compose != nil:
			return m.updateCompose(msg)
		case m.rating:
			return m.updateRating(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m reviewsModel) updateList(msg tea.KeyMsg) (reviewsModel, tea.Cmd) {
	comments := m.ctrl.Items()
	key := msg.String()
	switch key {
	case "r":
		m.loading = true
		return m, m.load()
	case "s":
		if m.api == nil {
			return m, toast("sign in to rate books (press l)")
		}
		m.rating = true
		return m, nil
	case "c":
		if m.api == nil {
			return m, toast("sign in to comment (press l)")
		}
		f := newForm("Comment on "+m.doc.Title, formField{label: "Comment", key: "Texto", placeholder: fmt.Sprintf("at least %d characters", domain.MinCommentLen)})
		m.compose, m.editID = &f, ""
		return m, nil
	case "e", "d", "x":
		if m.api == nil || m.cursor >= len(comments) {
			return m, nil
		}
		c := comments[m.cursor]
		if !m.owns(c) {
			return m, toast("you can only change your own comments")
		}
		if c.ID.Local() || m.ctrl.Pending(c.ID) {
			return m, toast("busy, try again")
		}
		if key == "e" {
			f := newForm("Edit comment", formField{label: "Comment", key: "Texto", value: c.Texto})
			m.compose, m.editID = &f, c.ID
			return m, nil
		}
		return m.remove(c)
	default:
		m.cursor = moveCursor(m.cursor, len(comments), key)
	}
	return m, nil
}

func (m reviewsModel) updateRating(msg tea.KeyMsg) (reviewsModel, tea.Cmd) {
	key := msg.String()
	m.rating = false
	if len(key) != 1 || key[0] < '0'+domain.MinRating || key[0] > '0'+domain.MaxRating {
		return m, nil
	}
	score := int(key[0] - '0')
	previous := m.mine
	m.mine = score
	api, book, docKey := m.api, m.doc.WishlistPayload(), m.doc.Key
	return m, func() tea.Msg {
		res, err := api.Rate(context.Background(), book, score)
		return ratedMsg{key: docKey, previous: previous, res: res, err: err}
	}
}

func (m reviewsModel) updateCompose(msg tea.KeyMsg) (reviewsModel, tea.Cmd) {
	f, submit, cancel := m.compose.update(msg.String())
	if cancel {
		m.compose = nil
		return m, nil
	}
	if !submit {
		m.compose = &f
		return m, nil
	}
	draft := commentDraft{Texto: f.value("Texto")}
	f, ok := f.check(draft)
	if !ok {
		m.compose = &f
		return m, nil
	}
	m.compose = nil
	if m.editID != "" {
		return m.edit(m.editID, draft.Texto)
	}
	return m.add(draft.Texto)
}

// add shows the comment at the head of the list until the server answers
// with the stored one.
func (m reviewsModel) add(texto string) (reviewsModel, tea.Cmd) {
	draft := domain.Comment{
		ID:            domain.ID(domain.LocalIDPrefix + m.ctrl.TempID()),
		Texto:         texto,
		UsuarioID:     m.me,
		NombreUsuario: "you",
	}
	h, err := m.ctrl.BeginCreate(draft)
	if err != nil {
		return m, beginFailed(err)
	}
	m.cursor = 0
	api, book, me := m.api, m.doc.WishlistPayload(), m.me
	res := resultMsg{ok: "comment posted", fail: "could not post comment", reload: true}
	return m, runMutation(m.ctrl, h, res, func(ctx context.Context) (*domain.Comment, error) {
		all, err := api.AddComment(ctx, book, texto)
		if err != nil {
			return nil, err
		}
		if c, ok := postedComment(all, me, texto); ok {
			return &c, nil
		}
		return nil, nil
	})
}

// postedComment finds the caller's newest comment with texto. Comments come
// newest first.
func postedComment(all []domain.Comment, me domain.ID, texto string) (domain.Comment, bool) {
	if me == "" {
		return domain.Comment{}, false
	}
	for _, c := range all {
		if c.UsuarioID == me && c.Texto == texto {
			return c, true
		}
	}
	return domain.Comment{}, false
}

func (m reviewsModel) edit(id domain.ID, texto string) (reviewsModel, tea.Cmd) {
	prev, ok := m.ctrl.Get(id)
	if !ok {
		return m, toast("comment no longer listed")
	}
	next := prev
	next.Texto = texto
	h, err := m.ctrl.Begin(id, next)
	if err != nil {
		return m, beginFailed(err)
	}
	api := m.api
	res := resultMsg{ok: "comment updated", fail: "could not update comment"}
	return m, runMutation(m.ctrl, h, res, func(ctx context.Context) (*domain.Comment, error) {
		return nil, api.UpdateComment(ctx, id, texto)
	})
}

func (m reviewsModel) remove(c domain.Comment) (reviewsModel, tea.Cmd) {
	h, err := m.ctrl.BeginDelete(c.ID)
	if err != nil {
		return m, beginFailed(err)
	}
	m.cursor = clampCursor(m.cursor, m.ctrl.Len())
	api := m.api
	res := resultMsg{ok: "comment deleted", fail: "could not delete comment"}
	return m, runMutation(m.ctrl, h, res, func(ctx context.Context) (*domain.Comment, error) {
		return nil, api.DeleteComment(ctx, c.ID)
	})
}

// owns reports whether the caller wrote c. With an unknown account id the
// server decides.
func (m reviewsModel) owns(c domain.Comment) bool {
	return m.me == "" || c.UsuarioID == m.me
}

func (m reviewsModel) typing() bool { return m.compose != nil || m.rating }

func (m reviewsModel) detach() {
	m.ctrl.Close()
}

func (m reviewsModel) helpKeys() string {
	switch {
	case m.compose != nil:
		return helpBar("enter", "send", "esc", "cancel")
	case m.rating:
		return helpBar("1-5", "score", "esc", "cancel")
	case m.api == nil:
		return helpBar("j/k", "nav", "r", "reload", "esc", "back", "l", "sign in")
	}
	return helpBar("j/k", "nav", "s", "rate", "c", "comment", "e", "edit", "d", "delete", "r", "reload", "esc", "back")
}

func stars(n int) string {
	n = max(0, min(n, domain.MaxRating))
	return strings.Repeat("★", n) + strings.Repeat("☆", domain.MaxRating-n)
}

func (m reviewsModel) View() string {
	if m.compose != nil {
		return "\n" + m.compose.View()
	}

	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render(m.doc.Title) + "  " + metaStyle.Render(m.doc.Author()) + "\n")

	votes := "no ratings yet"
	if m.stats.TotalVotos > 0 {
		votes = fmt.Sprintf("%.1f from %d votes", m.stats.Promedio, m.stats.TotalVotos)
	}
	b.WriteString(" " + accentStyle.Render(stars(int(m.stats.Promedio+0.5))) + "  " + dimStyle.Render(votes) + "\n")
	switch {
	case m.rating:
		b.WriteString(" " + searchStyle.Render("your score: press 1-5") + "\n")
	case m.api != nil && m.mine > 0:
		b.WriteString(" " + metaStyle.Render("you rated it "+stars(m.mine)) + "\n")
	default:
		b.WriteString("\n")
	}
	b.WriteString("\n")

	comments := m.ctrl.Items()
	switch {
	case m.loading && len(comments) == 0:
		b.WriteString(" " + pendingStyle.Render("loading reviews...") + "\n")
		return b.String()
	case m.err != nil && len(comments) == 0:
		b.WriteString(" " + errorStyle.Render("reviews unavailable: "+client.Message(m.err)) + "\n")
		return b.String()
	case len(comments) == 0:
		b.WriteString(" " + dimStyle.Render("no comments yet") + "\n")
		return b.String()
	}

	textW := max(m.width-30, 20)
	cursor := clampCursor(m.cursor, len(comments))
	start, end := visibleRange(cursor, len(comments), m.height-8)
	for i := start; i < end; i++ {
		c := comments[i]
		who := c.NombreUsuario
		if m.me != "" && c.UsuarioID == m.me {
			who = "you"
		}
		text := truncStr(c.Texto, textW)
		if m.ctrl.Pending(c.ID) {
			text += "…"
		}
		line := fmt.Sprintf(" %s  %s  %s", padRight(who, 14), padRight(text, textW), formatDate(c.FechaComentario))
		if i == cursor {
			b.WriteString(selectedRowBg.Render(selectedStyle.Render(line)) + "\n")
		} else {
			b.WriteString(normalStyle.Render(line) + "\n")
		}
	}
	return b.String()
}
