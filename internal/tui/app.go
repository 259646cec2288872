package tui

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/aeternum/aeternum/internal/browser"
	"github.com/aeternum/aeternum/internal/session"
	"github.com/aeternum/aeternum/pkg/client"
)

type view int

const (
	viewCatalog view = iota
	viewLogin
	viewWishlist
	viewLoans
	viewDashboard
	viewUsers
	viewBooks
	viewAdminLoans
	viewProfile
)

type tab struct {
	name string
	v    view
}

// tabsFor lists the tabs of each area, in number-key order.
func tabsFor(role session.Role) []tab {
	switch role {
	case session.RoleLibrarian:
		return []tab{{"Dashboard", viewDashboard}, {"Users", viewUsers}, {"Books", viewBooks}, {"Loans", viewAdminLoans}, {"Catalog", viewCatalog}, {"Profile", viewProfile}}
	case session.RoleUser:
		return []tab{{"Catalog", viewCatalog}, {"Wishlist", viewWishlist}, {"Loans", viewLoans}, {"Profile", viewProfile}}
	default:
		return []tab{{"Catalog", viewCatalog}, {"Sign in", viewLogin}}
	}
}

// Options wires the App to its collaborators.
type Options struct {
	APIURL       string
	Timeout      time.Duration
	OpenLibrary  *client.OpenLibrary
	Store        session.Store
	Decoder      session.Decoder // nil selects session.JWTDecoder
	Clock        session.Clock   // nil selects the wall clock
	PollInterval time.Duration
	Log          *zap.Logger
	Version      string
	WebURL       string
	TermsURL     string
	PrivacyURL   string
}

// scopedMsg tags a message with the mount and view whose command produced
// it. Messages from an earlier mount are dropped.
type scopedMsg struct {
	mount int
	view  view
	msg   tea.Msg
}

// sessionStateMsg reports a guard transition seen by the poller.
type sessionStateMsg struct {
	mount int
	state session.State
}

// App is the root Bubbletea model.
type App struct {
	opts   Options
	log    *zap.Logger
	public *client.Client

	// Authenticated mount. guard is nil while browsing as a guest.
	mountID  int
	role     session.Role
	guard    *session.Guard
	events   chan session.State
	stopPoll func() // stops the poller and closes events, once
	api      *client.Client

	view       view
	catalog    catalogModel
	login      loginModel
	wishlist   wishlistModel
	loans      loansModel
	dashboard  dashboardModel
	users      usersModel
	books      booksModel
	adminLoans adminLoansModel
	profile    profileModel

	helpOpen   bool
	helpCursor int
	toast      string
	toastID    int
	initCmd    tea.Cmd
	width      int
	height     int
	frame      int // logo shimmer animation frame
}

// NewApp creates the TUI. A stored session is mounted right away; without
// one the public catalog is shown.
func NewApp(opts Options) App {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	a := App{
		opts:   opts,
		log:    opts.Log.Named("tui"),
		public: client.New(opts.APIURL, nil, client.WithTimeout(opts.Timeout), client.WithLogger(opts.Log)),
		role:   session.RoleGuest,
	}
	a.login = newLoginModel(a.public)

	token, err := opts.Store.Read()
	if err != nil {
		a.log.Warn("read session token", zap.Error(err))
	}
	if token != "" {
		a, a.initCmd = a.mount(session.RoleGuest)
		return a
	}
	a, a.initCmd = a.showPublic()
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), a.initCmd)
}

// Close stops the session poller. The App is unusable afterwards.
func (a App) Close() {
	a.unmount()
}

// Role returns the area currently mounted.
func (a App) Role() session.Role { return a.role }

// mount starts a guarded session from the stored token. hint is the role
// the login response reported; the token's role is used when it is unknown.
func (a App) mount(hint session.Role) (App, tea.Cmd) {
	a = a.unmount()

	guard := session.NewGuard(a.opts.Store, a.opts.Decoder, a.opts.Clock, a.log)
	events := make(chan session.State, 2)
	poller := session.StartPoller(guard, a.opts.PollInterval, func(s session.State) {
		select {
		case events <- s:
		default:
		}
	})
	sess, ok := guard.Session()
	if !ok {
		poller.Stop()
		close(events)
		return a.lockOut()
	}

	role := hint
	if role == session.RoleGuest {
		role = sess.Role
	}
	if role == session.RoleGuest {
		role = session.RoleUser
	}
	a.guard, a.events, a.role = guard, events, role
	a.stopPoll = sync.OnceFunc(func() {
		poller.Stop()
		close(events)
	})
	a.api = client.New(a.opts.APIURL, guard, client.WithTimeout(a.opts.Timeout), client.WithLogger(a.opts.Log))
	a.catalog = newCatalogModel(a.opts.OpenLibrary, a.api)
	a.profile = newProfileModel(a.api)
	a.log.Info("session mounted",
		zap.String("role", role.String()),
		zap.String("subject", sess.Subject),
		zap.Time("expires_at", sess.ExpiresAt),
	)

	var cmd tea.Cmd
	if role == session.RoleLibrarian {
		a.dashboard = newDashboardModel(a.api)
		a.users = newUsersModel(a.api)
		a.books = newBooksModel(a.api)
		a.adminLoans = newAdminLoansModel(a.api)
		a.view = viewDashboard
		cmd = a.scope(viewDashboard, a.dashboard.Init())
	} else {
		a.wishlist = newWishlistModel(a.api)
		a.loans = newLoansModel(a.api)
		a.view = viewCatalog
		var start tea.Cmd
		a.catalog, start = a.catalog.start()
		cmd = a.scope(viewCatalog, start)
	}
	a = a.resize()
	return a, tea.Batch(cmd, waitSession(a.mountID, events))
}

// unmount stops polling, closes every controller and drops back to the
// guest area. Results of the old mount are discarded from now on.
func (a App) unmount() App {
	if a.stopPoll != nil {
		a.stopPoll()
		a.log.Info("session unmounted", zap.String("role", a.role.String()))
	}
	a.catalog = a.catalog.closeDetail()
	if a.wishlist.ctrl != nil {
		a.wishlist.ctrl.Close()
	}
	if a.loans.ctrl != nil {
		a.loans.ctrl.Close()
	}
	if a.users.ctrl != nil {
		a.users.ctrl.Close()
	}
	if a.books.ctrl != nil {
		a.books.ctrl.Close()
	}
	if a.adminLoans.ctrl != nil {
		a.adminLoans.ctrl.Close()
	}
	if a.profile.ctrl != nil {
		a.profile.ctrl.Close()
	}
	a.mountID++
	a.guard, a.events, a.stopPoll, a.api = nil, nil, nil, nil
	a.role = session.RoleGuest
	a.wishlist = wishlistModel{}
	a.loans = loansModel{}
	a.users = usersModel{}
	a.books = booksModel{}
	a.adminLoans = adminLoansModel{}
	a.dashboard = dashboardModel{}
	a.profile = profileModel{}
	a.catalog = newCatalogModel(a.opts.OpenLibrary, nil).withReader(a.public)
	return a
}

// showPublic unmounts and opens the guest catalog.
func (a App) showPublic() (App, tea.Cmd) {
	a = a.unmount()
	a.view = viewCatalog
	var cmd tea.Cmd
	a.catalog, cmd = a.catalog.start()
	a = a.resize()
	return a, a.scope(viewCatalog, cmd)
}

// lockOut ends the session and opens an empty login view. The guard has
// already cleared the token, so nothing is announced.
func (a App) lockOut() (App, tea.Cmd) {
	a, cmd := a.showPublic()
	a.view = viewLogin
	a.login = newLoginModel(a.public)
	return a, cmd
}

// expire ends a session the server refused and tells the user why.
func (a App) expire(notice string) (App, tea.Cmd) {
	a, cmd := a.lockOut()
	a.login.notice = notice
	a, t := a.showToast(notice)
	return a, tea.Batch(cmd, t)
}

// waitSession delivers the next guard transition of a mount. It returns nil
// once the mount is gone.
func waitSession(mount int, events <-chan session.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-events
		if !ok {
			return nil
		}
		return sessionStateMsg{mount: mount, state: st}
	}
}

// scope tags the messages of cmd with the current mount.
func (a App) scope(v view, cmd tea.Cmd) tea.Cmd {
	return scoped(a.mountID, v, cmd)
}

// scoped wraps cmd so its message arrives as a scopedMsg. Batches are
// unpacked so each member is scoped on its own.
func scoped(mount int, v view, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		switch msg := cmd().(type) {
		case nil:
			return nil
		case tea.BatchMsg:
			cmds := make(tea.BatchMsg, len(msg))
			for i, c := range msg {
				cmds[i] = scoped(mount, v, c)
			}
			return cmds
		default:
			return scopedMsg{mount: mount, view: v, msg: msg}
		}
	}
}

func (a App) resize() App {
	// Chrome: header(2) + tabs(1) + toast(1) + help(1) = 5 lines
	body := tea.WindowSizeMsg{Width: a.width, Height: a.height - 5}
	a.catalog, _ = a.catalog.Update(body)
	a.wishlist, _ = a.wishlist.Update(body)
	a.loans, _ = a.loans.Update(body)
	a.dashboard, _ = a.dashboard.Update(body)
	a.users, _ = a.users.Update(body)
	a.books, _ = a.books.Update(body)
	a.adminLoans, _ = a.adminLoans.Update(body)
	a.profile, _ = a.profile.Update(body)
	return a
}

func (a App) showToast(text string) (App, tea.Cmd) {
	a.toastID++
	a.toast = text
	id := a.toastID
	return a, tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a.resize(), nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case toastMsg:
		return a.showToast(string(msg))

	case toastExpiredMsg:
		if msg.id == a.toastID {
			a.toast = ""
		}
		return a, nil

	case sessionStateMsg:
		if msg.mount != a.mountID {
			return a, nil
		}
		if msg.state == session.Unauthenticated {
			a.log.Info("session expired while mounted")
			return a.lockOut()
		}
		return a, waitSession(a.mountID, a.events)

	case scopedMsg:
		if msg.mount != a.mountID {
			a.log.Debug("dropped result of a previous session", zap.String("type", fmt.Sprintf("%T", msg.msg)))
			return a, nil
		}
		return a.deliver(msg.view, msg.msg)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

// deliver routes a scoped message to the view that asked for it.
func (a App) deliver(v view, msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case toastMsg:
		return a.showToast(string(msg))
	case loginDoneMsg:
		if msg.err == nil {
			return a.signedIn(msg)
		}
	case deactivatedMsg:
		if msg.err == nil && a.guard != nil {
			a.log.Info("account deactivated")
			a.guard.Invalidate()
			var cmd, t tea.Cmd
			a, cmd = a.showPublic()
			a, t = a.showToast("your account was deactivated")
			return a, tea.Batch(cmd, t)
		}
	}

	if r, ok := msg.(apiResult); ok && a.guard != nil && client.IsStatus(r.apiErr(), http.StatusUnauthorized) {
		a.log.Info("server rejected the session token")
		a.guard.Invalidate()
		return a.expire("your session has expired, sign in again")
	}

	var toastCmd tea.Cmd
	if res, ok := msg.(resultMsg); ok {
		a, toastCmd = a.showToast(res.text())
	}
	a, cmd := a.updateView(v, msg)
	return a, tea.Batch(toastCmd, cmd)
}

func (a App) signedIn(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	if err := a.opts.Store.Write(msg.res.AccessToken); err != nil {
		a.log.Error("persist session token", zap.Error(err))
		a.login.submitting = false
		a.login.form.err = "could not save the session: " + err.Error()
		return a, nil
	}
	a.login = newLoginModel(a.public)
	a, cmd := a.mount(session.ParseRole(msg.res.Rol))
	if a.guard == nil {
		a.login.form.err = "the server issued an unusable session"
		return a, cmd
	}
	name := ""
	if msg.res.User != nil {
		name = msg.res.User.FullName()
	}
	var greet tea.Cmd
	a, greet = a.showToast(strings.TrimSpace("welcome " + name))
	return a, tea.Batch(cmd, greet)
}

func (a App) updateView(v view, msg tea.Msg) (App, tea.Cmd) {
	var cmd tea.Cmd
	switch v {
	case viewCatalog:
		a.catalog, cmd = a.catalog.Update(msg)
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewWishlist:
		a.wishlist, cmd = a.wishlist.Update(msg)
	case viewLoans:
		a.loans, cmd = a.loans.Update(msg)
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.Update(msg)
	case viewUsers:
		a.users, cmd = a.users.Update(msg)
	case viewBooks:
		a.books, cmd = a.books.Update(msg)
	case viewAdminLoans:
		a.adminLoans, cmd = a.adminLoans.Update(msg)
	case viewProfile:
		a.profile, cmd = a.profile.Update(msg)
	}
	return a, a.scope(v, cmd)
}

func (a App) helpItems() []helpItem {
	items := []helpItem{{"Open Library", "Where the catalog comes from", client.DefaultOpenLibraryURL}}
	if a.opts.WebURL != "" {
		items = append(items, helpItem{"Aeternum web", "The library in your browser", a.opts.WebURL})
	}
	if a.opts.TermsURL != "" {
		items = append(items, helpItem{"Terms of service", "Rules for borrowing", a.opts.TermsURL})
	}
	if a.opts.PrivacyURL != "" {
		items = append(items, helpItem{"Privacy policy", "How your data is used", a.opts.PrivacyURL})
	}
	return items
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a.unmount(), tea.Quit
	}

	// Help overlay captures all keys when open
	if a.helpOpen {
		items := a.helpItems()
		switch key {
		case "h", "esc":
			a.helpOpen = false
		case "q":
			return a.unmount(), tea.Quit
		case "j", "down", "k", "up":
			a.helpCursor = moveCursor(a.helpCursor, len(items), key)
		case "enter":
			if err := browser.Open(items[a.helpCursor].url); err != nil {
				return a.showToast("could not open browser: " + err.Error())
			}
		}
		return a, nil
	}

	if a.view == viewLogin && key == "esc" {
		a.view = viewCatalog
		return a, nil
	}

	if !a.isEditing() {
		switch key {
		case "h":
			a.helpOpen = true
			a.helpCursor = 0
			return a, nil
		case "q":
			return a.unmount(), tea.Quit
		case "l":
			if a.guard == nil {
				a.view = viewLogin
				return a, nil
			}
		case "L":
			if a.guard != nil {
				a.guard.Invalidate()
				var cmd, t tea.Cmd
				a, cmd = a.showPublic()
				a, t = a.showToast("signed out")
				return a, tea.Batch(cmd, t)
			}
		}
		tabs := tabsFor(a.role)
		if len(key) == 1 && key[0] >= '1' && int(key[0]-'1') < len(tabs) {
			return a.switchTo(tabs[key[0]-'1'].v)
		}
	}

	a, cmd := a.updateView(a.view, msg)
	return a, cmd
}

// switchTo changes tab and refreshes the target list.
func (a App) switchTo(v view) (tea.Model, tea.Cmd) {
	if v == a.view {
		return a, nil
	}
	a.view = v
	var cmd tea.Cmd
	switch v {
	case viewCatalog:
		if len(a.catalog.docs) == 0 && !a.catalog.loading {
			a.catalog, cmd = a.catalog.start()
		}
	case viewWishlist:
		cmd = a.wishlist.Init()
	case viewLoans:
		cmd = a.loans.Init()
	case viewDashboard:
		cmd = a.dashboard.Init()
	case viewUsers:
		cmd = a.users.Init()
	case viewBooks:
		cmd = a.books.Init()
	case viewAdminLoans:
		cmd = a.adminLoans.Init()
	case viewProfile:
		cmd = a.profile.Init()
	}
	return a, a.scope(v, cmd)
}

func (a App) isEditing() bool {
	switch a.view {
	case viewCatalog:
		return a.catalog.typing()
	case viewLogin:
		return a.login.editing()
	case viewWishlist:
		return a.wishlist.editing()
	case viewUsers:
		return a.users.editing()
	case viewBooks:
		return a.books.editing()
	case viewAdminLoans:
		return a.adminLoans.editing()
	case viewProfile:
		return a.profile.editing()
	}
	return false
}

func (a App) statusLine() string {
	sess, ok := session.Session{}, false
	if a.guard != nil {
		sess, ok = a.guard.Session()
	}
	if !ok {
		return metaStyle.Render("browsing as guest · press l to sign in")
	}
	parts := []string{a.role.String()}
	if sess.Subject != "" {
		parts = append([]string{sess.Subject}, parts...)
	}
	parts = append(parts, "session until "+sess.ExpiresAt.Local().Format("15:04"))
	return metaStyle.Render(strings.Join(parts, " · "))
}

func (a App) View() string {
	// Header: centered shimmer logo and session line
	logo := renderShimmerLogo(a.frame)
	logoPad := (a.width - lipgloss.Width(logo)) / 2
	if logoPad < 0 {
		logoPad = 0
	}
	status := a.statusLine()
	statusPad := (a.width - lipgloss.Width(status)) / 2
	if statusPad < 0 {
		statusPad = 0
	}
	header := strings.Repeat(" ", logoPad) + logo + "\n" + strings.Repeat(" ", statusPad) + status

	// Tab bar: equal-width columns spread across the terminal
	tabs := tabsFor(a.role)
	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for i, t := range tabs {
		num := fmt.Sprintf("%d", i+1)
		var label string
		if t.v == a.view {
			label = accentStyle.Render(num) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(num) + " " + dimStyle.Render(t.name)
		}
		if t.v == viewWishlist && a.wishlist.ctrl != nil && a.wishlist.ctrl.Len() > 0 {
			label += " " + dimStyle.Render(fmt.Sprintf("%d", a.wishlist.ctrl.Len()))
		}
		labelWidth := lipgloss.Width(label)
		leftPad := (colWidth - labelWidth) / 2
		if leftPad < 0 {
			leftPad = 0
		}
		rightPad := colWidth - labelWidth - leftPad
		if rightPad < 0 {
			rightPad = 0
		}
		tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}

	var body, help string
	numKeys := fmt.Sprintf("1-%d", len(tabs))
	switch a.view {
	case viewCatalog:
		body, help = a.catalog.View(), a.catalog.helpKeys()
	case viewLogin:
		body, help = a.login.View(), a.login.helpKeys()
	case viewWishlist:
		body, help = a.wishlist.View(), a.wishlist.helpKeys()
	case viewLoans:
		body, help = a.loans.View(), a.loans.helpKeys()
	case viewDashboard:
		body, help = a.dashboard.View(), a.dashboard.helpKeys()
	case viewUsers:
		body, help = a.users.View(), a.users.helpKeys()
	case viewBooks:
		body, help = a.books.View(), a.books.helpKeys()
	case viewAdminLoans:
		body, help = a.adminLoans.View(), a.adminLoans.helpKeys()
	case viewProfile:
		body, help = a.profile.View(), a.profile.helpKeys()
	}
	if !a.isEditing() {
		help = " " + helpEntry(numKeys, "tabs") + help
		if a.guard != nil {
			help += "  " + helpEntry("L", "sign out")
		}
	}

	// Help overlay
	if a.helpOpen {
		body = helpView(a.helpItems(), a.helpCursor)
		if a.opts.Version != "" {
			body += "\n  " + metaStyle.Render("aeternum "+a.opts.Version) + "\n"
		}
		help = helpBar("j/k", "nav", "enter", "open", "esc", "close")
	}

	toastLine := ""
	if a.toast != "" {
		toastLine = " " + toastStyle.Render(a.toast)
	}

	// Chrome budget: header(2) + tabs(1) + toast(1) + help(1) = 5 lines + body
	chrome := 5
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabBar.String(), body, toastLine, help)
}
