package tui

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aeternum/aeternum/pkg/client"
	"github.com/aeternum/aeternum/pkg/domain"
)

func loadedUsers(t *testing.T, be *backend) usersModel {
	t.Helper()
	m := newUsersModel(be.client())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = m.Update(usersLoadedMsg{users: []domain.User{
		{ID: "1", Nombre: "Ada", Apellido: "Lovelace", Correo: "ada@example.com", Rol: "usuario", Estado: domain.StatusActive},
		{ID: "2", Nombre: "Alan", Apellido: "Turing", Correo: "alan@example.com", Rol: "bibliotecario", Estado: domain.StatusDisabled},
	}})
	return m
}

func TestUsersToggleShowsPendingThenConfirms(t *testing.T) {
	be := newBackend(t)
	be.reply("PUT /admin/users/desactivar/1", http.StatusOK, `{"message":"ok"}`)
	m := loadedUsers(t, be)

	m, cmd := m.Update(key("t"))
	u, _ := m.ctrl.Get("1")
	if u.Estado != domain.StatusDisabled || !m.ctrl.Pending("1") {
		t.Fatalf("optimistic state = %q pending=%v", u.Estado, m.ctrl.Pending("1"))
	}
	if !strings.Contains(m.View(), domain.StatusDisabled+"…") {
		t.Error("pending row should carry the pending marker")
	}

	res, _ := find[resultMsg](collect(cmd, time.Second))
	if res.err != nil {
		t.Fatalf("toggle failed: %v", res.err)
	}
	if res.text() != "Ada Lovelace disabled" {
		t.Errorf("toast = %q", res.text())
	}
	m, _ = m.Update(res)
	if m.ctrl.Pending("1") {
		t.Error("still pending after the server answered")
	}
	if u, _ := m.ctrl.Get("1"); u.Estado != domain.StatusDisabled {
		t.Errorf("estado = %q after confirm", u.Estado)
	}
}

func TestUsersToggleRollsBackOnServerError(t *testing.T) {
	be := newBackend(t)
	be.reply("PUT /admin/users/reactivar/2", http.StatusInternalServerError, `{"detail":"db down"}`)
	m := loadedUsers(t, be)

	m, _ = m.Update(key("j"))
	m, cmd := m.Update(key("t"))
	if u, _ := m.ctrl.Get("2"); u.Estado != domain.StatusActive {
		t.Fatalf("optimistic estado = %q", u.Estado)
	}

	// A second toggle on the same row is refused while the first is in flight.
	_, busy := m.Update(key("t"))
	if msg, _ := find[toastMsg](collect(busy, time.Second)); !strings.Contains(string(msg), "busy") {
		t.Errorf("second toggle toast = %q", msg)
	}

	res, _ := find[resultMsg](collect(cmd, time.Second))
	m, _ = m.Update(res)
	u, _ := m.ctrl.Get("2")
	if u.Estado != domain.StatusDisabled {
		t.Errorf("estado after rollback = %q, want %q", u.Estado, domain.StatusDisabled)
	}
	if !strings.Contains(res.text(), "db down") {
		t.Errorf("toast = %q", res.text())
	}
}

func TestUsersFilter(t *testing.T) {
	m := loadedUsers(t, newBackend(t))
	m, _ = m.Update(key("/"))
	if !m.editing() {
		t.Fatal("/ should start filtering")
	}
	m = typeInto(m, "turing")
	m, _ = m.Update(key("enter"))
	if got := m.visible(); len(got) != 1 || got[0].ID != "2" {
		t.Errorf("visible = %+v", got)
	}
	m, _ = m.Update(key("/"))
	m, _ = m.Update(key("esc"))
	if len(m.visible()) != 2 {
		t.Error("esc should clear the filter")
	}
}

func TestUsersCreateUsesServerID(t *testing.T) {
	be := newBackend(t)
	var body client.RegisterRequest
	be.handle("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)                //nolint:errcheck
		w.Write([]byte(`{"message":"creado","user_id":44}`)) //nolint:errcheck
	})
	m := loadedUsers(t, be)

	m, _ = m.Update(key("n"))
	for _, v := range []string{"Grace", "Hopper", "grace@example.com", "cobol-1959"} {
		m = typeInto(m, v)
		m, _ = m.Update(key("enter"))
	}
	m, cmd := m.Update(key("ctrl+s"))
	if m.editing() {
		t.Fatal("form should close on a valid submit")
	}
	items := m.ctrl.Items()
	if len(items) != 3 || !items[0].ID.Local() {
		t.Fatalf("draft not inserted at the head: %+v", items)
	}

	res, _ := find[resultMsg](collect(cmd, time.Second))
	if res.err != nil || res.reload {
		t.Fatalf("result = %+v", res)
	}
	if body.Rol != domain.RoleUser || !body.Consent {
		t.Errorf("register body = %+v", body)
	}
	got, ok := m.ctrl.Get("44")
	if !ok || got.FullName() != "Grace Hopper" {
		t.Errorf("created user = %+v, found=%v", got, ok)
	}
	if m.ctrl.Len() != 3 {
		t.Errorf("len = %d, want 3", m.ctrl.Len())
	}
}

func TestUsersCreateWithoutIDReloads(t *testing.T) {
	be := newBackend(t)
	be.reply("POST /auth/register", http.StatusOK, `{"message":"creado"}`)
	be.reply("GET /admin/users/", http.StatusOK, `{"usuarios":[]}`)
	m := loadedUsers(t, be)

	m, _ = m.Update(key("n"))
	for _, v := range []string{"Grace", "Hopper", "grace@example.com", "cobol-1959"} {
		m = typeInto(m, v)
		m, _ = m.Update(key("enter"))
	}
	m, cmd := m.Update(key("ctrl+s"))
	res, _ := find[resultMsg](collect(cmd, time.Second))
	if !res.reload {
		t.Fatal("a create without an id should ask for a reload")
	}
	_, reload := m.Update(res)
	if _, ok := find[usersLoadedMsg](collect(reload, time.Second)); !ok {
		t.Error("reload should refetch the users")
	}
}

func TestUsersReloadWaitsForPendingToggle(t *testing.T) {
	be := newBackend(t)
	be.reply("POST /auth/register", http.StatusOK, `{"message":"creado"}`)
	be.reply("PUT /admin/users/desactivar/1", http.StatusOK, `{"message":"ok"}`)
	be.reply("GET /admin/users/", http.StatusOK, `{"usuarios":[{"id":1,"nombre":"Ada","estado":"inactivo"},{"id":44,"nombre":"Grace"}]}`)
	m := loadedUsers(t, be)

	m, _ = m.Update(key("n"))
	for _, v := range []string{"Grace", "Hopper", "grace@example.com", "cobol-1959"} {
		m = typeInto(m, v)
		m, _ = m.Update(key("enter"))
	}
	m, create := m.Update(key("ctrl+s"))
	m, _ = m.Update(key("j"))
	m, toggle := m.Update(key("t"))
	if !m.ctrl.Pending("1") {
		t.Fatal("toggle should be in flight")
	}

	res, _ := find[resultMsg](collect(create, time.Second))
	m, cmd := m.Update(res)
	if cmd != nil || be.count("GET /admin/users/") != 0 {
		t.Fatal("reload must wait while the toggle is in flight")
	}

	res, _ = find[resultMsg](collect(toggle, time.Second))
	m, cmd = m.Update(res)
	loaded, ok := find[usersLoadedMsg](collect(cmd, time.Second))
	if !ok {
		t.Fatal("the reload should run once the toggle settles")
	}
	m, _ = m.Update(loaded)
	if _, ok := m.ctrl.Get("44"); !ok {
		t.Error("reloaded list should hold the created user")
	}
	for _, u := range m.ctrl.Items() {
		if u.ID.Local() {
			t.Errorf("draft %q left behind", u.ID)
		}
	}
}

func TestUsersLoadDuringMutationRetries(t *testing.T) {
	be := newBackend(t)
	be.reply("PUT /admin/users/desactivar/1", http.StatusOK, `{"message":"ok"}`)
	be.reply("GET /admin/users/", http.StatusOK, `{"usuarios":[{"id":1,"nombre":"Ada","estado":"inactivo"}]}`)
	m := loadedUsers(t, be)

	m, toggle := m.Update(key("t"))
	m, cmd := m.Update(usersLoadedMsg{users: []domain.User{{ID: "9"}}})
	if msg, _ := find[toastMsg](collect(cmd, time.Second)); string(msg) != pendingReloadText {
		t.Errorf("toast = %q", msg)
	}
	if _, ok := m.ctrl.Get("9"); ok {
		t.Fatal("a list must not replace rows with mutations in flight")
	}

	res, _ := find[resultMsg](collect(toggle, time.Second))
	m, cmd = m.Update(res)
	loaded, ok := find[usersLoadedMsg](collect(cmd, time.Second))
	if !ok {
		t.Fatal("the refused list should be fetched again")
	}
	m, _ = m.Update(loaded)
	if m.ctrl.Len() != 1 {
		t.Errorf("len = %d, want 1", m.ctrl.Len())
	}
}

func TestUsersCreateFailureRemovesDraft(t *testing.T) {
	be := newBackend(t)
	be.reply("POST /auth/register", http.StatusBadRequest, `{"detail":"El correo ya existe"}`)
	m := loadedUsers(t, be)

	m, _ = m.Update(key("n"))
	for _, v := range []string{"Ada", "Again", "ada@example.com", "password1"} {
		m = typeInto(m, v)
		m, _ = m.Update(key("enter"))
	}
	m, cmd := m.Update(key("ctrl+s"))
	res, _ := find[resultMsg](collect(cmd, time.Second))
	if !strings.Contains(res.text(), "El correo ya existe") {
		t.Errorf("toast = %q", res.text())
	}
	if m.ctrl.Len() != 2 {
		t.Errorf("len = %d after failed create, want 2", m.ctrl.Len())
	}
	for _, u := range m.ctrl.Items() {
		if u.ID.Local() {
			t.Errorf("draft %q left behind", u.ID)
		}
	}
}

func TestUsersCreateValidates(t *testing.T) {
	m := loadedUsers(t, newBackend(t))
	m, _ = m.Update(key("n"))
	m, cmd := m.Update(key("ctrl+s"))
	if cmd != nil || !m.editing() {
		t.Fatal("empty form should not submit")
	}
	if !strings.Contains(m.View(), "First name: required") {
		t.Errorf("view = %q", m.View())
	}
}

func TestUsersEditMergesServerRecord(t *testing.T) {
	be := newBackend(t)
	be.reply("PUT /admin/users/1", http.StatusOK, `{"message":"ok","usuario":{"id":1,"nombre":"Augusta Ada","apellido":"King","correo":"ada@example.com","rol":"usuario","estado":"Activo"}}`)
	m := loadedUsers(t, be)

	m, _ = m.Update(key("e"))
	if !strings.Contains(m.View(), "Edit Ada Lovelace") {
		t.Fatalf("view = %q", m.View())
	}
	m, _ = m.Update(key("tab")) // last name
	for range len("Lovelace") {
		m, _ = m.Update(key("backspace"))
	}
	m = typeInto(m, "King")
	m, cmd := m.Update(key("ctrl+s"))
	if u, _ := m.ctrl.Get("1"); u.Apellido != "King" {
		t.Fatalf("optimistic apellido = %q", u.Apellido)
	}

	res, _ := find[resultMsg](collect(cmd, time.Second))
	if res.err != nil {
		t.Fatal(res.err)
	}
	if u, _ := m.ctrl.Get("1"); u.Nombre != "Augusta Ada" {
		t.Errorf("server record not merged: %+v", u)
	}
}
