package tui

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aeternum/aeternum/internal/session"
	"github.com/aeternum/aeternum/pkg/client"
	"github.com/aeternum/aeternum/pkg/domain"
)

const adaProfile = `{"id":7,"nombre":"Ada","apellido":"Lovelace","correo":"ada@example.com","rol":"usuario","estado":"Activo","tipo_identificacion":"CC","num_identificacion":"1815"}`

func loadedProfile(t *testing.T, be *backend) profileModel {
	t.Helper()
	be.reply("GET /users/me", http.StatusOK, adaProfile)
	m := newProfileModel(be.client())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	loaded, ok := find[profileLoadedMsg](collect(m.Init(), time.Second))
	if !ok || loaded.err != nil {
		t.Fatalf("load = %+v", loaded)
	}
	m, _ = m.Update(loaded)
	return m
}

func TestProfileShowsAccount(t *testing.T) {
	m := loadedProfile(t, newBackend(t))
	out := m.View()
	for _, want := range []string{"Ada Lovelace", "ada@example.com", "CC 1815", "Activo"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q: %q", want, out)
		}
	}
}

func TestProfileEditConfirms(t *testing.T) {
	be := newBackend(t)
	var sent domain.ProfileUpdate
	be.handle("PUT /users/me", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&sent)                                                                                     //nolint:errcheck
		w.Write([]byte(`{"id":7,"nombre":"Ada","apellido":"King","correo":"ada@example.com","rol":"usuario","estado":"Activo"}`)) //nolint:errcheck
	})
	m := loadedProfile(t, be)

	m, _ = m.Update(key("e"))
	if !m.editing() {
		t.Fatal("edit form should open")
	}
	m, _ = m.Update(key("tab"))
	for range len("Lovelace") {
		m, _ = m.Update(key("backspace"))
	}
	m = typeInto(m, "King")
	m, cmd := m.Update(key("ctrl+s"))
	if u, _ := m.user(); u.Apellido != "King" || !m.ctrl.Pending("7") {
		t.Fatalf("optimistic profile = %+v", u)
	}
	if !strings.Contains(m.View(), "saving") {
		t.Error("pending profile should say so")
	}
	res, _ := find[resultMsg](collect(cmd, time.Second))
	if res.err != nil || res.text() != "profile updated" {
		t.Fatalf("result = %+v", res)
	}
	if sent.Apellido != "King" || sent.Correo != "ada@example.com" || sent.NumIdentificacion != "1815" {
		t.Errorf("sent %+v", sent)
	}
	if u, _ := m.user(); u.TipoIdentificacion != "" {
		t.Errorf("the server record should replace the local one: %+v", u)
	}
}

func TestProfileEditRollsBack(t *testing.T) {
	be := newBackend(t)
	be.reply("PUT /users/me", http.StatusInternalServerError, `{"detail":"No se pudo actualizar el usuario"}`)
	m := loadedProfile(t, be)

	m, _ = m.Update(key("e"))
	m = typeInto(m, "!")
	m, cmd := m.Update(key("ctrl+s"))
	res, _ := find[resultMsg](collect(cmd, time.Second))
	if !strings.Contains(res.text(), "No se pudo actualizar") {
		t.Errorf("toast = %q", res.text())
	}
	if u, _ := m.user(); u.Nombre != "Ada" {
		t.Errorf("nombre after rollback = %q", u.Nombre)
	}
}

func TestProfileEditValidates(t *testing.T) {
	m := loadedProfile(t, newBackend(t))
	m, _ = m.Update(key("e"))
	m, _ = m.Update(key("tab"))
	m, _ = m.Update(key("tab"))
	m = typeInto(m, " not-an-email")
	m, cmd := m.Update(key("ctrl+s"))
	if cmd != nil || !m.editing() {
		t.Fatal("a bad email should keep the form open")
	}
	if !strings.Contains(m.View(), "Email: not a valid email") {
		t.Errorf("view = %q", m.View())
	}
}

func TestProfileDeactivateNeedsConfirmation(t *testing.T) {
	be := newBackend(t)
	be.reply("DELETE /users/me", http.StatusOK, `{"status":"success","message":"Usuario desactivado correctamente"}`)
	m := loadedProfile(t, be)

	m, _ = m.Update(key("D"))
	if !m.editing() || !strings.Contains(m.View(), "Press y to confirm") {
		t.Fatalf("view = %q", m.View())
	}
	m, cmd := m.Update(key("n"))
	if msg, _ := find[toastMsg](collect(cmd, time.Second)); string(msg) != "deactivation cancelled" {
		t.Errorf("toast = %q", msg)
	}
	if be.count("DELETE /users/me") != 0 {
		t.Fatal("server was called without confirmation")
	}

	m, _ = m.Update(key("D"))
	_, cmd = m.Update(key("y"))
	done, ok := find[deactivatedMsg](collect(cmd, time.Second))
	if !ok || done.err != nil {
		t.Fatalf("deactivate = %+v", done)
	}
}

func TestAppDeactivationSignsOut(t *testing.T) {
	a, store := newTestApp(t, "user")
	a = update(a, scopedMsg{mount: a.mountID, view: viewProfile, msg: deactivatedMsg{message: "Usuario desactivado correctamente"}})
	if a.Role() != session.RoleGuest || a.guard != nil || a.view != viewCatalog {
		t.Fatalf("role=%v view=%d", a.Role(), a.view)
	}
	if tok, _ := store.Read(); tok != "" {
		t.Errorf("token kept: %q", tok)
	}
	if a.toast != "your account was deactivated" {
		t.Errorf("toast = %q", a.toast)
	}
}

func TestAppDeactivationFailureKeepsSession(t *testing.T) {
	a, _ := newTestApp(t, "user")
	a = update(a, key("4"))
	a, cmd := updateCmd(a, scopedMsg{mount: a.mountID, view: viewProfile, msg: deactivatedMsg{err: &client.HTTPError{StatusCode: 500, Message: "No se pudo desactivar el usuario"}}})
	if a.Role() != session.RoleUser {
		t.Fatalf("role = %v", a.Role())
	}
	if got := toastTexts(collect(cmd, time.Second)); len(got) != 1 || !strings.Contains(got[0], "No se pudo desactivar") {
		t.Errorf("toasts = %q", got)
	}
}
