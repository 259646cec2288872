package tui

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aeternum/aeternum/pkg/client"
)

func TestLoginSubmitsCredentials(t *testing.T) {
	be := newBackend(t)
	var body client.LoginRequest
	be.handle("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)                     //nolint:errcheck
		w.Write([]byte(`{"access_token":"tok","rol":"usuario"}`)) //nolint:errcheck
	})

	m := newLoginModel(be.client())
	m = typeInto(m, "ada@example.com")
	m, _ = m.Update(key("enter"))
	m = typeInto(m, "secret")
	m, cmd := m.Update(key("enter"))
	if !m.submitting {
		t.Fatal("expected submitting after enter on the last field")
	}
	if !strings.Contains(m.View(), "contacting server") {
		t.Error("view should show progress while submitting")
	}

	msgs := collect(cmd, time.Second)
	done, ok := find[loginDoneMsg](msgs)
	if !ok {
		t.Fatalf("no loginDoneMsg in %v", msgs)
	}
	if done.err != nil || done.res.AccessToken != "tok" {
		t.Fatalf("login result = %+v, %v", done.res, done.err)
	}
	if body.Correo != "ada@example.com" || body.Clave != "secret" {
		t.Errorf("sent %+v", body)
	}

	m, _ = m.Update(done)
	if m.submitting {
		t.Error("still submitting after the result arrived")
	}
}

func TestLoginInvalidDoesNotCallServer(t *testing.T) {
	be := newBackend(t)
	m := newLoginModel(be.client())
	m = typeInto(m, "nope")
	m, _ = m.Update(key("enter"))
	m, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Fatal("invalid form should not produce a command")
	}
	if !strings.Contains(m.View(), "Email: not a valid email") {
		t.Errorf("view = %q", m.View())
	}
	if be.count("POST /auth/login") != 0 {
		t.Error("server was called")
	}
}

func TestLoginShowsServerError(t *testing.T) {
	be := newBackend(t)
	be.reply("POST /auth/login", http.StatusUnauthorized, `{"detail":"Credenciales incorrectas"}`)

	m := newLoginModel(be.client())
	m.form = signInForm("ada@example.com")
	m.form.focus = 1
	m = typeInto(m, "wrong")
	m, cmd := m.Update(key("enter"))
	done, _ := find[loginDoneMsg](collect(cmd, time.Second))
	m, _ = m.Update(done)
	if !strings.Contains(m.View(), "Credenciales incorrectas") {
		t.Errorf("view = %q", m.View())
	}
}

func TestLoginIgnoresKeysWhileSubmitting(t *testing.T) {
	m := newLoginModel(nil)
	m.submitting = true
	m, cmd := m.Update(key("x"))
	if cmd != nil || m.form.fields[0].value != "" {
		t.Error("keys should be ignored while a request is in flight")
	}
}

func TestRegisterRequiresConsent(t *testing.T) {
	be := newBackend(t)
	m := newLoginModel(be.client())
	m, _ = m.Update(key("ctrl+r"))
	if m.mode != loginModeRegister {
		t.Fatal("ctrl+r should switch to the register form")
	}
	values := []string{"Ada", "Lovelace", "ada@example.com", "analytical", "CC", "123", "no"}
	for i, v := range values {
		m = typeInto(m, v)
		if i < len(values)-1 {
			m, _ = m.Update(key("enter"))
		}
	}
	m, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Fatal("register without consent should not call the server")
	}
	if !strings.Contains(m.form.err, "Accept privacy policy") {
		t.Errorf("err = %q", m.form.err)
	}
}

func TestRegisterSwitchesToSignIn(t *testing.T) {
	be := newBackend(t)
	var body client.RegisterRequest
	be.handle("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)            //nolint:errcheck
		w.Write([]byte(`{"message":"ok","user_id":12}`)) //nolint:errcheck
	})

	m := newLoginModel(be.client())
	m, _ = m.Update(key("ctrl+r"))
	values := []string{"Ada", "Lovelace", "ada@example.com", "analytical", "CC", "123", "yes"}
	for i, v := range values {
		m = typeInto(m, v)
		if i < len(values)-1 {
			m, _ = m.Update(key("enter"))
		}
	}
	m, cmd := m.Update(key("enter"))
	done, ok := find[registerDoneMsg](collect(cmd, time.Second))
	if !ok {
		t.Fatal("no registerDoneMsg")
	}
	if !body.Consent || body.Rol != "usuario" {
		t.Errorf("register body = %+v", body)
	}

	m, _ = m.Update(done)
	if m.mode != loginModeSignIn {
		t.Error("should return to sign in after registering")
	}
	if m.form.value("Correo") != "ada@example.com" || m.form.focus != 1 {
		t.Errorf("sign in form should be prefilled and focused on the password")
	}
	if !strings.Contains(m.View(), "account created") {
		t.Errorf("view = %q", m.View())
	}
}
