package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aeternum/aeternum/pkg/client"
	"github.com/aeternum/aeternum/pkg/domain"
)

type loginMode int

const (
	loginModeSignIn loginMode = iota
	loginModeRegister
)

type loginModel struct {
	client     *client.Client
	mode       loginMode
	form       form
	submitting bool
	notice     string
}

// loginDoneMsg carries the result of POST /auth/login.
type loginDoneMsg struct {
	res *domain.LoginResult
	err error
}

// registerDoneMsg carries the result of a public sign-up.
type registerDoneMsg struct {
	correo string
	err    error
}

func newLoginModel(c *client.Client) loginModel {
	return loginModel{client: c, form: signInForm("")}
}

func signInForm(correo string) form {
	return newForm("Sign in",
		formField{label: "Email", key: "Correo", value: correo, placeholder: "you@example.com"},
		formField{label: "Password", key: "Clave", placeholder: "at least 4 characters", masked: true},
	)
}

func registerForm() form {
	return newForm("Create an account",
		formField{label: "First name", key: "Nombre"},
		formField{label: "Last name", key: "Apellido"},
		formField{label: "Email", key: "Correo", placeholder: "you@example.com"},
		formField{label: "Password", key: "Clave", placeholder: "at least 8 characters", masked: true},
		formField{label: "ID type", key: "TipoIdentificacion", placeholder: "CC, TI, CE"},
		formField{label: "ID number", key: "NumIdentificacion"},
		formField{label: "Accept privacy policy", key: "Consent", placeholder: "type yes"},
	)
}

func (m loginModel) Init() tea.Cmd {
	return nil
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.form.err = client.Message(msg.err)
			return m, nil
		}
		m.form = signInForm("")
		return m, nil

	case registerDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.form.err = client.Message(msg.err)
			return m, nil
		}
		m.mode = loginModeSignIn
		m.form = signInForm(msg.correo)
		m.form.focus = 1
		m.notice = "account created, sign in to continue"
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		m.notice = ""
		if msg.String() == "ctrl+r" {
			if m.mode == loginModeSignIn {
				m.mode = loginModeRegister
				m.form = registerForm()
			} else {
				m.mode = loginModeSignIn
				m.form = signInForm("")
			}
			return m, nil
		}
		f, submit, _ := m.form.update(msg.String())
		m.form = f
		if submit {
			return m.submit()
		}
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	c := m.client
	if m.mode == loginModeRegister {
		req := client.RegisterRequest{
			Nombre:             m.form.value("Nombre"),
			Apellido:           m.form.value("Apellido"),
			Correo:             m.form.value("Correo"),
			Clave:              m.form.value("Clave"),
			Rol:                domain.RoleUser,
			TipoIdentificacion: m.form.value("TipoIdentificacion"),
			NumIdentificacion:  m.form.value("NumIdentificacion"),
			Consent:            strings.EqualFold(m.form.value("Consent"), "yes"),
		}
		var ok bool
		if m.form, ok = m.form.check(req); !ok {
			return m, nil
		}
		if !req.Consent {
			m.form.err = "Accept privacy policy: required"
			return m, nil
		}
		m.submitting = true
		return m, func() tea.Msg {
			_, err := c.Register(context.Background(), req)
			return registerDoneMsg{correo: req.Correo, err: err}
		}
	}

	req := client.LoginRequest{Correo: m.form.value("Correo"), Clave: m.form.value("Clave")}
	var ok bool
	if m.form, ok = m.form.check(req); !ok {
		return m, nil
	}
	m.submitting = true
	return m, func() tea.Msg {
		res, err := c.Login(context.Background(), req)
		return loginDoneMsg{res: res, err: err}
	}
}

// editing is always true: every key belongs to the form.
func (m loginModel) editing() bool { return true }

func (m loginModel) helpKeys() string {
	if m.mode == loginModeRegister {
		return helpBar("tab", "next", "enter", "submit", "ctrl+r", "sign in", "esc", "catalog")
	}
	return helpBar("tab", "next", "enter", "sign in", "ctrl+r", "register", "esc", "catalog")
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(m.form.View())
	if m.submitting {
		b.WriteString("\n " + pendingStyle.Render("contacting server...") + "\n")
	}
	if m.notice != "" {
		b.WriteString("\n " + okStyle.Render(m.notice) + "\n")
	}
	if m.mode == loginModeSignIn {
		b.WriteString("\n " + metaStyle.Render("Forgot your password? run: aeternum reset request <email>") + "\n")
	}
	return b.String()
}
