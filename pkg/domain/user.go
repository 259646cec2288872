package domain

// User status values.
const (
	StatusActive   = "Activo"
	StatusDisabled = "Desactivado"
)

// Role values as sent by the API.
const (
	RoleUser      = "usuario"
	RoleLibrarian = "bibliotecario"
)

// User is a library member or librarian account.
type User struct {
	ID                 ID     `json:"id"`
	Nombre             string `json:"nombre"`
	Apellido           string `json:"apellido"`
	Correo             string `json:"correo"`
	Rol                string `json:"rol,omitempty"`
	TipoIdentificacion string `json:"tipo_identificacion,omitempty"`
	NumIdentificacion  string `json:"num_identificacion,omitempty"`
	Estado             string `json:"estado,omitempty"`
}

// FullName returns "Nombre Apellido".
func (u User) FullName() string {
	if u.Apellido == "" {
		return u.Nombre
	}
	return u.Nombre + " " + u.Apellido
}

// Active reports whether the account is enabled.
func (u User) Active() bool {
	return u.Estado != StatusDisabled
}

// ToggledStatus returns the status a toggle action moves the record to.
func ToggledStatus(estado string) string {
	if estado == StatusDisabled {
		return StatusActive
	}
	return StatusDisabled
}

// LoginResult is the response of POST /auth/login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Rol         string `json:"rol"`
	User        *User  `json:"user,omitempty"`
}
