package domain

// Rating bounds accepted by POST /reviews/rate.
const (
	MinRating = 1
	MaxRating = 5
)

// MinCommentLen is the shortest comment text the server accepts, in runes.
const MinCommentLen = 5

// RatingStats is the average score of a work and the number of votes.
type RatingStats struct {
	Promedio   float64 `json:"promedio"`
	TotalVotos int     `json:"total_votos"`
}

// Comment is one reader's note on a work.
type Comment struct {
	ID              ID     `json:"id"`
	Texto           string `json:"texto"`
	FechaComentario string `json:"fecha_comentario,omitempty"`
	NombreUsuario   string `json:"nombre_usuario,omitempty"`
	UsuarioID       ID     `json:"usuario_id,omitempty"`
}

// ProfileUpdate is the payload of PUT /users/me.
type ProfileUpdate struct {
	Nombre             string `json:"nombre" validate:"required"`
	Apellido           string `json:"apellido" validate:"required"`
	Correo             string `json:"correo" validate:"required,email"`
	TipoIdentificacion string `json:"tipo_identificacion,omitempty"`
	NumIdentificacion  string `json:"num_identificacion,omitempty"`
}

// Profile returns the editable fields of u.
func (u User) Profile() ProfileUpdate {
	return ProfileUpdate{
		Nombre:             u.Nombre,
		Apellido:           u.Apellido,
		Correo:             u.Correo,
		TipoIdentificacion: u.TipoIdentificacion,
		NumIdentificacion:  u.NumIdentificacion,
	}
}
