package domain

// Physical loan states.
const (
	LoanPending   = "pendiente"
	LoanActive    = "activo"
	LoanOverdue   = "atrasado"
	LoanReturned  = "devuelto"
	LoanCancelled = "cancelado"
)

// LoanStates lists every physical loan state in workflow order.
var LoanStates = []string{LoanPending, LoanActive, LoanOverdue, LoanReturned, LoanCancelled}

// ValidLoanState reports whether s is a known physical loan state.
func ValidLoanState(s string) bool {
	for _, st := range LoanStates {
		if st == s {
			return true
		}
	}
	return false
}

// Loan is a physical loan request.
type Loan struct {
	ID                  ID     `json:"id"`
	LibroID             ID     `json:"libro_id"`
	Titulo              string `json:"titulo"`
	Autor               string `json:"autor,omitempty"`
	OpenLibraryKey      string `json:"openlibrary_key,omitempty"`
	UsuarioID           ID     `json:"usuario_id,omitempty"`
	Nombre              string `json:"nombre,omitempty"`
	Apellido            string `json:"apellido,omitempty"`
	Correo              string `json:"correo,omitempty"`
	FechaSolicitud      string `json:"fecha_solicitud,omitempty"`
	FechaRecogida       string `json:"fecha_recogida,omitempty"`
	FechaDevolucion     string `json:"fecha_devolucion,omitempty"`
	FechaDevolucionReal string `json:"fecha_devolucion_real,omitempty"`
	Estado              string `json:"estado"`
	CreatedAt           string `json:"created_at,omitempty"`
}

// Borrower returns the borrower's display name.
func (l Loan) Borrower() string {
	if l.Apellido == "" {
		return l.Nombre
	}
	return l.Nombre + " " + l.Apellido
}

// Cancellable reports whether the borrower may still cancel the loan.
func (l Loan) Cancellable() bool {
	return l.Estado == LoanPending
}

// LoanRequest is the payload of POST /prestamos-fisicos/solicitar.
type LoanRequest struct {
	LibroID       ID     `json:"libro_id" validate:"required"`
	FechaRecogida string `json:"fecha_recogida" validate:"required,datetime=2006-01-02"`
}

// DigitalLoan is a digital loan record.
type DigitalLoan struct {
	ID             ID     `json:"id,omitempty"`
	UsuarioID      ID     `json:"usuario_id,omitempty"`
	Titulo         string `json:"titulo"`
	Autor          string `json:"autor,omitempty"`
	OpenLibraryKey string `json:"openlibrary_key,omitempty"`
	Nombre         string `json:"nombre,omitempty"`
	Correo         string `json:"correo,omitempty"`
	FechaPrestamo  string `json:"fecha_prestamo,omitempty"`
}
