package domain

// GeneralStats is the librarian dashboard summary.
type GeneralStats struct {
	TotalActivos      int `json:"total_activos"`
	PendientesAprobar int `json:"pendientes_aprobar"`
	ParaRecogerHoy    int `json:"para_recoger_hoy"`
	Vencidos          int `json:"vencidos"`
}

// Alert is a loan needing librarian attention.
type Alert struct {
	ID              ID     `json:"id"`
	Titulo          string `json:"titulo"`
	UsuarioID       ID     `json:"usuario_id"`
	Nombre          string `json:"nombre"`
	Apellido        string `json:"apellido"`
	Correo          string `json:"correo"`
	FechaRecogida   string `json:"fecha_recogida,omitempty"`
	FechaDevolucion string `json:"fecha_devolucion,omitempty"`
}

// Alerts groups pickups due today and loans due today or tomorrow.
type Alerts struct {
	RecogenHoy []Alert `json:"recogen_hoy"`
	PorVencer  []Alert `json:"por_vencer"`
}

// MonthlyLoans is one bar of the monthly loan chart.
type MonthlyLoans struct {
	Mes        string `json:"mes"`
	Total      int    `json:"total"`
	Devueltos  int    `json:"devueltos"`
	Activos    int    `json:"activos"`
	Atrasados  int    `json:"atrasados"`
	Cancelados int    `json:"cancelados"`
}

// PopularBook is a book ranked by loans or wishlist saves.
type PopularBook struct {
	LibroID ID     `json:"libro_id,omitempty"`
	Titulo  string `json:"titulo"`
	Autor   string `json:"autor,omitempty"`
	Total   int    `json:"total"`
}
