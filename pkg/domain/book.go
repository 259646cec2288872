package domain

import (
	"strconv"
	"strings"
)

// Book is a catalog record managed by librarians.
type Book struct {
	ID                 ID     `json:"id"`
	Titulo             string `json:"titulo"`
	Descripcion        string `json:"descripcion,omitempty"`
	AutorID            ID     `json:"autor_id,omitempty"`
	EditorialID        ID     `json:"editorial_id,omitempty"`
	GeneroID           ID     `json:"genero_id,omitempty"`
	FechaPublicacion   string `json:"fecha_publicacion,omitempty"`
	CantidadDisponible int    `json:"cantidad_disponible"`
	Estado             string `json:"estado,omitempty"`
	OpenLibraryKey     string `json:"openlibrary_key,omitempty"`
	CoverID            int    `json:"cover_id,omitempty"`
	AutorNombre        string `json:"autor_nombre,omitempty"`
	EditorialNombre    string `json:"editorial_nombre,omitempty"`
	GeneroNombre       string `json:"genero_nombre,omitempty"`
}

// Active reports whether the book can be lent.
func (b Book) Active() bool {
	return b.Estado != StatusDisabled
}

// CatalogEntry is a row of the author, publisher or genre catalogs.
type CatalogEntry struct {
	ID     ID     `json:"id"`
	Nombre string `json:"nombre"`
}

// WishlistItem is a book saved to the caller's wishlist.
type WishlistItem struct {
	ID                 ID     `json:"id"`
	Titulo             string `json:"titulo"`
	Descripcion        string `json:"descripcion,omitempty"`
	OpenLibraryKey     string `json:"openlibrary_key,omitempty"`
	CoverID            int    `json:"cover_id,omitempty"`
	CantidadDisponible int    `json:"cantidad_disponible"`
	Estado             string `json:"estado,omitempty"`
	Autor              string `json:"autor,omitempty"`
	Editorial          string `json:"editorial,omitempty"`
	Genero             string `json:"genero,omitempty"`
	FechaAgregado      string `json:"fecha_agregado,omitempty"`
}

// WishlistAdd is the payload of POST /wishlist/add, built from an Open
// Library search result.
type WishlistAdd struct {
	OpenLibraryKey   string `json:"openlibrary_key"`
	Titulo           string `json:"titulo"`
	Autor            string `json:"autor"`
	Genero           string `json:"genero"`
	Editorial        string `json:"editorial"`
	Descripcion      string `json:"descripcion"`
	CoverID          *int   `json:"cover_id"`
	FechaPublicacion string `json:"fecha_publicacion,omitempty"`
}

// OpenLibraryDoc is one search result from the Open Library search API.
type OpenLibraryDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name,omitempty"`
	Publisher        []string `json:"publisher,omitempty"`
	Subject          []string `json:"subject,omitempty"`
	FirstPublishYear int      `json:"first_publish_year,omitempty"`
	CoverI           int      `json:"cover_i,omitempty"`
	EditionCount     int      `json:"edition_count,omitempty"`
}

// Author returns the first listed author or "Desconocido".
func (d OpenLibraryDoc) Author() string {
	if len(d.AuthorName) > 0 {
		return d.AuthorName[0]
	}
	return "Desconocido"
}

// WishlistPayload converts the search result into a wishlist request.
func (d OpenLibraryDoc) WishlistPayload() WishlistAdd {
	w := WishlistAdd{
		OpenLibraryKey: d.Key,
		Titulo:         d.Title,
		Autor:          d.Author(),
		Genero:         "General",
		Editorial:      "Desconocida",
	}
	if len(d.Subject) > 0 {
		w.Genero = d.Subject[0]
	}
	if len(d.Publisher) > 0 {
		w.Editorial = d.Publisher[0]
	}
	if d.CoverI != 0 {
		cover := d.CoverI
		w.CoverID = &cover
	}
	if d.FirstPublishYear != 0 {
		w.FechaPublicacion = strconv.Itoa(d.FirstPublishYear)
	}
	return w
}

// WorkID returns the key without its "/works/" prefix.
func (d OpenLibraryDoc) WorkID() string {
	return strings.TrimPrefix(d.Key, "/works/")
}

// DigitalLoan builds the digital loan payload for the work.
func (d OpenLibraryDoc) DigitalLoan() DigitalLoan {
	return DigitalLoan{OpenLibraryKey: d.WorkID(), Titulo: d.Title, Autor: d.Author()}
}
