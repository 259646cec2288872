package client

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/aeternum/aeternum/pkg/domain"
)

// --- User administration ---

// UpdateUserRequest is the payload of PUT /admin/users/{id}.
type UpdateUserRequest struct {
	Nombre             string `json:"nombre" validate:"required"`
	Apellido           string `json:"apellido" validate:"required"`
	Correo             string `json:"correo" validate:"required,email"`
	TipoIdentificacion string `json:"tipo_identificacion,omitempty"`
	NumIdentificacion  string `json:"num_identificacion,omitempty"`
}

// ListUsers returns every account.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := getList[domain.User](ctx, c, "/admin/users/")
	if err != nil {
		return nil, fmt.Errorf("client.ListUsers: %w", err)
	}
	return users, nil
}

// UpdateUser edits an account's profile fields.
func (c *Client) UpdateUser(ctx context.Context, id domain.ID, req UpdateUserRequest) (*domain.User, error) {
	var res struct {
		Usuario *domain.User `json:"usuario"`
	}
	if err := c.put(ctx, "/admin/users/"+url.PathEscape(id.String()), req, &res); err != nil {
		return nil, fmt.Errorf("client.UpdateUser: %w", err)
	}
	return res.Usuario, nil
}

// SetUserActive enables or disables an account.
func (c *Client) SetUserActive(ctx context.Context, id domain.ID, active bool) error {
	action := "desactivar"
	if active {
		action = "reactivar"
	}
	var res MessageResponse
	if err := c.put(ctx, "/admin/users/"+action+"/"+url.PathEscape(id.String()), nil, &res); err != nil {
		return fmt.Errorf("client.SetUserActive: %w", err)
	}
	return nil
}

// --- Book administration ---

// BookRequest is the payload for creating or editing a book.
type BookRequest struct {
	Titulo             string    `json:"titulo" validate:"required"`
	Descripcion        string    `json:"descripcion"`
	AutorID            domain.ID `json:"autor_id" validate:"required"`
	EditorialID        domain.ID `json:"editorial_id" validate:"required"`
	GeneroID           domain.ID `json:"genero_id" validate:"required"`
	FechaPublicacion   string    `json:"fecha_publicacion,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CantidadDisponible int       `json:"cantidad_disponible" validate:"gte=0"`
	OpenLibraryKey     string    `json:"openlibrary_key,omitempty"`
	CoverID            int       `json:"cover_id,omitempty"`
}

// ListBooks returns the managed catalog.
func (c *Client) ListBooks(ctx context.Context) ([]domain.Book, error) {
	books, err := getList[domain.Book](ctx, c, "/admin/books/")
	if err != nil {
		return nil, fmt.Errorf("client.ListBooks: %w", err)
	}
	return books, nil
}

// CreateBook adds a book and returns its new id.
func (c *Client) CreateBook(ctx context.Context, req BookRequest) (domain.ID, error) {
	var res MessageResponse
	if err := c.post(ctx, "/admin/books/", req, &res); err != nil {
		return "", fmt.Errorf("client.CreateBook: %w", err)
	}
	return res.LibroID, nil
}

// UpdateBook edits a book.
func (c *Client) UpdateBook(ctx context.Context, id domain.ID, req BookRequest) error {
	var res MessageResponse
	if err := c.put(ctx, "/admin/books/"+url.PathEscape(id.String()), req, &res); err != nil {
		return fmt.Errorf("client.UpdateBook: %w", err)
	}
	return nil
}

// SetBookActive enables or disables a book.
func (c *Client) SetBookActive(ctx context.Context, id domain.ID, active bool) error {
	action := "desactivar"
	if active {
		action = "activar"
	}
	var res MessageResponse
	if err := c.put(ctx, "/admin/books/"+action+"/"+url.PathEscape(id.String()), nil, &res); err != nil {
		return fmt.Errorf("client.SetBookActive: %w", err)
	}
	return nil
}

// --- Catalogs ---

// Catalogs holds the lookup tables a book form needs.
type Catalogs struct {
	Autores     []domain.CatalogEntry
	Editoriales []domain.CatalogEntry
	Generos     []domain.CatalogEntry
}

// ListAuthors returns the author catalog.
func (c *Client) ListAuthors(ctx context.Context) ([]domain.CatalogEntry, error) {
	return c.catalog(ctx, "client.ListAuthors", "/autores/")
}

// ListPublishers returns the publisher catalog.
func (c *Client) ListPublishers(ctx context.Context) ([]domain.CatalogEntry, error) {
	return c.catalog(ctx, "client.ListPublishers", "/editoriales/")
}

// ListGenres returns the genre catalog.
func (c *Client) ListGenres(ctx context.Context) ([]domain.CatalogEntry, error) {
	return c.catalog(ctx, "client.ListGenres", "/generos/")
}

// LoadCatalogs fetches the three catalogs concurrently.
func (c *Client) LoadCatalogs(ctx context.Context) (*Catalogs, error) {
	var cat Catalogs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cat.Autores, err = c.ListAuthors(gctx)
		return err
	})
	g.Go(func() (err error) {
		cat.Editoriales, err = c.ListPublishers(gctx)
		return err
	})
	g.Go(func() (err error) {
		cat.Generos, err = c.ListGenres(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("client.LoadCatalogs: %w", err)
	}
	return &cat, nil
}

// Name returns the catalog entry name for id, or "" if unknown.
func Name(entries []domain.CatalogEntry, id domain.ID) string {
	for _, e := range entries {
		if e.ID == id {
			return e.Nombre
		}
	}
	return ""
}

func (c *Client) catalog(ctx context.Context, op, path string) ([]domain.CatalogEntry, error) {
	entries, err := getList[domain.CatalogEntry](ctx, c, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}
