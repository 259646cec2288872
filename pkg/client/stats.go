package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aeternum/aeternum/pkg/domain"
)

// Popularity rankings accepted by PopularBooks.
const (
	PopularByLoans    = "prestamos"
	PopularByWishlist = "wishlist"
)

// GeneralStats returns the librarian dashboard counters.
func (c *Client) GeneralStats(ctx context.Context) (*domain.GeneralStats, error) {
	var res struct {
		Estadisticas domain.GeneralStats `json:"estadisticas"`
	}
	if err := c.get(ctx, "/estadisticas/bibliotecario/generales", &res); err != nil {
		return nil, fmt.Errorf("client.GeneralStats: %w", err)
	}
	return &res.Estadisticas, nil
}

// Alerts returns pickups due today and loans about to fall due.
func (c *Client) Alerts(ctx context.Context) (*domain.Alerts, error) {
	var res struct {
		Alertas domain.Alerts `json:"alertas"`
	}
	if err := c.get(ctx, "/estadisticas/bibliotecario/alertas", &res); err != nil {
		return nil, fmt.Errorf("client.Alerts: %w", err)
	}
	return &res.Alertas, nil
}

// MonthlyLoans returns the loan chart series, oldest month first.
func (c *Client) MonthlyLoans(ctx context.Context) ([]domain.MonthlyLoans, error) {
	var res struct {
		Grafica []domain.MonthlyLoans `json:"grafica"`
	}
	if err := c.get(ctx, "/estadisticas/bibliotecario/grafica-prestamos", &res); err != nil {
		return nil, fmt.Errorf("client.MonthlyLoans: %w", err)
	}
	return res.Grafica, nil
}

// PopularBooks ranks books by loans or wishlist saves.
func (c *Client) PopularBooks(ctx context.Context, by string) ([]domain.PopularBook, error) {
	if by == "" {
		by = PopularByLoans
	}
	params := url.Values{}
	params.Set("tipo", by)

	books, err := getList[domain.PopularBook](ctx, c, "/estadisticas/bibliotecario/libros-populares?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("client.PopularBooks: %w", err)
	}
	return books, nil
}
