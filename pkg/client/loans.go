package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/aeternum/aeternum/pkg/domain"
)

// --- Physical loans ---

// MyLoans returns the caller's physical loans.
func (c *Client) MyLoans(ctx context.Context) ([]domain.Loan, error) {
	loans, err := getList[domain.Loan](ctx, c, "/prestamos-fisicos/mis-prestamos")
	if err != nil {
		return nil, fmt.Errorf("client.MyLoans: %w", err)
	}
	return loans, nil
}

// RequestLoan asks to pick up a book on req.FechaRecogida (YYYY-MM-DD,
// today up to 30 days ahead).
func (c *Client) RequestLoan(ctx context.Context, req domain.LoanRequest) error {
	var res MessageResponse
	if err := c.post(ctx, "/prestamos-fisicos/solicitar", req, &res); err != nil {
		return fmt.Errorf("client.RequestLoan: %w", err)
	}
	return nil
}

// CancelLoan cancels one of the caller's pending loans.
func (c *Client) CancelLoan(ctx context.Context, id domain.ID) error {
	var res MessageResponse
	if err := c.put(ctx, "/prestamos-fisicos/cancelar/"+url.PathEscape(id.String()), nil, &res); err != nil {
		return fmt.Errorf("client.CancelLoan: %w", err)
	}
	return nil
}

// SetLoanState moves a loan to estado. Librarians only.
func (c *Client) SetLoanState(ctx context.Context, id domain.ID, estado string) error {
	if !domain.ValidLoanState(estado) {
		return fmt.Errorf("client.SetLoanState: unknown state %q", estado)
	}
	var res MessageResponse
	body := map[string]string{"estado": estado}
	if err := c.put(ctx, "/prestamos-fisicos/estado/"+url.PathEscape(id.String()), body, &res); err != nil {
		return fmt.Errorf("client.SetLoanState: %w", err)
	}
	return nil
}

// RecentLoans returns the latest physical loans across all users.
func (c *Client) RecentLoans(ctx context.Context, limit int) ([]domain.Loan, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	loans, err := getList[domain.Loan](ctx, c, "/estadisticas/bibliotecario/prestamos-recientes?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("client.RecentLoans: %w", err)
	}
	return loans, nil
}

// --- Digital loans ---

// BorrowDigital records a digital loan of an Open Library work.
func (c *Client) BorrowDigital(ctx context.Context, loan domain.DigitalLoan) error {
	var res MessageResponse
	if err := c.post(ctx, "/prestamos/digital", loan, &res); err != nil {
		return fmt.Errorf("client.BorrowDigital: %w", err)
	}
	return nil
}

// DigitalLoans returns every digital loan. Librarians only.
func (c *Client) DigitalLoans(ctx context.Context) ([]domain.DigitalLoan, error) {
	loans, err := getList[domain.DigitalLoan](ctx, c, "/prestamos/all-digital")
	if err != nil {
		return nil, fmt.Errorf("client.DigitalLoans: %w", err)
	}
	return loans, nil
}
