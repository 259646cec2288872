package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aeternum/aeternum/pkg/domain"
)

// Wishlist returns the caller's saved books.
func (c *Client) Wishlist(ctx context.Context) ([]domain.WishlistItem, error) {
	items, err := getList[domain.WishlistItem](ctx, c, "/wishlist/list")
	if err != nil {
		return nil, fmt.Errorf("client.Wishlist: %w", err)
	}
	return items, nil
}

// AddToWishlist saves a book and returns its catalog id.
func (c *Client) AddToWishlist(ctx context.Context, item domain.WishlistAdd) (domain.ID, error) {
	var res MessageResponse
	if err := c.post(ctx, "/wishlist/add", item, &res); err != nil {
		return "", fmt.Errorf("client.AddToWishlist: %w", err)
	}
	return res.LibroID, nil
}

// RemoveFromWishlist deletes a saved book.
func (c *Client) RemoveFromWishlist(ctx context.Context, bookID domain.ID) error {
	var res MessageResponse
	if err := c.delete(ctx, "/wishlist/delete/"+url.PathEscape(bookID.String()), &res); err != nil {
		return fmt.Errorf("client.RemoveFromWishlist: %w", err)
	}
	return nil
}
