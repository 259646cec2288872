package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aeternum/aeternum/pkg/domain"
)

// RateResult is the answer to POST /reviews/rate.
type RateResult struct {
	Message    string             `json:"message"`
	Stats      domain.RatingStats `json:"stats"`
	UserRating int                `json:"user_rating"`
}

type rateRequest struct {
	Puntuacion int                `json:"puntuacion"`
	Libro      domain.WishlistAdd `json:"libro"`
}

type commentRequest struct {
	Texto string              `json:"texto"`
	Libro *domain.WishlistAdd `json:"libro,omitempty"`
}

type commentsResponse struct {
	Message  string           `json:"message,omitempty"`
	Comments []domain.Comment `json:"comments"`
}

// Rate records the caller's score for a work, replacing an earlier one.
// The server stores the work first if it is not in the catalog yet.
func (c *Client) Rate(ctx context.Context, book domain.WishlistAdd, score int) (*RateResult, error) {
	if score < domain.MinRating || score > domain.MaxRating {
		return nil, fmt.Errorf("client.Rate: score %d out of range %d-%d", score, domain.MinRating, domain.MaxRating)
	}
	var res RateResult
	if err := c.post(ctx, "/reviews/rate", rateRequest{Puntuacion: score, Libro: book}, &res); err != nil {
		return nil, fmt.Errorf("client.Rate: %w", err)
	}
	return &res, nil
}

// Ratings returns the average score of the work with the given Open Library
// id. Works nobody rated yet report zero votes.
func (c *Client) Ratings(ctx context.Context, workID string) (domain.RatingStats, error) {
	var res domain.RatingStats
	if err := c.get(ctx, "/reviews/ratings/"+url.PathEscape(workID), &res); err != nil {
		return domain.RatingStats{}, fmt.Errorf("client.Ratings: %w", err)
	}
	return res, nil
}

// UserRating returns the caller's score for a work, zero when unrated.
func (c *Client) UserRating(ctx context.Context, workID string) (int, error) {
	var res struct {
		UserRating int `json:"user_rating"`
	}
	if err := c.get(ctx, "/reviews/user-rating/"+url.PathEscape(workID), &res); err != nil {
		return 0, fmt.Errorf("client.UserRating: %w", err)
	}
	return res.UserRating, nil
}

// Comments returns a work's comments, newest first.
func (c *Client) Comments(ctx context.Context, workID string) ([]domain.Comment, error) {
	var res commentsResponse
	if err := c.get(ctx, "/reviews/comments/"+url.PathEscape(workID), &res); err != nil {
		return nil, fmt.Errorf("client.Comments: %w", err)
	}
	return res.Comments, nil
}

// AddComment posts a comment and returns the work's comments afterwards.
func (c *Client) AddComment(ctx context.Context, book domain.WishlistAdd, texto string) ([]domain.Comment, error) {
	var res commentsResponse
	if err := c.post(ctx, "/reviews/comment", commentRequest{Texto: texto, Libro: &book}, &res); err != nil {
		return nil, fmt.Errorf("client.AddComment: %w", err)
	}
	return res.Comments, nil
}

// UpdateComment changes the text of one of the caller's comments. Comments
// of other readers are refused with HTTP 403.
func (c *Client) UpdateComment(ctx context.Context, id domain.ID, texto string) error {
	var res MessageResponse
	if err := c.put(ctx, "/reviews/comment/"+url.PathEscape(id.String()), commentRequest{Texto: texto}, &res); err != nil {
		return fmt.Errorf("client.UpdateComment: %w", err)
	}
	return nil
}

// DeleteComment removes one of the caller's comments.
func (c *Client) DeleteComment(ctx context.Context, id domain.ID) error {
	var res MessageResponse
	if err := c.delete(ctx, "/reviews/comment/"+url.PathEscape(id.String()), &res); err != nil {
		return fmt.Errorf("client.DeleteComment: %w", err)
	}
	return nil
}
