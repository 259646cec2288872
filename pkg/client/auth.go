package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aeternum/aeternum/pkg/domain"
)

// LoginRequest is the payload of POST /auth/login.
type LoginRequest struct {
	Correo string `json:"correo" validate:"required,email"`
	Clave  string `json:"clave" validate:"required,min=4"`
}

// RegisterRequest is the payload of POST /auth/register. Librarians use it
// to create accounts; the privacy consent is implied in that case.
type RegisterRequest struct {
	Nombre             string `json:"nombre" validate:"required"`
	Apellido           string `json:"apellido" validate:"required"`
	Correo             string `json:"correo" validate:"required,email"`
	Clave              string `json:"clave" validate:"required,min=8"`
	Rol                string `json:"rol" validate:"omitempty,oneof=usuario bibliotecario"`
	TipoIdentificacion string `json:"tipo_identificacion"`
	NumIdentificacion  string `json:"num_identificacion"`
	Consent            bool   `json:"consent"`
}

// MessageResponse is the {message} body most mutations answer with.
type MessageResponse struct {
	Status  string    `json:"status,omitempty"`
	Message string    `json:"message"`
	UserID  domain.ID `json:"user_id,omitempty"`
	LibroID domain.ID `json:"libro_id,omitempty"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*domain.LoginResult, error) {
	var res domain.LoginResult
	if err := c.post(ctx, "/auth/login", req, &res); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	if res.AccessToken == "" {
		return nil, fmt.Errorf("client.Login: response carried no access token")
	}
	return &res, nil
}

// Register creates an account and returns its id.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (domain.ID, error) {
	if req.Rol == "" {
		req.Rol = domain.RoleUser
	}
	var res MessageResponse
	if err := c.post(ctx, "/auth/register", req, &res); err != nil {
		return "", fmt.Errorf("client.Register: %w", err)
	}
	return res.UserID, nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/users/me", &u); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &u, nil
}

// UpdateMe changes the caller's own profile and returns the stored record.
func (c *Client) UpdateMe(ctx context.Context, p domain.ProfileUpdate) (*domain.User, error) {
	var u domain.User
	if err := c.put(ctx, "/users/me", p, &u); err != nil {
		return nil, fmt.Errorf("client.UpdateMe: %w", err)
	}
	return &u, nil
}

// DeactivateMe disables the caller's account. The token stops working for
// guarded routes once it succeeds.
func (c *Client) DeactivateMe(ctx context.Context) (string, error) {
	var res MessageResponse
	if err := c.delete(ctx, "/users/me", &res); err != nil {
		return "", fmt.Errorf("client.DeactivateMe: %w", err)
	}
	return res.Message, nil
}

// ResendVerification mails a new account verification link to correo.
func (c *Client) ResendVerification(ctx context.Context, correo string) (string, error) {
	var res MessageResponse
	body := struct {
		Correo string `json:"correo"`
	}{correo}
	if err := c.post(ctx, "/auth/reenviar-verificacion", body, &res); err != nil {
		return "", fmt.Errorf("client.ResendVerification: %w", err)
	}
	return res.Message, nil
}

// RequestPasswordReset asks the server to mail a reset link. The server
// answers the same way whether or not the address is registered.
func (c *Client) RequestPasswordReset(ctx context.Context, correo string) (string, error) {
	params := url.Values{}
	params.Set("correo", correo)

	var res MessageResponse
	if err := c.post(ctx, "/password/recuperar_contrasena?"+params.Encode(), nil, &res); err != nil {
		return "", fmt.Errorf("client.RequestPasswordReset: %w", err)
	}
	return res.Message, nil
}

// ResetPassword sets a new password using the token from a reset link.
// An invalid or expired token yields HTTP 400.
func (c *Client) ResetPassword(ctx context.Context, token, password string) (string, error) {
	params := url.Values{}
	params.Set("token", token)
	params.Set("nueva_contrasena", password)

	var res MessageResponse
	if err := c.post(ctx, "/password/restablecer_contrasena?"+params.Encode(), nil, &res); err != nil {
		return "", fmt.Errorf("client.ResetPassword: %w", err)
	}
	return res.Message, nil
}
