package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aeternum/aeternum/pkg/domain"
)

var (
	// ErrMalformed is returned when a token cannot be decoded or lacks an expiry.
	ErrMalformed = errors.New("session: malformed token")
	// ErrExpired marks a token whose expiry is at or before the current time.
	ErrExpired = errors.New("session: token expired")
)

// Claims is the part of the token payload the client reads.
type Claims struct {
	Subject string
	Role    Role
	Exp     time.Time
}

// Decoder extracts claims from a session token.
type Decoder interface {
	Decode(token string) (Claims, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(token string) (Claims, error)

func (f DecoderFunc) Decode(token string) (Claims, error) { return f(token) }

// JWTDecoder reads the payload of a JWT without verifying its signature.
// The backend verifies; the client only needs the expiry to decide when to
// stop using the token.
type JWTDecoder struct{}

func (JWTDecoder) Decode(token string) (Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if exp == nil {
		return Claims{}, fmt.Errorf("%w: missing exp claim", ErrMalformed)
	}
	sub, _ := claims.GetSubject() //nolint:errcheck // subject is informational
	rol, _ := claims["rol"].(string)
	if rol == "" {
		rol, _ = claims["role"].(string)
	}
	return Claims{Subject: sub, Role: ParseRole(rol), Exp: exp.Time}, nil
}

// Role is the kind of account a session belongs to.
type Role int

const (
	RoleGuest Role = iota
	RoleUser
	RoleLibrarian
)

// ParseRole maps the API's role names onto Role.
func ParseRole(s string) Role {
	switch s {
	case domain.RoleUser:
		return RoleUser
	case domain.RoleLibrarian:
		return RoleLibrarian
	default:
		return RoleGuest
	}
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleLibrarian:
		return "librarian"
	default:
		return "guest"
	}
}
