package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aeternum/aeternum/pkg/client"
)

// Password reset retry policy: 3 attempts, waiting 1s then 2s.
const (
	resetAttempts        = 3
	resetInitialInterval = time.Second
	resetMultiplier      = 2
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// resetForm is the new password and its confirmation.
type resetForm struct {
	Password     string `validate:"required,min=8"`
	Confirmation string `validate:"eqfield=Password"`
}

// newResetBackOff returns the delay schedule between reset attempts.
// Tests shorten it.
var newResetBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = resetInitialInterval
	b.Multiplier = resetMultiplier
	b.RandomizationFactor = 0
	return b
}

func (c *cli) runReset(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: aeternum reset request <email> | aeternum reset confirm <token>")
	}
	switch args[0] {
	case "request":
		return c.requestReset(ctx, strings.TrimSpace(args[1]))
	case "confirm":
		return c.confirmReset(ctx, strings.TrimSpace(args[1]))
	default:
		return fmt.Errorf("unknown reset step %q", args[0])
	}
}

// requestReset asks for a reset link. It is tried once.
func (c *cli) requestReset(ctx context.Context, correo string) error {
	if err := validate.Var(correo, "required,email"); err != nil {
		return errors.New("reset: not a valid email address")
	}
	msg, err := c.apiClient(nil).RequestPasswordReset(ctx, correo)
	if err != nil {
		return fmt.Errorf("reset: %s", client.Message(err))
	}
	if msg == "" {
		msg = "If the address is registered you will receive a link shortly."
	}
	printNotice(c.out, "Check your inbox", msg)
	return nil
}

// confirmReset reads the new password twice and submits it, retrying
// transient failures.
func (c *cli) confirmReset(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("reset: missing token")
	}
	var form resetForm
	var err error
	if form.Password, err = c.readLine("New password: "); err != nil {
		return err
	}
	if form.Confirmation, err = c.readLine("Confirm password: "); err != nil {
		return err
	}
	if err := validate.Struct(form); err != nil {
		return fmt.Errorf("reset: %s", describe(err))
	}

	msg, err := resetWithRetry(ctx, c.apiClient(nil), token, form.Password, c.log)
	if err != nil {
		if client.IsStatus(err, http.StatusBadRequest) {
			return errors.New("reset: the link is invalid or has expired, request a new one")
		}
		return fmt.Errorf("reset: %s", client.Message(err))
	}
	if msg == "" {
		msg = "Your password was changed. Sign in with: aeternum login <email>"
	}
	printNotice(c.out, "Password updated", msg)
	return nil
}

// resetWithRetry submits the reset up to resetAttempts times. Client errors
// (4xx) are final; network failures and 5xx answers are retried.
func resetWithRetry(ctx context.Context, api *client.Client, token, password string, log *zap.Logger) (string, error) {
	attempt := 0
	op := func() (string, error) {
		attempt++
		msg, err := api.ResetPassword(ctx, token, password)
		if err == nil {
			return msg, nil
		}
		var httpErr *client.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
			return "", backoff.Permanent(err)
		}
		return "", err
	}
	notify := func(err error, next time.Duration) {
		log.Warn("password reset attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", next),
			zap.Error(err),
		)
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(newResetBackOff()),
		backoff.WithMaxTries(resetAttempts),
		backoff.WithNotify(notify),
	)
}

// describe turns validator errors into a short sentence.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, strings.ToLower(fe.Field())+" is required")
		case "email":
			msgs = append(msgs, "not a valid email address")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s needs at least %s characters", strings.ToLower(fe.Field()), fe.Param()))
		case "eqfield":
			msgs = append(msgs, "passwords do not match")
		default:
			msgs = append(msgs, strings.ToLower(fe.Field())+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
