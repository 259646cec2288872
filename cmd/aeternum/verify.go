package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aeternum/aeternum/pkg/client"
)

// runVerify mails a new account verification link.
func (c *cli) runVerify(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: aeternum verify <email>")
	}
	correo := strings.TrimSpace(args[0])
	if err := validate.Var(correo, "required,email"); err != nil {
		return errors.New("verify: not a valid email address")
	}
	msg, err := c.apiClient(nil).ResendVerification(ctx, correo)
	if err != nil {
		return fmt.Errorf("verify: %s", client.Message(err))
	}
	if msg == "" {
		msg = "A new verification link is on its way."
	}
	printNotice(c.out, "Check your inbox", msg)
	return nil
}
