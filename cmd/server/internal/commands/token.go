package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/wolfeidau/tracker/internal/logger"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

type TokenCmd struct {
	Email    string        `arg:"" help:"email of the user to issue a token for"`
	Postgres PostgresFlags `embed:"" prefix:"postgres-"`
	Auth     AuthFlags     `embed:"" prefix:"auth-"`
}

func (c *TokenCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	issuer, err := c.Auth.issuer(false)
	if err != nil {
		return err
	}

	st, err := c.Postgres.open(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	var user *models.User
	err = st.InReadTx(ctx, func(ctx context.Context, tx store.Tx) error {
		u, err := tx.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(c.Email)))
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	token, expiresAt, err := issuer.Issue(user)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	log.Info().
		Str("user_id", user.UserID.String()).
		Time("expires_at", expiresAt).
		Msg("Issued access token")

	_, err = fmt.Fprintln(os.Stdout, token)
	return err
}
