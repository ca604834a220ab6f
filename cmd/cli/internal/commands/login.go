package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/wolfeidau/tracker/cmd/cli/internal/credentials"
	"github.com/wolfeidau/tracker/internal/client"
	"golang.org/x/term"
)

// LoginCmd exchanges an email and password for an access token and stores it.
type LoginCmd struct {
	Email    string `arg:"" help:"Account email"`
	Server   string `help:"Tracker server URL" default:"http://localhost:8080" env:"TRACKER_SERVER"`
	Name     string `help:"Name to store the credential under" default:"default"`
	Password string `help:"Account password, prompted for when empty" env:"TRACKER_PASSWORD"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	password := l.Password
	if password == "" {
		var err error
		password, err = readPassword()
		if err != nil {
			return err
		}
	}

	cfg := client.DefaultConfig()
	cfg.ServerURL = l.Server
	token, err := client.New(cfg).Login(ctx, l.Email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	store, err := globals.store()
	if err != nil {
		return err
	}

	cred, err := store.Save(credentials.Credential{
		Name:      l.Name,
		Server:    l.Server,
		Email:     token.User.Email,
		Token:     token.AccessToken,
		ExpiresAt: token.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	fmt.Fprintf(globals.out(), "Logged in as %s (%s).\n", token.User.Email, token.User.Role)
	fmt.Fprintf(globals.out(), "Credential %q expires at %s.\n", cred.Name, cred.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no password given and stdin is not a terminal, set --password or TRACKER_PASSWORD")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
