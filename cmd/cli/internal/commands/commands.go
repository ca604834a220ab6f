package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tracker/cmd/cli/internal/credentials"
	"github.com/wolfeidau/tracker/internal/client"
)

type Globals struct {
	Debug          bool
	Version        string
	CredentialsDir string
	Credential     string
	Out            io.Writer
}

func (g *Globals) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Globals) store() (*credentials.Store, error) {
	store, err := credentials.NewStore(g.CredentialsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}
	return store, nil
}

// client returns an API client authenticated with the selected credential.
func (g *Globals) client() (*client.Client, error) {
	store, err := g.store()
	if err != nil {
		return nil, err
	}

	cred, err := store.Resolve(g.Credential, time.Now())
	switch {
	case errors.Is(err, credentials.ErrNoDefaultCredential), errors.Is(err, credentials.ErrCredentialNotFound):
		return nil, fmt.Errorf("%w\n\nRun 'tracker-cli login <email>' first", err)
	case errors.Is(err, credentials.ErrCredentialExpired):
		return nil, fmt.Errorf("%w\n\nRun 'tracker-cli login' again to renew it", err)
	case err != nil:
		return nil, err
	}

	cfg := client.DefaultConfig()
	cfg.ServerURL = cred.Server
	cfg.Token = cred.Token
	return client.New(cfg), nil
}

func parseID(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return id, nil
}

func parseOptionalID(name, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(name, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func shortID(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()[:8]
}
