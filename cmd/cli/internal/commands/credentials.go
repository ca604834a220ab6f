package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/wolfeidau/tracker/cmd/cli/internal/credentials"
)

// CredentialsCmd manages local credentials.
type CredentialsCmd struct {
	List       CredentialsListCmd       `cmd:"" help:"List all credentials"`
	Show       CredentialsShowCmd       `cmd:"" help:"Show credential details"`
	Delete     CredentialsDeleteCmd     `cmd:"" help:"Delete a credential"`
	SetDefault CredentialsSetDefaultCmd `cmd:"" name:"set-default" help:"Set the default credential"`
}

func notFound(name string, err error) error {
	if errors.Is(err, credentials.ErrCredentialNotFound) {
		return fmt.Errorf("credential %q not found\n\nRun 'tracker-cli credentials list' to see available credentials", name)
	}
	return fmt.Errorf("failed to get credential: %w", err)
}

// CredentialsListCmd lists all credentials.
type CredentialsListCmd struct{}

func (c *CredentialsListCmd) Run(ctx context.Context, globals *Globals) error {
	store, err := globals.store()
	if err != nil {
		return err
	}

	creds, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list credentials: %w", err)
	}

	out := globals.out()
	if len(creds) == 0 {
		fmt.Fprintln(out, "No credentials found.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To log in:")
		fmt.Fprintln(out, "  tracker-cli login <email>")
		return nil
	}

	defaultName := ""
	if defaultCred, _ := store.GetDefault(); defaultCred != nil {
		defaultName = defaultCred.Name
	}

	now := time.Now()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tSERVER\tSTATUS\tFINGERPRINT\tDEFAULT")

	for _, cred := range creds {
		status := "valid"
		if cred.Expired(now) {
			status = "expired"
		}

		isDefault := ""
		if cred.Name == defaultName {
			isDefault = "*"
		}

		fp := cred.Fingerprint
		if len(fp) > 12 {
			fp = fp[:12] + "..."
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", cred.Name, cred.Email, cred.Server, status, fp, isDefault)
	}

	return w.Flush()
}

// CredentialsShowCmd shows details of a credential. The token itself is never printed.
type CredentialsShowCmd struct {
	Name string `arg:"" help:"Credential name"`
}

func (c *CredentialsShowCmd) Run(ctx context.Context, globals *Globals) error {
	store, err := globals.store()
	if err != nil {
		return err
	}

	cred, err := store.Get(c.Name)
	if err != nil {
		return notFound(c.Name, err)
	}

	out := globals.out()
	fmt.Fprintf(out, "Name:         %s\n", cred.Name)
	fmt.Fprintf(out, "Email:        %s\n", cred.Email)
	fmt.Fprintf(out, "Server:       %s\n", cred.Server)
	fmt.Fprintf(out, "Fingerprint:  %s\n", cred.Fingerprint)
	fmt.Fprintf(out, "Expires:      %s\n", cred.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Expired:      %v\n", cred.Expired(time.Now()))
	fmt.Fprintf(out, "Created:      %s\n", cred.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Updated:      %s\n", cred.UpdatedAt.Format("2006-01-02 15:04:05"))

	return nil
}

// CredentialsDeleteCmd deletes a credential.
type CredentialsDeleteCmd struct {
	Name string `arg:"" help:"Credential name"`
}

func (c *CredentialsDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	store, err := globals.store()
	if err != nil {
		return err
	}

	if err := store.Delete(c.Name); err != nil {
		return notFound(c.Name, err)
	}

	fmt.Fprintf(globals.out(), "Credential %q deleted.\n", c.Name)
	return nil
}

// CredentialsSetDefaultCmd sets the default credential.
type CredentialsSetDefaultCmd struct {
	Name string `arg:"" help:"Credential name"`
}

func (c *CredentialsSetDefaultCmd) Run(ctx context.Context, globals *Globals) error {
	store, err := globals.store()
	if err != nil {
		return err
	}

	if err := store.SetDefault(c.Name); err != nil {
		return notFound(c.Name, err)
	}

	fmt.Fprintf(globals.out(), "Default credential set to %q.\n", c.Name)
	return nil
}
