package commands

import (
	"fmt"
	"os"

	"github.com/wolfeidau/tracker/internal/auth"
)

type KeygenCmd struct {
	PrivateOut string `help:"write the private key to this file instead of stdout" type:"path"`
	PublicOut  string `help:"write the public key to this file instead of stdout" type:"path"`
}

func (c *KeygenCmd) Run(globals *Globals) error {
	privatePEM, publicPEM, err := auth.GenerateSigningKey()
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}

	if err := writeOrPrint(c.PrivateOut, privatePEM, 0o600); err != nil {
		return err
	}
	return writeOrPrint(c.PublicOut, publicPEM, 0o644)
}

func writeOrPrint(path, content string, perm os.FileMode) error {
	if path == "" {
		_, err := fmt.Fprint(os.Stdout, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
