package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tracker/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Login       commands.LoginCmd       `cmd:"" help:"Log in and store an access token"`
		Whoami      commands.WhoamiCmd      `cmd:"" help:"Show the current user"`
		Credentials commands.CredentialsCmd `cmd:"" help:"Manage stored credentials"`
		Projects    commands.ProjectsCmd    `cmd:"" help:"List projects"`
		Workflows   commands.WorkflowsCmd   `cmd:"" help:"List workflows"`
		Tickets     commands.TicketsCmd     `cmd:"" help:"Work with tickets"`

		Credential     string `help:"Stored credential to use, defaults to the default credential." env:"TRACKER_CREDENTIAL"`
		CredentialsDir string `help:"Custom credentials directory." env:"TRACKER_CREDENTIALS_DIR"`
		Debug          bool   `help:"Enable debug mode."`
		Version        kong.VersionFlag
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("tracker-cli"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	level := zerolog.WarnLevel
	if cli.Debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger

	err := cmd.Run(&commands.Globals{
		Debug:          cli.Debug,
		Version:        version,
		CredentialsDir: cli.CredentialsDir,
		Credential:     cli.Credential,
	})
	cmd.FatalIfErrorf(err)
}
