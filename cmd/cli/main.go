package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/sheetclock/cmd/cli/internal/commands"
	"github.com/wolfeidau/sheetclock/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Login   commands.LoginCmd   `cmd:"" help:"Log in and save the session"`
		Logout  commands.LogoutCmd  `cmd:"" help:"Log out, ending any running work session"`
		Status  commands.StatusCmd  `cmd:"" help:"Show who is logged in"`
		Docs    commands.DocsCmd    `cmd:"" help:"Manage tracked documents"`
		Start   commands.StartCmd   `cmd:"" help:"Start a work session on a tracked document"`
		Stop    commands.StopCmd    `cmd:"" help:"End the running work session"`
		Active  commands.ActiveCmd  `cmd:"" help:"Show the running work session"`
		History commands.HistoryCmd `cmd:"" help:"List recorded work sessions"`
		Summary commands.SummaryCmd `cmd:"" help:"Summarize recorded work sessions"`

		Debug     bool             `help:"Enable debug mode."`
		ConfigDir string           `help:"Directory holding saved logins (default ~/.sheetclock)" env:"SHEETCLOCK_HOME"`
		Timeout   time.Duration    `help:"HTTP request timeout." default:"30s"`
		Version   kong.VersionFlag `help:"Print the version and exit."`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("sheetclock"),
		kong.Description("Track work sessions against shared spreadsheets."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	logger.SetupConsole(cli.Debug)

	err := cmd.Run(&commands.Globals{
		Debug:     cli.Debug,
		Version:   version,
		ConfigDir: cli.ConfigDir,
		Timeout:   cli.Timeout,
	})
	cmd.FatalIfErrorf(err)
}
