package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/sheetclock/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool              `help:"Enable debug mode."`
		Version kong.VersionFlag  `help:"Print the version and exit."`
		Config  kong.ConfigFlag   `help:"Load configuration from a YAML file." env:"SHEETCLOCK_CONFIG"`
		Serve   commands.ServeCmd `cmd:"" help:"Start the time tracking server (API + static site)"`
		Seed    commands.SeedCmd  `cmd:"" help:"Create employees from a YAML or JSON file"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("sheetclock-server"),
		kong.Vars{
			"version": version,
		},
		kong.Configuration(commands.YAMLLoader),
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
