package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wolfeidau/sheetclock/cmd/cli/internal/credentials"
	"github.com/wolfeidau/sheetclock/internal/client"
)

type Globals struct {
	Debug     bool
	Version   string
	ConfigDir string
	Timeout   time.Duration
	Stdout    io.Writer
}

func (g *Globals) out() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// ServerFlag selects the server, falling back to the one used by the last login.
type ServerFlag struct {
	Server string `help:"Server URL (defaults to the last server logged in to)" env:"SHEETCLOCK_SERVER"`
}

// connection is a client restored from the saved login for a server.
type connection struct {
	client *client.Client
	store  *credentials.Store
	server string
	login  *credentials.Login
}

func newClient(globals *Globals, server string) (*client.Client, error) {
	cfg := client.DefaultConfig()
	cfg.ServerURL = server
	cfg.Debug = globals.Debug
	if globals.Timeout > 0 {
		cfg.Timeout = globals.Timeout
	}
	return client.New(cfg)
}

// connect restores the saved login for the selected server.
func connect(globals *Globals, flag ServerFlag) (*connection, error) {
	store, err := credentials.NewStore(globals.ConfigDir)
	if err != nil {
		return nil, err
	}

	server, err := store.ResolveServer(flag.Server)
	if err != nil {
		if errors.Is(err, credentials.ErrNoDefaultServer) {
			return nil, fmt.Errorf("no server selected, run login with --server first")
		}
		return nil, err
	}

	login, err := store.Get(server)
	if err != nil {
		if errors.Is(err, credentials.ErrNotLoggedIn) {
			return nil, fmt.Errorf("not logged in to %s, run login first", server)
		}
		return nil, err
	}

	c, err := newClient(globals, server)
	if err != nil {
		return nil, err
	}
	c.SetSessionCookie(login.Cookie)

	return &connection{client: c, store: store, server: server, login: login}, nil
}

// check turns an expired login into an actionable message.
func (c *connection) check(err error) error {
	if client.IsUnauthorized(err) {
		return fmt.Errorf("login for %s has expired, run login again: %w", c.server, err)
	}
	return err
}

func formatMinutes(minutes int64) string {
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

func formatElapsed(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
