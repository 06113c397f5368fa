package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sheetclock/cmd/cli/internal/credentials"
)

type LoginCmd struct {
	Server   string `help:"Server URL" default:"http://localhost:3000" env:"SHEETCLOCK_SERVER"`
	Email    string `help:"Employee email" required:""`
	Password string `help:"Password, read from stdin when empty" env:"SHEETCLOCK_PASSWORD"`

	stdin io.Reader
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	password := l.Password
	if password == "" {
		in := l.stdin
		if in == nil {
			in = os.Stdin
		}
		fmt.Fprint(globals.out(), "Password: ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
		fmt.Fprintln(globals.out())
	}

	c, err := newClient(globals, l.Server)
	if err != nil {
		return err
	}

	emp, err := c.Login(ctx, l.Email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cookie := c.SessionCookie()
	if cookie == "" {
		return fmt.Errorf("login failed: server did not return a session cookie")
	}

	store, err := credentials.NewStore(globals.ConfigDir)
	if err != nil {
		return err
	}
	err = store.Save(l.Server, credentials.Login{
		Cookie:  cookie,
		Email:   emp.Email,
		Name:    emp.Name,
		IsAdmin: emp.IsAdmin,
	})
	if err != nil {
		return err
	}

	log.Debug().Str("server", l.Server).Str("email", emp.Email).Msg("logged in")

	fmt.Fprintf(globals.out(), "Logged in to %s as %s <%s>\n", l.Server, emp.Name, emp.Email)
	if emp.IsAdmin {
		fmt.Fprintln(globals.out(), "Role: admin")
	}
	return nil
}

type LogoutCmd struct {
	ServerFlag
}

// Run ends the login session. The server closes any running work session on logout.
func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	conn, err := connect(globals, l.ServerFlag)
	if err != nil {
		return err
	}

	if err := conn.client.Logout(ctx); err != nil {
		// the local login is removed either way
		log.Warn().Err(err).Str("server", conn.server).Msg("server logout failed")
	}

	if err := conn.store.Delete(conn.server); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Logged out of %s\n", conn.server)
	return nil
}

type StatusCmd struct {
	ServerFlag
}

func (s *StatusCmd) Run(ctx context.Context, globals *Globals) error {
	conn, err := connect(globals, s.ServerFlag)
	if err != nil {
		return err
	}

	status, err := conn.client.Status(ctx)
	if err != nil {
		return err
	}

	if !status.Authenticated || status.User == nil {
		fmt.Fprintf(globals.out(), "Not authenticated with %s (saved login for %s has expired)\n", conn.server, conn.login.Email)
		return nil
	}

	role := "employee"
	if status.User.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(globals.out(), "Server:      %s\n", conn.server)
	fmt.Fprintf(globals.out(), "User:        %s <%s>\n", status.User.Name, status.User.Email)
	fmt.Fprintf(globals.out(), "Role:        %s\n", role)
	fmt.Fprintf(globals.out(), "Hourly rate: %.2f CZK\n", status.User.HourlyRate)

	active, err := conn.client.ActiveSession(ctx)
	if err != nil {
		return conn.check(err)
	}
	printActive(globals, active)
	return nil
}
