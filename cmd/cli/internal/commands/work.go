package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sheetclock/internal/models"
)

type StartCmd struct {
	ServerFlag
	Document     string        `arg:"" help:"ID of a tracked document"`
	Follow       bool          `short:"f" help:"Stay in the foreground showing elapsed time, the session ends when interrupted"`
	PollInterval time.Duration `help:"How often to refresh the session from the server while following" default:"30s"`
}

func (s *StartCmd) Run(ctx context.Context, globals *Globals) error {
	conn, err := connect(globals, s.ServerFlag)
	if err != nil {
		return err
	}

	docs, err := conn.client.Documents(ctx)
	if err != nil {
		return conn.check(err)
	}

	var doc *models.TrackedDocument
	for i := range docs {
		if docs[i].ID == s.Document {
			doc = &docs[i]
			break
		}
	}
	if doc == nil {
		return fmt.Errorf("document %s is not tracked, add it with: sheetclock docs add %s", s.Document, s.Document)
	}

	active, err := conn.client.StartSession(ctx, doc.ID, doc.Title)
	if err != nil {
		return conn.check(err)
	}

	fmt.Fprintf(globals.out(), "Started work on %q at %s\n", active.DocumentTitle, active.StartTime.Local().Format("15:04:05"))

	if !s.Follow {
		fmt.Fprintln(globals.out(), "Run 'sheetclock stop' when you are done.")
		return nil
	}

	return s.follow(ctx, conn, globals, active)
}

// follow shows the running session until ctx is cancelled, then ends it.
func (s *StartCmd) follow(ctx context.Context, conn *connection, globals *Globals, active *models.ActiveSession) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	refresh := time.NewTicker(s.PollInterval)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(globals.out())
			// the command context is gone, closing needs a fresh one
			endCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return endSession(endCtx, conn, globals)
		case <-ticker.C:
			elapsed := int64(time.Since(active.StartTime).Seconds())
			marker := ""
			if active.HadModifications {
				marker = " (modified)"
			}
			fmt.Fprintf(globals.out(), "\r%s  %s%s", truncate(active.DocumentTitle, 40), formatElapsed(elapsed), marker)
		case <-refresh.C:
			current, err := conn.client.ActiveSession(ctx)
			if err != nil {
				log.Debug().Err(err).Msg("failed to refresh work session")
				continue
			}
			if current == nil {
				fmt.Fprintln(globals.out())
				fmt.Fprintln(globals.out(), "Work session was closed on the server.")
				return nil
			}
			active = current
		}
	}
}

type StopCmd struct {
	ServerFlag
}

func (s *StopCmd) Run(ctx context.Context, globals *Globals) error {
	conn, err := connect(globals, s.ServerFlag)
	if err != nil {
		return err
	}
	return endSession(ctx, conn, globals)
}

func endSession(ctx context.Context, conn *connection, globals *Globals) error {
	result, err := conn.client.EndSession(ctx)
	if err != nil {
		return conn.check(err)
	}

	if result.Discarded {
		fmt.Fprintf(globals.out(), "No significant activity to record (%s, no modifications).\n", formatMinutes(result.DurationMinutes))
		return nil
	}

	fmt.Fprintf(globals.out(), "Work session recorded: %s", formatMinutes(result.DurationMinutes))
	if result.Record != nil {
		fmt.Fprintf(globals.out(), ", %d CZK", result.Record.SalaryAmount)
	}
	if result.HadModifications {
		fmt.Fprint(globals.out(), ", document modified")
	}
	fmt.Fprintln(globals.out())
	return nil
}

type ActiveCmd struct {
	ServerFlag
}

func (a *ActiveCmd) Run(ctx context.Context, globals *Globals) error {
	conn, err := connect(globals, a.ServerFlag)
	if err != nil {
		return err
	}

	active, err := conn.client.ActiveSession(ctx)
	if err != nil {
		return conn.check(err)
	}
	printActive(globals, active)
	return nil
}

func printActive(globals *Globals, active *models.ActiveSession) {
	if active == nil {
		fmt.Fprintln(globals.out(), "No active work session.")
		return
	}

	modified := "no"
	if active.HadModifications {
		modified = "yes"
		if active.LastModification != nil {
			modified += " (last at " + active.LastModification.Local().Format("15:04:05") + ")"
		}
	}

	fmt.Fprintf(globals.out(), "Document:    %s (%s)\n", active.DocumentTitle, active.DocumentID)
	fmt.Fprintf(globals.out(), "Started:     %s\n", active.StartTime.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(globals.out(), "Elapsed:     %s\n", formatElapsed(active.ElapsedSeconds))
	fmt.Fprintf(globals.out(), "Modified:    %s\n", modified)
}
