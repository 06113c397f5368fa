package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/wolfeidau/sheetclock/internal/client"
)

// RangeFlags limit history to a date range. Admins may also pick an employee.
type RangeFlags struct {
	From  string `help:"Start date (YYYY-MM-DD)"`
	To    string `help:"End date (YYYY-MM-DD), inclusive"`
	Email string `help:"Employee email (admins only)"`
}

func (r RangeFlags) query() client.HistoryQuery {
	return client.HistoryQuery{Email: r.Email, StartDate: r.From, EndDate: r.To}
}

func (r RangeFlags) describe() string {
	from, to := r.From, r.To
	if from == "" {
		from = "beginning"
	}
	if to == "" {
		to = "now"
	}
	return from + " to " + to
}

type HistoryCmd struct {
	ServerFlag
	RangeFlags
}

func (h *HistoryCmd) Run(ctx context.Context, globals *Globals) error {
	conn, err := connect(globals, h.ServerFlag)
	if err != nil {
		return err
	}

	recs, err := conn.client.History(ctx, h.query())
	if err != nil {
		return conn.check(err)
	}

	fmt.Fprintf(globals.out(), "Work history (%s):\n", h.describe())

	if len(recs) == 0 {
		fmt.Fprintln(globals.out(), "No work sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(globals.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tEMPLOYEE\tDOCUMENT\tDURATION\tMODIFIED\tCZK")
	for _, rec := range recs {
		modified := ""
		if rec.HadModifications {
			modified = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			rec.StartTime.Local().Format("2006-01-02 15:04"),
			truncate(rec.EmployeeName, 20),
			truncate(rec.DocumentTitle, 30),
			formatMinutes(rec.DurationMinutes),
			modified,
			rec.SalaryAmount,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "\nTotal sessions: %d\n", len(recs))
	return nil
}

type SummaryCmd struct {
	ServerFlag
	RangeFlags
}

func (s *SummaryCmd) Run(ctx context.Context, globals *Globals) error {
	conn, err := connect(globals, s.ServerFlag)
	if err != nil {
		return err
	}

	sum, err := conn.client.Summary(ctx, s.query())
	if err != nil {
		return conn.check(err)
	}

	out := globals.out()
	fmt.Fprintf(out, "Summary (%s):\n", s.describe())
	fmt.Fprintf(out, "Sessions:             %d\n", sum.TotalSessions)
	fmt.Fprintf(out, "With modifications:   %d\n", sum.SessionsWithModifications)
	fmt.Fprintf(out, "Total time:           %s\n", formatMinutes(sum.TotalDurationMinutes))
	fmt.Fprintf(out, "Total salary:         %d CZK\n", sum.TotalSalary)
	if sum.AvgDurationMinutes != nil {
		fmt.Fprintf(out, "Average duration:     %s\n", formatMinutes(*sum.AvgDurationMinutes))
	}
	if sum.AvgSalary != nil {
		fmt.Fprintf(out, "Average salary:       %d CZK\n", *sum.AvgSalary)
	}
	return nil
}
