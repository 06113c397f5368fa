package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
)

// DocsCmd manages tracked documents.
type DocsCmd struct {
	List   DocsListCmd   `cmd:"" default:"1" help:"List tracked documents"`
	Add    DocsAddCmd    `cmd:"" help:"Track a spreadsheet by URL or ID"`
	Rm     DocsRmCmd     `cmd:"" help:"Stop tracking a document"`
	Status DocsStatusCmd `cmd:"" help:"Check a document for new modifications"`
}

type DocsListCmd struct {
	ServerFlag
}

func (d *DocsListCmd) Run(ctx context.Context, globals *Globals) error {
	conn, err := connect(globals, d.ServerFlag)
	if err != nil {
		return err
	}

	docs, err := conn.client.Documents(ctx)
	if err != nil {
		return conn.check(err)
	}

	if len(docs) == 0 {
		fmt.Fprintln(globals.out(), "No tracked documents.")
		fmt.Fprintln(globals.out(), "Add one with: sheetclock docs add <sheet-url>")
		return nil
	}

	w := tabwriter.NewWriter(globals.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLAST MODIFIED\tADDED BY")
	for _, doc := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			doc.ID,
			truncate(doc.Title, 40),
			doc.LastModified.Local().Format("2006-01-02 15:04:05"),
			doc.AddedBy,
		)
	}
	return w.Flush()
}

type DocsAddCmd struct {
	ServerFlag
	Sheet string `arg:"" help:"Spreadsheet URL or document ID"`
}

func (d *DocsAddCmd) Run(ctx context.Context, globals *Globals) error {
	conn, err := connect(globals, d.ServerFlag)
	if err != nil {
		return err
	}

	doc, err := conn.client.AddDocument(ctx, d.Sheet)
	if err != nil {
		return conn.check(err)
	}

	fmt.Fprintf(globals.out(), "Tracking %q (%s)\n", doc.Title, doc.ID)
	return nil
}

type DocsRmCmd struct {
	ServerFlag
	ID string `arg:"" help:"Document ID"`
}

func (d *DocsRmCmd) Run(ctx context.Context, globals *Globals) error {
	conn, err := connect(globals, d.ServerFlag)
	if err != nil {
		return err
	}

	if err := conn.client.RemoveDocument(ctx, d.ID); err != nil {
		return conn.check(err)
	}

	fmt.Fprintf(globals.out(), "Stopped tracking %s\n", d.ID)
	return nil
}

type DocsStatusCmd struct {
	ServerFlag
	ID string `arg:"" help:"Document ID"`
}

func (d *DocsStatusCmd) Run(ctx context.Context, globals *Globals) error {
	conn, err := connect(globals, d.ServerFlag)
	if err != nil {
		return err
	}

	status, err := conn.client.DocumentStatus(ctx, d.ID)
	if err != nil {
		return conn.check(err)
	}

	changed := "no"
	if status.HasChanges {
		changed = "yes"
	}
	fmt.Fprintf(globals.out(), "Modified since last check: %s\n", changed)
	fmt.Fprintf(globals.out(), "Last modified:             %s\n", status.LastModified.Local().Format("2006-01-02 15:04:05"))
	return nil
}
