package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/saint-community/querybuilder/internal/history"
	"github.com/saint-community/querybuilder/internal/models"
	"github.com/saint-community/querybuilder/internal/store"
)

func printFields(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLABEL\tTYPE\tOPERATORS")
	for _, f := range models.Fields {
		ops := make([]string, 0, len(f.Operators()))
		for _, op := range f.Operators() {
			ops = append(ops, string(op))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, f.Label, f.Type, strings.Join(ops, ","))
	}
	return tw.Flush()
}

func printMemberTable(w io.Writer, result store.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCHURCH\tFELLOWSHIP\tCELL\tEVANGELISM\tJOINED")
	for _, m := range result.Members {
		joined := ""
		if !m.DateJoinedChurch.IsZero() {
			joined = m.DateJoinedChurch.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			m.ID, m.FullName, m.ChurchID, m.FellowshipID, m.CellID, m.EvangelismCount, joined)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(result.Members) == 0 {
		_, err := fmt.Fprintf(w, "\nNo members (%d total)\n", result.Total)
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d-%d of %d members\n",
		result.Offset+1, result.Offset+len(result.Members), result.Total)
	return err
}

func printHistory(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No search history")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EXECUTED\tSOURCE\tROWS\tDURATION\tSTATUS\tWHERE")
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "error: " + e.ErrorMessage
		}
		where := e.Where
		if where == "" {
			where = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			e.ExecutedAt.Local().Format("2006-01-02 15:04:05"),
			e.Source, e.Rows, e.Duration.Round(time.Millisecond), status, where)
	}
	return tw.Flush()
}
