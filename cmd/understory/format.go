package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jward/understory"
)

var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case *understory.Item:
		if v == nil {
			fmt.Fprintln(w, "No symbol at position")
			return nil
		}
		formatItemsText(w, []understory.Item{*v})
	case []understory.IncomingCall:
		if len(v) == 0 {
			fmt.Fprintln(w, "No results")
			return nil
		}
		formatIncomingText(w, v)
	case []understory.OutgoingCall:
		if len(v) == 0 {
			fmt.Fprintln(w, "No results")
			return nil
		}
		formatOutgoingText(w, v)
	case nil:
		fmt.Fprintln(w, "No results")
	default:
		return fmt.Errorf("no text formatter for result type %T", v)
	}
	return nil
}

// formatItemsText formats call-hierarchy items as aligned columns.
func formatItemsText(w io.Writer, items []understory.Item) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tFILE\tRANGE")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Name, it.Kind, it.File, formatRange(it.Range))
	}
	tw.Flush()
}

// formatIncomingText formats incoming calls as aligned columns, one row per
// caller with its call sites joined.
func formatIncomingText(w io.Writer, calls []understory.IncomingCall) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FROM\tKIND\tFILE\tSITES")
	for _, c := range calls {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			c.From.Name, c.From.Kind, c.From.File, formatSites(c.FromRanges))
	}
	tw.Flush()
}

// formatOutgoingText formats outgoing calls as aligned columns, one row per
// callee with its call sites joined.
func formatOutgoingText(w io.Writer, calls []understory.OutgoingCall) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TO\tKIND\tFILE\tSITES")
	for _, c := range calls {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			c.To.Name, c.To.Kind, c.To.File, formatSites(c.FromRanges))
	}
	tw.Flush()
}

func formatRange(r understory.Range) string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Col, r.End.Line, r.End.Col)
}

func formatSites(ranges []understory.Range) string {
	sites := make([]string, len(ranges))
	for i, r := range ranges {
		sites[i] = fmt.Sprintf("%d:%d", r.Start.Line, r.Start.Col)
	}
	return strings.Join(sites, ", ")
}
