package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Formats accepted by Print
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	bold   = color.New(color.Bold)
)

// Print renders rep to w in the given format
func Print(w io.Writer, rep *Report, format string) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return printText(w, rep)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatCSV:
		return printCSV(w, rep)
	default:
		return fmt.Errorf("unknown format %q (want text, json or csv)", format)
	}
}

func printText(w io.Writer, rep *Report) error {
	c := rep.Counts

	bold.Fprintf(w, "\n=== Restore Summary ===\n")
	fmt.Fprintf(w, "Root: %s\n", rep.Config.Root)
	if rep.Config.Started != "" {
		fmt.Fprintf(w, "Started: %s\n", rep.Config.Started)
	}
	fmt.Fprintf(w, "Total files: %d\n", c.Total)
	green.Fprintf(w, "Succeeded: %d\n", c.Succeeded)
	fmt.Fprintf(w, "Unchanged: %d\n", c.Unchanged)
	yellow.Fprintf(w, "Skipped: %d\n", c.Skipped)
	if c.Failed > 0 {
		red.Fprintf(w, "Failed: %d\n", c.Failed)
	} else {
		fmt.Fprintf(w, "Failed: 0\n")
	}

	skips := map[string]int{}
	var order []string
	for _, e := range rep.Results {
		if e.Status != "skipped" {
			continue
		}
		if skips[e.Reason] == 0 {
			order = append(order, e.Reason)
		}
		skips[e.Reason]++
	}
	if len(order) > 0 {
		fmt.Fprintf(w, "\nSkipped by reason:\n")
		for _, reason := range order {
			fmt.Fprintf(w, "  %s: %d\n", reason, skips[reason])
		}
	}

	failures := rep.Failures()
	if len(failures) > 0 {
		red.Fprintf(w, "\nFailures:\n")
		for _, e := range failures {
			fmt.Fprintf(w, "  %s\n    %s\n", e.Path, e.Reason)
		}
	}
	return nil
}

func printCSV(w io.Writer, rep *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"path", "sidecar", "kind", "status", "reason", "duration_ms"}); err != nil {
		return err
	}
	for _, e := range rep.Results {
		row := []string{e.Path, e.Sidecar, e.Kind, e.Status, e.Reason, strconv.FormatInt(e.DurationMS, 10)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
