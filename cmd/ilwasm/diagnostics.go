package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ilwasm/internal/diagfmt"
	"ilwasm/internal/driver"
)

type diagOutput struct {
	format   string
	pathMode diagfmt.PathMode
}

func readDiagOutput(cmd *cobra.Command) (diagOutput, error) {
	flags := cmd.Root().PersistentFlags()
	format, err := flags.GetString("diagnostics-format")
	if err != nil {
		return diagOutput{}, fmt.Errorf("failed to get diagnostics-format flag: %w", err)
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "pretty" && format != "json" {
		return diagOutput{}, fmt.Errorf("unsupported diagnostics format %q (must be pretty or json)", format)
	}
	modeValue, err := flags.GetString("path-mode")
	if err != nil {
		return diagOutput{}, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	mode, ok := diagfmt.ParsePathMode(modeValue)
	if !ok {
		return diagOutput{}, fmt.Errorf("invalid --path-mode value %q", modeValue)
	}
	return diagOutput{format: format, pathMode: mode}, nil
}

// printDiagnostics writes the diagnostics of every result. Results that
// failed without a diagnostic get a plain error line.
func printDiagnostics(w io.Writer, results []*driver.Result, opts diagOutput) error {
	if opts.format == "json" {
		outputs := make([]diagfmt.DiagnosticsOutput, 0, len(results))
		for _, res := range results {
			out := diagfmt.BuildDiagnosticsOutput(res.Bag, res.Files, diagfmt.JSONOpts{
				IncludePositions: true,
				IncludeNotes:     true,
				PathMode:         opts.pathMode,
			})
			out.Input = res.Path
			outputs = append(outputs, out)
		}
		return diagfmt.JSONBatch(w, outputs)
	}
	for _, res := range results {
		if res.Bag.Len() > 0 {
			err := diagfmt.Pretty(w, res.Bag, res.Files, diagfmt.PrettyOpts{
				Color:     !color.NoColor,
				PathMode:  opts.pathMode,
				ShowNotes: true,
			})
			if err != nil {
				return err
			}
		}
		if res.Err != nil && !res.Bag.HasErrors() {
			fmt.Fprintf(w, "%s: %s %v\n", res.Path, color.New(color.FgRed, color.Bold).Sprint("error:"), res.Err)
		}
	}
	return nil
}
