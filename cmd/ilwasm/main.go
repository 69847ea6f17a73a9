// Package main implements the ilwasm CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ilwasm/internal/prof"
	"ilwasm/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ilwasm",
	Short: "Compile typed IR programs to WebAssembly text",
	Long: `ilwasm lowers typed IR documents (.irmp) to WebAssembly S-expression
modules and can execute the test directives those modules carry.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: preRun,
	PersistentPostRun: postRun,
}

var (
	traceCleanup func()
	profSession  *prof.Session
)

// exitError carries a process exit status without an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics per program")
	flags.String("diagnostics-format", "pretty", "diagnostics format (pretty|json)")
	flags.String("path-mode", "relative", "how paths are shown (auto|absolute|relative|basename)")
	flags.String("trace", "", "write trace events to a file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	flags.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval")
	flags.String("cpuprofile", "", "write a CPU profile to this file")
	flags.String("memprofile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")
}

func main() {
	rootCmd.Version = version.Plain()
	os.Exit(run())
}

func run() int {
	// post-run hooks are skipped when a command fails
	defer postRun(nil, nil)
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
	dumpTraceRing(os.Stderr)
	return 1
}

func preRun(cmd *cobra.Command, _ []string) error {
	colorValue, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	if err := applyColorMode(colorValue); err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	traceCleanup = cleanup

	cfg, err := readProfConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Enabled() {
		if profSession, err = prof.Start(cfg); err != nil {
			return err
		}
	}
	return nil
}

func readProfConfig(cmd *cobra.Command) (prof.Config, error) {
	flags := cmd.Root().PersistentFlags()
	var cfg prof.Config
	var err error
	if cfg.CPU, err = flags.GetString("cpuprofile"); err != nil {
		return cfg, err
	}
	if cfg.Mem, err = flags.GetString("memprofile"); err != nil {
		return cfg, err
	}
	if cfg.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func postRun(*cobra.Command, []string) {
	if profSession != nil {
		if err := profSession.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "profile: %v\n", err)
		}
		profSession = nil
	}
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}
}

// applyColorMode sets the process-wide color switch used by fatih/color.
func applyColorMode(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		color.NoColor = !isTerminal(os.Stdout) || os.Getenv("NO_COLOR") != ""
	case "on", "always":
		color.NoColor = false
	case "off", "never":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
	return nil
}

func isQuiet(cmd *cobra.Command) bool {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && quiet
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
