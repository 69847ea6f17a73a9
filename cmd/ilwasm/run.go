package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ilwasm/internal/buildpipeline"
	"ilwasm/internal/driver"
	"ilwasm/internal/fixtures"
	"ilwasm/internal/ir"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [input]",
	Short: "Compile a program and execute its test directives",
	Long: `Compile one .irmp program and execute the directives its entry point
produced. The exit status is 1 when an assertion fails or a directive traps.
Without an input the [run] main entry of ilwasm.toml is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExecution,
}

func init() {
	runCmd.Flags().StringP("example", "e", "", "run a built-in example instead of a file")
	runCmd.Flags().String("stdout-dir", "", "directory for files the program writes (default: current directory)")
	runCmd.Flags().String("dir", "", "directory holding assert_heap_eq_file inputs (default: the input's directory)")
	runCmd.Flags().Int64("max-steps", 0, "evaluation step limit per directive (0 uses the default)")
}

func runExecution(cmd *cobra.Command, args []string) error {
	exampleName, err := cmd.Flags().GetString("example")
	if err != nil {
		return err
	}
	stdoutDir, err := cmd.Flags().GetString("stdout-dir")
	if err != nil {
		return err
	}
	fixtureDir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	maxSteps, err := cmd.Flags().GetInt64("max-steps")
	if err != nil {
		return err
	}
	if maxSteps < 0 {
		return fmt.Errorf("--max-steps must not be negative")
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	diagOut, err := readDiagOutput(cmd)
	if err != nil {
		return err
	}

	req := &buildpipeline.RunRequest{
		StdoutDir:      stdoutDir,
		Dir:            fixtureDir,
		MaxSteps:       maxSteps,
		MaxDiagnostics: maxDiagnostics,
		Timings:        showTimings,
	}
	switch {
	case exampleName != "":
		if len(args) > 0 {
			return fmt.Errorf("--example and an input file are mutually exclusive")
		}
		prog, err := lookupExample(exampleName)
		if err != nil {
			return err
		}
		req.Program = prog
	case len(args) == 1:
		req.Input = args[0]
	default:
		manifest, found, err := loadProjectManifest(".")
		if err != nil {
			return err
		}
		if !found || strings.TrimSpace(manifest.Config.Run.Main) == "" {
			return errors.New("no input given and no [run].main in " + manifestName)
		}
		req.Input = manifest.resolve(manifest.Config.Run.Main)
		if !cmd.Flags().Changed("stdout-dir") {
			req.StdoutDir = manifest.resolve(manifest.Config.Run.StdoutDir)
		}
	}
	if req.StdoutDir == "" {
		req.StdoutDir = "."
	}

	result, runErr := buildpipeline.Run(cmd.Context(), req)
	if result.Compile != nil {
		if err := printDiagnostics(cmd.ErrOrStderr(), []*driver.Result{result.Compile}, diagOut); err != nil {
			return err
		}
		if runErr != nil && result.Compile.Err == runErr {
			// already reported with the diagnostics
			return &exitError{code: 1}
		}
	}
	if runErr != nil {
		return runErr
	}

	report := result.Report
	fmt.Fprint(cmd.OutOrStdout(), report.Output)
	if showTimings {
		printStageTimings(cmd.ErrOrStderr(), result.Timings, result.Compile.Timing)
	}
	if !isQuiet(cmd) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d passed, %d failed, %d trapped\n", report.Passed, report.Failed, report.Traps)
		for _, path := range report.Written {
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
		}
	}
	if code := report.ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

func lookupExample(name string) (*ir.Program, error) {
	fx, ok := fixtures.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown example %q (available: %s)", name, strings.Join(fixtures.Names(), ", "))
	}
	return fx.Build(), nil
}
