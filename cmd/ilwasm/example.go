package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ilwasm/internal/driver"
	"ilwasm/internal/fixtures"
	"ilwasm/internal/ir"
)

var exampleCmd = &cobra.Command{
	Use:   "example [flags] <name|all>",
	Short: "Write built-in example programs as .irmp files",
	Args: func(cmd *cobra.Command, args []string) error {
		list, _ := cmd.Flags().GetBool("list")
		if list {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: exampleExecution,
}

func init() {
	exampleCmd.Flags().StringP("out-dir", "o", ".", "directory for the written programs")
	exampleCmd.Flags().BoolP("list", "l", false, "list the available examples")
}

func exampleExecution(cmd *cobra.Command, args []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if list {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, fx := range fixtures.All() {
			fmt.Fprintf(tw, "%s\t%s\n", fx.Name, fx.Summary)
		}
		return tw.Flush()
	}
	outDir, err := cmd.Flags().GetString("out-dir")
	if err != nil {
		return err
	}

	var selected []fixtures.Fixture
	if strings.EqualFold(args[0], "all") {
		selected = fixtures.All()
	} else {
		fx, ok := fixtures.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown example %q (available: %s)", args[0], strings.Join(fixtures.Names(), ", "))
		}
		selected = []fixtures.Fixture{fx}
	}

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	for _, fx := range selected {
		path, err := writeExample(outDir, fx)
		if err != nil {
			return err
		}
		if !isQuiet(cmd) {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		}
	}
	return nil
}

func writeExample(dir string, fx fixtures.Fixture) (string, error) {
	data, err := ir.Marshal(fx.Build())
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", fx.Name, err)
	}
	path := filepath.Join(dir, strings.ToLower(fx.Name)+driver.InputExt)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
