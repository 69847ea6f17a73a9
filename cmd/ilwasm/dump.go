package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ilwasm/internal/backend/sexpr"
	"ilwasm/internal/diag"
	"ilwasm/internal/ir"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <input>",
	Short: "Print the IR tree of a program",
	Args:  cobra.MaximumNArgs(1),
	RunE:  dumpExecution,
}

func init() {
	dumpCmd.Flags().StringP("example", "e", "", "dump a built-in example instead of a file")
	dumpCmd.Flags().Bool("module", false, "print the emitted module text instead of the IR")
}

func dumpExecution(cmd *cobra.Command, args []string) error {
	exampleName, err := cmd.Flags().GetString("example")
	if err != nil {
		return err
	}
	asModule, err := cmd.Flags().GetBool("module")
	if err != nil {
		return err
	}

	var prog *ir.Program
	switch {
	case exampleName != "" && len(args) > 0:
		return fmt.Errorf("--example and an input file are mutually exclusive")
	case exampleName != "":
		if prog, err = lookupExample(exampleName); err != nil {
			return err
		}
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if prog, err = ir.Unmarshal(data); err != nil {
			return err
		}
	default:
		return fmt.Errorf("dump needs an input file or --example")
	}

	if !asModule {
		return ir.Dump(cmd.OutOrStdout(), prog)
	}
	out, err := sexpr.EmitModule(cmd.Context(), prog, sexpr.Options{Reporter: diag.NopReporter{}})
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out.Text)
	return err
}
