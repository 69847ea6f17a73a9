package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ilwasm/internal/buildpipeline"
	"ilwasm/internal/driver"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [inputs...]",
	Short: "Compile IR documents to .wast modules",
	Long: `Compile .irmp files (or directories containing them) to WebAssembly text.
Without inputs the [build] section of ilwasm.toml is used.`,
	RunE: buildExecution,
}

func init() {
	buildCmd.Flags().StringP("out-dir", "o", "", "directory for the emitted modules (default: next to each input)")
	buildCmd.Flags().IntP("jobs", "j", 0, "parallel compilations (default: GOMAXPROCS)")
	buildCmd.Flags().Bool("no-cache", false, "do not read or write the module cache")
	buildCmd.Flags().Bool("clear-cache", false, "drop every cached module before building")
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

type buildSettings struct {
	inputs  []string
	baseDir string
	outDir  string
	jobs    int
	cache   bool
}

func resolveBuildSettings(cmd *cobra.Command, args []string, manifest *projectManifest) (buildSettings, error) {
	var s buildSettings
	if len(args) > 0 {
		s.inputs = args
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}
		s.baseDir = cwd
	} else {
		if manifest == nil {
			return s, errors.New(noManifestMessage)
		}
		s.inputs = manifest.buildInputs()
		s.baseDir = manifest.Root
	}
	s.cache = manifest.cacheEnabled()
	if manifest != nil {
		s.outDir = manifest.resolve(manifest.Config.Build.OutDir)
		s.jobs = manifest.Config.Build.Jobs
	}

	flags := cmd.Flags()
	if flags.Changed("out-dir") {
		outDir, err := flags.GetString("out-dir")
		if err != nil {
			return s, err
		}
		s.outDir = outDir
	}
	if flags.Changed("jobs") {
		jobs, err := flags.GetInt("jobs")
		if err != nil {
			return s, err
		}
		if jobs < 0 {
			return s, fmt.Errorf("--jobs must not be negative")
		}
		s.jobs = jobs
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return s, err
	}
	if noCache {
		s.cache = false
	}
	return s, nil
}

func buildExecution(cmd *cobra.Command, args []string) error {
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	diagOut, err := readDiagOutput(cmd)
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return err
	}
	quiet := isQuiet(cmd)

	var manifest *projectManifest
	if len(args) == 0 {
		manifest, _, err = loadProjectManifest(".")
		if err != nil {
			return err
		}
	}
	settings, err := resolveBuildSettings(cmd, args, manifest)
	if err != nil {
		return err
	}

	req := &buildpipeline.BuildRequest{
		Inputs:         settings.inputs,
		BaseDir:        settings.baseDir,
		OutDir:         settings.outDir,
		Jobs:           settings.jobs,
		MaxDiagnostics: maxDiagnostics,
		Timings:        showTimings,
	}
	if settings.cache {
		cache, cacheErr := driver.OpenDiskCache("ilwasm")
		if cacheErr != nil {
			if !quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: module cache disabled: %v\n", cacheErr)
			}
		} else {
			if clearCache {
				if err := cache.DropAll(); err != nil {
					return fmt.Errorf("failed to clear cache: %w", err)
				}
			}
			req.Cache = cache
		}
	}

	var result buildpipeline.BuildResult
	var buildErr error
	if shouldUseTUI(uiModeValue, quiet) {
		files, listErr := buildpipeline.ProgressFiles(settings.inputs, settings.baseDir)
		if listErr != nil {
			return listErr
		}
		title := "build"
		if manifest != nil {
			title = "build " + manifest.Config.Package.Name
		}
		result, buildErr = runBuildWithUI(cmd.Context(), title, files, req)
	} else {
		result, buildErr = buildpipeline.Build(cmd.Context(), req)
	}

	results := make([]*driver.Result, 0, len(result.Artifacts))
	for _, art := range result.Artifacts {
		if art.Result != nil {
			results = append(results, art.Result)
		}
	}
	if err := printDiagnostics(cmd.ErrOrStderr(), results, diagOut); err != nil {
		return err
	}
	if showTimings {
		printStageTimings(cmd.ErrOrStderr(), result.Timings, result.Phases)
	}
	if !quiet && len(result.Artifacts) > 0 {
		printBuildSummary(cmd, result, settings.baseDir)
	}
	if buildErr != nil {
		if errors.Is(buildErr, buildpipeline.ErrBuildFailed) {
			return &exitError{code: 1}
		}
		return buildErr
	}
	return nil
}

func printBuildSummary(cmd *cobra.Command, result buildpipeline.BuildResult, baseDir string) {
	out := cmd.OutOrStdout()
	cached := 0
	for _, art := range result.Artifacts {
		if art.Output == "" {
			continue
		}
		if art.Result.Cached {
			cached++
		}
		fmt.Fprintf(out, "wrote %s\n", relTo(baseDir, art.Output))
	}
	built := len(result.Artifacts) - result.Failed
	fmt.Fprintf(out, "built %d of %d modules", built, len(result.Artifacts))
	if cached > 0 {
		fmt.Fprintf(out, " (%d from cache)", cached)
	}
	fmt.Fprintln(out)
}

func relTo(base, path string) string {
	if base == "" {
		return path
	}
	if rel, err := filepath.Rel(base, path); err == nil && !filepath.IsAbs(rel) && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}
