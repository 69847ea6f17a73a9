package main

import (
	"fmt"
	"io"
	"time"

	"ilwasm/internal/buildpipeline"
	"ilwasm/internal/observ"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings, phases observ.Report) {
	if out == nil {
		return
	}
	stages := []struct {
		stage buildpipeline.Stage
		label string
	}{
		{buildpipeline.StageDecode, "decoded"},
		{buildpipeline.StageEmit, "compiled"},
		{buildpipeline.StageWrite, "wrote"},
		{buildpipeline.StageRun, "ran"},
	}
	for _, s := range stages {
		if timings.Has(s.stage) {
			fmt.Fprintf(out, "%s %.1f ms\n", s.label, toMillis(timings.Duration(s.stage)))
		}
	}
	if len(phases.Phases) > 0 {
		fmt.Fprint(out, phases.Summary())
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
