package ui

import (
	"errors"
	"strings"
	"testing"

	"ilwasm/internal/buildpipeline"
)

func TestApplyEventTracksFiles(t *testing.T) {
	m := NewProgressModel("build", []string{"a.irmp", "b.irmp"}, nil).(*progressModel)

	m.applyEvent(buildpipeline.Event{File: "a.irmp", Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusWorking})
	if got := m.items[0].status; got != "emitting" {
		t.Fatalf("status = %q, want emitting", got)
	}
	if p := m.percent(); p != 0.25 {
		t.Fatalf("percent = %v, want 0.25", p)
	}

	m.applyEvent(buildpipeline.Event{File: "a.irmp", Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusDone})
	m.applyEvent(buildpipeline.Event{
		File:   "b.irmp",
		Stage:  buildpipeline.StageEmit,
		Status: buildpipeline.StatusError,
		Err:    errors.New("undeclared label\nmore"),
	})
	m.applyEvent(buildpipeline.Event{File: "unknown.irmp", Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusDone})

	finished, failed := m.counts()
	if finished != 2 || failed != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", finished, failed)
	}
	if m.items[1].err != "undeclared label" {
		t.Fatalf("err = %q", m.items[1].err)
	}
	if p := m.percent(); p != 1 {
		t.Fatalf("percent = %v, want 1", p)
	}
}

func TestPipelineEventSetsHeaderStage(t *testing.T) {
	m := NewProgressModel("build", []string{"a.irmp"}, nil).(*progressModel)
	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusWorking})
	if m.stageLabel != "writing" {
		t.Fatalf("stage label = %q", m.stageLabel)
	}
	m.done = true
	view := m.View()
	if !strings.Contains(view, "done: build (writing) [0/1]") {
		t.Fatalf("unexpected header:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"a/very/long/path.irmp", 10, "a/very/..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
		{"日本語テキスト", 7, "日本..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
