package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestVersionDefault(t *testing.T) {
	if Plain() == "" {
		t.Fatal("Version should have a default value")
	}
}

func TestColoredWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	orig := Version
	defer func() { Version = orig }()

	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3", "1.2.3"},
		{" 0.1.0-dev ", "0.1.0-dev"},
		{"2.0.0+abc", "2.0.0+abc"},
		{"nightly", "nightly"},
	}
	for _, tt := range tests {
		Version = tt.in
		if got := Colored(); got != tt.want {
			t.Errorf("Colored(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOverride(t *testing.T) {
	origCommit, origDate := GitCommit, BuildDate
	defer func() { GitCommit, BuildDate = origCommit, origDate }()

	GitCommit = "abc123def456"
	BuildDate = "2024-01-15T10:30:00Z"
	if GitCommit != "abc123def456" || BuildDate != "2024-01-15T10:30:00Z" {
		t.Fatalf("override failed: %q %q", GitCommit, BuildDate)
	}
}
