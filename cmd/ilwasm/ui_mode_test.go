package main

import (
	"testing"

	"github.com/fatih/color"
)

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in      string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeAuto, false},
		{"auto", uiModeAuto, false},
		{" ON ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("readUIMode(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("readUIMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if !shouldUseTUI(uiModeOn, true) {
		t.Fatal("--ui=on must force the UI")
	}
	if shouldUseTUI(uiModeOff, false) {
		t.Fatal("--ui=off must disable the UI")
	}
	if shouldUseTUI(uiModeAuto, true) {
		t.Fatal("quiet auto mode must not start the UI")
	}
}

func TestApplyColorMode(t *testing.T) {
	prev := color.NoColor
	defer func() { color.NoColor = prev }()

	if err := applyColorMode("on"); err != nil || color.NoColor {
		t.Fatalf("on: err=%v NoColor=%v", err, color.NoColor)
	}
	if err := applyColorMode("off"); err != nil || !color.NoColor {
		t.Fatalf("off: err=%v NoColor=%v", err, color.NoColor)
	}
	if err := applyColorMode("purple"); err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}
