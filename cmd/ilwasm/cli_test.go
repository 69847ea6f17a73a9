package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--color", "off"}, args...))
	defer rootCmd.SetArgs(nil)
	err := rootCmd.ExecuteContext(context.Background())
	postRun(nil, nil)
	return stdout.String(), stderr.String(), err
}

func TestExampleBuildRun(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()

	stdout, _, err := execute(t, "example", "all", "-o", src)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "countup.irmp") {
		t.Fatalf("example output: %q", stdout)
	}

	stdout, stderr, err := execute(t, "build", "--ui", "off", "--no-cache", "-o", out, src)
	if err != nil {
		t.Fatalf("build: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "built 6 of 6 modules") {
		t.Fatalf("build summary: %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(out, "sieve.wast")); err != nil {
		t.Fatalf("sieve module missing: %v", err)
	}

	logs := t.TempDir()
	stdout, stderr, err = execute(t, "run", "--stdout-dir", logs, filepath.Join(src, "strcat.irmp"))
	if err != nil {
		t.Fatalf("run: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "(invoke") {
		t.Fatalf("run output: %q", stdout)
	}
	if !strings.Contains(stderr, "0 failed, 0 trapped") {
		t.Fatalf("run summary: %q", stderr)
	}
	data, err := os.ReadFile(filepath.Join(logs, "strcat.log"))
	if err != nil || string(data) != "hello, world!" {
		t.Fatalf("strcat.log = %q, %v", data, err)
	}
}

func TestRunMissingFileFails(t *testing.T) {
	_, _, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.irmp"))
	if err == nil {
		t.Fatal("expected an error")
	}
	var exit *exitError
	if errors.As(err, &exit) {
		t.Fatalf("a missing input is a plain error, got exit status %d", exit.code)
	}
}

func TestDumpExample(t *testing.T) {
	stdout, _, err := execute(t, "dump", "--example", "countup")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "countUp") {
		t.Fatalf("dump output missing function name:\n%s", stdout)
	}
}

func TestVersionJSON(t *testing.T) {
	stdout, _, err := execute(t, "version", "--format", "json", "--full")
	if err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout, err)
	}
	if payload.Tool != "ilwasm" || payload.Version == "" || payload.GitCommit == "" {
		t.Fatalf("payload = %+v", payload)
	}
}
