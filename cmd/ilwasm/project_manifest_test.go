package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, manifestName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProjectManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `# demo
[package]
name = "demo"

[build]
inputs = ["ir", "extra/one.irmp"]
out_dir = "out"
jobs = 3
cache = false

[run]
main = "ir/sieve.irmp"
stdout_dir = "logs"
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatal(err)
	}

	m, found, err := loadProjectManifest(nested)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("manifest not found from a nested directory")
	}
	if m.Config.Package.Name != "demo" || m.Config.Build.Jobs != 3 {
		t.Fatalf("unexpected config: %+v", m.Config)
	}
	if m.cacheEnabled() {
		t.Fatal("cache = false not honored")
	}
	inputs := m.buildInputs()
	if len(inputs) != 2 || inputs[0] != filepath.Join(root, "ir") || inputs[1] != filepath.Join(root, "extra", "one.irmp") {
		t.Fatalf("inputs = %v", inputs)
	}
	if got := m.resolve(m.Config.Run.StdoutDir); got != filepath.Join(root, "logs") {
		t.Fatalf("stdout_dir = %q", got)
	}
}

func TestLoadProjectManifestDefaults(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"demo\"\n")
	m, _, err := loadProjectManifest(root)
	if err != nil {
		t.Fatal(err)
	}
	if !m.cacheEnabled() {
		t.Fatal("cache should default to enabled")
	}
	if in := m.buildInputs(); len(in) != 1 || in[0] != root {
		t.Fatalf("inputs = %v, want the manifest root", in)
	}
}

func TestLoadProjectManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no package", "[build]\njobs = 1\n", "missing [package]"},
		{"no name", "[package]\n", "missing [package].name"},
		{"blank name", "[package]\nname = \" \"\n", "missing [package].name"},
		{"negative jobs", "[package]\nname = \"x\"\n[build]\njobs = -1\n", "must not be negative"},
		{"unknown key", "[package]\nname = \"x\"\nedition = 2\n", "unknown key package.edition"},
		{"bad toml", "[package\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.body)
			_, err := loadProjectConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestResolveBuildSettingsPrecedence(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"demo\"\n[build]\nout_dir = \"out\"\njobs = 2\n")
	m, _, err := loadProjectManifest(root)
	if err != nil {
		t.Fatal(err)
	}

	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{}
		cmd.Flags().StringP("out-dir", "o", "", "")
		cmd.Flags().IntP("jobs", "j", 0, "")
		cmd.Flags().Bool("no-cache", false, "")
		return cmd
	}

	s, err := resolveBuildSettings(newCmd(), nil, m)
	if err != nil {
		t.Fatal(err)
	}
	if s.outDir != filepath.Join(root, "out") || s.jobs != 2 || !s.cache || s.baseDir != root {
		t.Fatalf("manifest settings = %+v", s)
	}

	cmd := newCmd()
	if err := cmd.Flags().Parse([]string{"-o", "elsewhere", "-j", "5", "--no-cache"}); err != nil {
		t.Fatal(err)
	}
	s, err = resolveBuildSettings(cmd, []string{"x.irmp"}, m)
	if err != nil {
		t.Fatal(err)
	}
	if s.outDir != "elsewhere" || s.jobs != 5 || s.cache || len(s.inputs) != 1 {
		t.Fatalf("flag settings = %+v", s)
	}

	if _, err := resolveBuildSettings(newCmd(), nil, nil); err == nil {
		t.Fatal("expected an error without inputs or manifest")
	}
}
