package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/webconv/internal/config"
)

func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"output", "o", config.DefaultConfigFile},
		{"force", "f", "false"},
		{"print", "", "false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

// runInit executes the init command with args and returns its output.
func runInit(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewInitCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".webconv")

		out, err := runInit(t, "-o", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, path) {
			t.Errorf("expected output to mention %s, got %q", path, out)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		for _, want := range []string{"defaults:", "sites:", "ignorePatterns", "followPatterns", "js:"} {
			if !strings.Contains(string(content), want) {
				t.Errorf("expected config to contain %q", want)
			}
		}

		cf, err := config.LoadConfigFile(path)
		if err != nil {
			t.Fatalf("expected template to parse, got %v", err)
		}
		if len(cf.Sites) != 0 {
			t.Errorf("expected no active sites, got %d", len(cf.Sites))
		}
	})

	t.Run("keeps an existing file without force", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".webconv")
		if err := os.WriteFile(path, []byte("existing"), 0o600); err != nil {
			t.Fatal(err)
		}

		_, err := runInit(t, "-o", path)
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected 'already exists' error, got %v", err)
		}
		if content, _ := os.ReadFile(path); string(content) != "existing" {
			t.Errorf("expected file to be untouched, got %q", content)
		}
	})

	t.Run("overwrites with force", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".webconv")
		if err := os.WriteFile(path, []byte("existing"), 0o600); err != nil {
			t.Fatal(err)
		}

		if _, err := runInit(t, "-o", path, "-f"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(content, configTemplate) {
			t.Error("expected file to contain the template")
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

		if _, err := runInit(t, "-o", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected config file to be created: %v", err)
		}
	})

	t.Run("print writes the template to stdout", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".webconv")

		out, err := runInit(t, "--print", "-o", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != string(configTemplate) {
			t.Error("expected the template on stdout")
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("expected no file to be written")
		}
	})
}
