package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadBuildInfo(t *testing.T) {
	t.Parallel()

	info := readBuildInfo()
	if info.Version == "" {
		t.Error("expected a version, got empty string")
	}
	if info.Commit == "" || len(info.Commit) > 7 {
		t.Errorf("expected a short commit, got %q", info.Commit)
	}
	if info.Date == "" {
		t.Error("expected a date, got empty string")
	}
	if getVersion() != info.Version {
		t.Errorf("expected getVersion to return %q, got %q", info.Version, getVersion())
	}
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "webconv version ") {
		t.Errorf("expected version line, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "commit:") || !strings.Contains(lines[2], "built:") {
		t.Errorf("expected commit and build lines, got %q", buf.String())
	}
}
