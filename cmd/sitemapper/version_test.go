package main

import (
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := executeCmd(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(stdout, "sitemapper version ") {
		t.Errorf("unexpected output: %q", stdout)
	}
	for _, want := range []string{"commit:", "built:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output does not contain %q: %q", want, stdout)
		}
	}
}

func TestGetVersion(t *testing.T) {
	t.Parallel()

	if getVersion() == "" {
		t.Error("expected non-empty version")
	}
}
