package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/certwatch-app/cw-inspector/internal/version"
)

func TestPrintVersion(t *testing.T) {
	info := version.Info{
		Version:   "1.2.3",
		GitCommit: "abc123",
		BuildDate: "2026-01-01",
		GoVersion: "go1.24.0",
		OS:        "linux",
		Arch:      "amd64",
	}

	var text bytes.Buffer
	if err := printVersion(&text, info, false); err != nil {
		t.Fatalf("printVersion() error = %v", err)
	}
	for _, want := range []string{"cw-inspector 1.2.3", "abc123", "linux/amd64"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, text.String())
		}
	}

	var raw bytes.Buffer
	if err := printVersion(&raw, info, true); err != nil {
		t.Fatalf("printVersion() error = %v", err)
	}
	var got version.Info
	if err := json.Unmarshal(raw.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got != info {
		t.Errorf("json output = %+v, want %+v", got, info)
	}
	if !strings.Contains(raw.String(), `"git_commit": "abc123"`) {
		t.Errorf("json output missing git_commit key:\n%s", raw.String())
	}
}
