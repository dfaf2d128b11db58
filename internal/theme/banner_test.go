package theme

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	if !strings.Contains(buf.String(), "signed posts") {
		t.Fatalf("unexpected banner: %q", buf.String())
	}
}

func TestVersionLine(t *testing.T) {
	if got := VersionLine("0.3.0", ""); got != "tw v0.3.0" {
		t.Fatalf("got %q", got)
	}
	if got := VersionLine("0.3.0", "abc123"); got != "tw v0.3.0 (revision abc123)" {
		t.Fatalf("got %q", got)
	}
}
