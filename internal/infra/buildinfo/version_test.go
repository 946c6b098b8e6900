package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	tests := []struct {
		name  string
		value string
	}{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"BuildTime", info.BuildTime},
		{"GoVersion", info.GoVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				t.Errorf("%s field should not be empty", tt.name)
			}
		})
	}

	if Get() != info {
		t.Error("Get() should be stable across calls")
	}
}

func TestResolve(t *testing.T) {
	i := resolve("v1.2.3", "abc123", "2026-01-01", "unknown")
	if i.Version != "v1.2.3" || i.Commit != "abc123" || i.BuildTime != "2026-01-01" {
		t.Errorf("resolve() overwrote ldflags values: %+v", i)
	}
	if i.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", i.GoVersion, runtime.Version())
	}

	i = resolve("v1", "c", "t", "go1.0")
	if i.GoVersion != "go1.0" {
		t.Errorf("GoVersion = %q, want injected value", i.GoVersion)
	}
}

func TestShortRevision(t *testing.T) {
	if got := shortRevision("0123456789abcdef0123"); got != "0123456789ab" {
		t.Errorf("shortRevision() = %q", got)
	}
	if got := shortRevision("abc"); got != "abc" {
		t.Errorf("shortRevision() = %q", got)
	}
}

func TestString(t *testing.T) {
	s := String()
	info := Get()
	if !strings.HasPrefix(s, info.Version+" ("+info.Commit) {
		t.Errorf("String() = %q, want version and commit first", s)
	}
	if !strings.Contains(s, "built at "+info.BuildTime) {
		t.Errorf("String() = %q, missing build time", s)
	}
}
