package command

import (
	"strings"
	"testing"

	"github.com/yndnr/yedis-go/internal/core/service"
)

func verify(t *testing.T, hash, password string) {
	t.Helper()
	auth, err := service.NewAuthService(hash)
	if err != nil {
		t.Fatalf("NewAuthService(%q) error = %v", hash, err)
	}
	if err := auth.Verify([]byte(password)); err != nil {
		t.Errorf("Verify(%q) error = %v", password, err)
	}
}

func TestHashPassword(t *testing.T) {
	res := runApp(t, "", "hash-password", "hunter2")
	if res.err != nil {
		t.Fatalf("Run() error = %v", res.err)
	}
	verify(t, strings.TrimSpace(res.stdout), "hunter2")
}

func TestHashPassword_Stdin(t *testing.T) {
	res := runApp(t, "from stdin\r\nignored\n", "hash-password", "-")
	if res.err != nil {
		t.Fatalf("Run() error = %v", res.err)
	}
	verify(t, strings.TrimSpace(res.stdout), "from stdin")

	res = runApp(t, "no newline", "hash-password", "-")
	if res.err != nil {
		t.Fatalf("Run() error = %v", res.err)
	}
	verify(t, strings.TrimSpace(res.stdout), "no newline")
}

func TestHashPassword_Errors(t *testing.T) {
	tests := []struct {
		input string
		args  []string
	}{
		{"", []string{"hash-password"}},
		{"", []string{"hash-password", "a", "b"}},
		{"\n", []string{"hash-password", "-"}},
	}
	for _, tt := range tests {
		if res := runApp(t, tt.input, tt.args...); res.exitCode() != 2 {
			t.Errorf("%v: exit code = %d (%v), want 2", tt.args, res.exitCode(), res.err)
		}
	}
}
