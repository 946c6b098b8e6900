package command

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestExec(t *testing.T) {
	addr := startServer(t, "")

	tests := []struct {
		name     string
		args     []string
		want     string
		wantCode int
	}{
		{"set", []string{"exec", "SET", "greeting", "hello world"}, "OK\n", 0},
		{"get", []string{"exec", "GET", "greeting"}, "\"hello world\"\n", 0},
		{"missing", []string{"exec", "GET", "nope"}, "(nil)\n", 0},
		{"integer", []string{"exec", "INCRBY", "n", "7"}, "(integer) 7\n", 0},
		{"error reply", []string{"exec", "INCR", "greeting"}, "(error) ERR value is not an integer or out of range\n", 1},
		{"alias", []string{"x", "PING"}, "PONG\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runApp(t, "", append([]string{"-s", addr}, tt.args...)...)
			if res.stdout != tt.want {
				t.Errorf("stdout = %q, want %q", res.stdout, tt.want)
			}
			if res.exitCode() != tt.wantCode {
				t.Errorf("exit code = %d (%v), want %d", res.exitCode(), res.err, tt.wantCode)
			}
		})
	}
}

func TestExec_JSON(t *testing.T) {
	addr := startServer(t, "")
	runApp(t, "", "-s", addr, "exec", "SADD", "s", "b", "a")

	res := runApp(t, "", "-s", addr, "-o", "json", "exec", "SMEMBERS", "s")
	if res.err != nil {
		t.Fatalf("Run() error = %v", res.err)
	}
	var members []string
	if err := json.Unmarshal([]byte(res.stdout), &members); err != nil {
		t.Fatalf("stdout %q is not a JSON list: %v", res.stdout, err)
	}
	if strings.Join(members, ",") != "a,b" {
		t.Errorf("members = %v, want [a b]", members)
	}

	res = runApp(t, "", "-s", addr, "-o", "json", "exec", "GET", "nope")
	if strings.TrimSpace(res.stdout) != "null" {
		t.Errorf("stdout = %q, want null", res.stdout)
	}
}

func TestExec_Auth(t *testing.T) {
	addr := startServer(t, "s3cret")

	res := runApp(t, "", "-s", addr, "exec", "GET", "k")
	if res.exitCode() != 1 || !strings.Contains(res.stdout, "NOAUTH") {
		t.Errorf("without password: stdout = %q, code = %d", res.stdout, res.exitCode())
	}

	res = runApp(t, "", "-s", addr, "-a", "s3cret", "exec", "GET", "k")
	if res.err != nil || res.stdout != "(nil)\n" {
		t.Errorf("with password: stdout = %q, err = %v", res.stdout, res.err)
	}

	res = runApp(t, "", "-s", addr, "-a", "wrong", "exec", "GET", "k")
	if res.err == nil || !strings.Contains(res.err.Error(), "auth") {
		t.Errorf("wrong password: err = %v", res.err)
	}
}

func TestExec_Errors(t *testing.T) {
	if res := runApp(t, "", "exec"); res.exitCode() != 2 {
		t.Errorf("missing command: exit code = %d, want 2", res.exitCode())
	}

	res := runApp(t, "", "-s", "127.0.0.1:1", "exec", "PING")
	if res.err == nil || !strings.Contains(res.err.Error(), "connect") {
		t.Errorf("unreachable server: err = %v", res.err)
	}
}

func TestReplyValue(t *testing.T) {
	addr := startServer(t, "")
	runApp(t, "", "-s", addr, "exec", "ZADD", "z", "1.5", "m")

	res := runApp(t, "", "-s", addr, "-o", "yaml", "exec", "ZRANGEBYSCORE", "z", "-inf", "+inf", "WITHSCORES")
	if res.stdout != "- m\n- \"1.5\"\n" {
		t.Errorf("stdout = %q", res.stdout)
	}

	res = runApp(t, "", "-s", addr, "-o", "json", "exec", "NOSUCH")
	if !strings.Contains(res.stdout, `"error"`) || res.exitCode() != 1 {
		t.Errorf("stdout = %q, code = %d", res.stdout, res.exitCode())
	}
}
