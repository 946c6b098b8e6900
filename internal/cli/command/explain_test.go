package command

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/yndnr/yedis-go/internal/core/translate"
)

func explain(t *testing.T, args ...string) *Explanation {
	t.Helper()
	cmd := make([][]byte, len(args))
	for i, a := range args {
		cmd[i] = []byte(a)
	}
	req, err := translate.New().Translate(cmd)
	if err != nil {
		t.Fatalf("Translate(%q) error = %v", args, err)
	}
	return Explain(strings.ToUpper(args[0]), req)
}

func TestExplain(t *testing.T) {
	tests := []struct {
		args    []string
		request string
		write   bool
		fields  map[string]any
	}{
		{
			args:    []string{"set", "k", "v", "PX", "1500", "NX"},
			request: "SetRequest",
			write:   true,
			fields: map[string]any{
				"Value":        "v",
				"TTL":          "1.5s",
				"Mode":         "insert",
				"ReplyInteger": false,
			},
		},
		{
			args:    []string{"hset", "h", "f", "v"},
			request: "HashSetRequest",
			write:   true,
			fields: map[string]any{
				"Fields":  []any{map[string]any{"Field": "f", "Value": "v"}},
				"ReplyOK": false,
			},
		},
		{
			args:    []string{"zrangebyscore", "z", "(1", "+inf", "WITHSCORES"},
			request: "RangeRequest",
			fields: map[string]any{
				"Type":       "zset",
				"Min":        "(1",
				"Max":        "+inf",
				"WithScores": true,
				"Last":       int64(0),
			},
		},
		{
			args:    []string{"tsrangebytime", "ts", "100", "-inf"},
			request: "RangeRequest",
			fields: map[string]any{
				"Type":       "timeseries",
				"Min":        "100",
				"Max":        "-inf",
				"WithScores": false,
				"Last":       int64(0),
			},
		},
		{
			args:    []string{"hmget", "h", "b", "a"},
			request: "CollectionGetRequest",
			fields: map[string]any{
				"Op":      "hmget",
				"SubKeys": []any{"b", "a"},
			},
		},
		{
			args:    []string{"zadd", "z", "CH", "2.5", "m"},
			request: "SortedSetAddRequest",
			write:   true,
			fields: map[string]any{
				"Members": []any{map[string]any{"Member": "m", "Score": "2.5"}},
				"Options": map[string]any{"CH": true, "Incr": false, "NX": false, "XX": false},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			got := explain(t, tt.args...)
			if got.Command != strings.ToUpper(tt.args[0]) || got.Key != tt.args[1] {
				t.Errorf("Command/Key = %q/%q", got.Command, got.Key)
			}
			if got.Request != tt.request || got.Write != tt.write {
				t.Errorf("Request/Write = %q/%v, want %q/%v", got.Request, got.Write, tt.request, tt.write)
			}
			if !reflect.DeepEqual(got.Fields, tt.fields) {
				t.Errorf("Fields = %#v\nwant %#v", got.Fields, tt.fields)
			}
		})
	}
}

func TestExplain_Table(t *testing.T) {
	table := explain(t, "get", "k").Table()
	want := [][]string{
		{"command", "GET"},
		{"request", "GetRequest"},
		{"key", `"k"`},
		{"write", "false"},
	}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("Rows = %q, want %q", table.Rows, want)
	}

	table = explain(t, "sadd", "s", "b", "a").Table()
	last := table.Rows[len(table.Rows)-1]
	if last[0] != "Members" || last[1] != `["a","b"]` {
		t.Errorf("last row = %q", last)
	}
}

func TestExplainCommand(t *testing.T) {
	res := runApp(t, "", "-o", "json", "explain", "SETEX", "k", "10", "v")
	if res.err != nil {
		t.Fatalf("Run() error = %v", res.err)
	}
	var got Explanation
	if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("stdout %q: %v", res.stdout, err)
	}
	if got.Request != "SetRequest" || got.Fields["TTL"] != "10s" {
		t.Errorf("explanation = %+v", got)
	}

	res = runApp(t, "", "explain", "GET", "k")
	if !strings.Contains(res.stdout, "GetRequest") || !strings.HasPrefix(res.stdout, "FIELD") {
		t.Errorf("table output = %q", res.stdout)
	}
}

func TestExplainCommand_Errors(t *testing.T) {
	tests := []struct {
		args []string
		code int
		want string
	}{
		{[]string{"explain"}, 2, "missing command"},
		{[]string{"explain", "FLUSHALL"}, 1, "unknown command"},
		{[]string{"explain", "GET"}, 1, "wrong number of arguments"},
		{[]string{"explain", "INCRBY", "k", "x"}, 1, "INCR_BY"},
	}
	for _, tt := range tests {
		res := runApp(t, "", tt.args...)
		if res.exitCode() != tt.code {
			t.Errorf("%v: exit code = %d, want %d", tt.args, res.exitCode(), tt.code)
		}
		if res.err == nil || !strings.Contains(strings.ToLower(res.err.Error()), strings.ToLower(tt.want)) {
			t.Errorf("%v: err = %v, want containing %q", tt.args, res.err, tt.want)
		}
	}
}
