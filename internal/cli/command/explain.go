package command

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/yedis-go/internal/cli/output"
	"github.com/yndnr/yedis-go/internal/core/domain"
	"github.com/yndnr/yedis-go/internal/core/translate"
)

// ExplainCommand returns the explain command.
func ExplainCommand() *cli.Command {
	return &cli.Command{
		Name:      "explain",
		Usage:     "Show the storage request a command translates to, without a server",
		ArgsUsage: "COMMAND [ARG...]",
		Action:    explainAction,
	}
}

// Explanation describes the request built for a command.
type Explanation struct {
	Command string         `json:"command" yaml:"command"`
	Request string         `json:"request" yaml:"request"`
	Key     string         `json:"key" yaml:"key"`
	Write   bool           `json:"write" yaml:"write"`
	Fields  map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

func explainAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("explain: missing command", 2)
	}

	args := make([][]byte, c.NArg())
	for i, a := range c.Args().Slice() {
		args[i] = []byte(a)
	}
	req, err := translate.New().Translate(args)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	exp := Explain(strings.ToUpper(c.Args().First()), req)
	f := formatter(c)
	if isTable(f) {
		return f.Format(c.App.Writer, exp.Table())
	}
	return f.Format(c.App.Writer, exp)
}

// Explain describes req, built for the command name.
func Explain(name string, req domain.Request) *Explanation {
	exp := &Explanation{
		Command: name,
		Key:     req.DocKey(),
		Write:   req.IsWrite(),
		Fields:  make(map[string]any),
	}

	v := reflect.ValueOf(req).Elem()
	exp.Request = v.Type().Name()

	scores := false
	if r, ok := req.(*domain.RangeRequest); ok && r.Type == domain.TypeSortedSet {
		scores = true
	}
	for i := 0; i < v.NumField(); i++ {
		field := v.Type().Field(i)
		if field.Name == "Key" {
			continue
		}
		exp.Fields[field.Name] = describe(v.Field(i), scores)
	}
	return exp
}

// Table renders the explanation as FIELD/VALUE rows, request fields last
// in name order.
func (e *Explanation) Table() *output.Table {
	t := &output.Table{}
	t.SetHeaders("FIELD", "VALUE")
	t.AddRow("command", e.Command)
	t.AddRow("request", e.Request)
	t.AddRow("key", strconv.Quote(e.Key))
	t.AddRow("write", strconv.FormatBool(e.Write))

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		t.AddRow(name, cell(e.Fields[name]))
	}
	return t
}

func cell(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	boundType    = reflect.TypeOf(domain.Bound{})
)

// describe converts a request field into plain values. Byte slices become
// strings, bounds use command syntax.
func describe(v reflect.Value, scores bool) any {
	switch v.Type() {
	case durationType:
		return time.Duration(v.Int()).String()
	case boundType:
		b := v.Interface().(domain.Bound)
		if scores {
			return b.FormatScore()
		}
		return b.FormatInt()
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}

	switch v.Kind() {
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return string(v.Bytes())
		}
		out := make([]any, v.Len())
		for i := range out {
			out[i] = describe(v.Index(i), scores)
		}
		return out
	case reflect.Struct:
		out := make(map[string]any, v.NumField())
		for i := 0; i < v.NumField(); i++ {
			out[v.Type().Field(i).Name] = describe(v.Field(i), scores)
		}
		return out
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.String:
		return v.String()
	default:
		return v.Interface()
	}
}
