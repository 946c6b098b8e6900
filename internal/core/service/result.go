package service

import (
	"math"
	"strconv"
)

// ResultKind selects the reply type of a Result.
type ResultKind uint8

const (
	// ResultStatus is a simple string reply such as OK.
	ResultStatus ResultKind = iota
	// ResultNil is a null bulk reply.
	ResultNil
	// ResultInteger is an integer reply.
	ResultInteger
	// ResultBulk is a bulk string reply.
	ResultBulk
	// ResultArray is an array of bulk strings. Nil items are null bulks.
	ResultArray
)

// Result is the outcome of executing a request, independent of the wire
// format.
type Result struct {
	Kind   ResultKind
	Status string
	Int    int64
	Bulk   []byte
	Items  [][]byte
}

// OK returns the +OK status result.
func OK() Result { return Result{Kind: ResultStatus, Status: "OK"} }

// Nil returns a null result.
func Nil() Result { return Result{Kind: ResultNil} }

// Integer returns an integer result.
func Integer(n int64) Result { return Result{Kind: ResultInteger, Int: n} }

// Bulk returns a bulk string result. A nil slice is sent as an empty string.
func Bulk(b []byte) Result {
	if b == nil {
		b = []byte{}
	}
	return Result{Kind: ResultBulk, Bulk: b}
}

// Array returns an array result.
func Array(items [][]byte) Result {
	if items == nil {
		items = [][]byte{}
	}
	return Result{Kind: ResultArray, Items: items}
}

func boolInt(b bool) Result {
	if b {
		return Integer(1)
	}
	return Integer(0)
}

// formatScore renders a score the way Redis does.
func formatScore(f float64) []byte {
	switch {
	case math.IsInf(f, 1):
		return []byte("inf")
	case math.IsInf(f, -1):
		return []byte("-inf")
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64)
}
