package domain

import "strconv"

// Infinity marks an unbounded end of a range.
type Infinity int8

const (
	InfinityNone     Infinity = 0
	InfinityPositive Infinity = 1
	InfinityNegative Infinity = -1
)

// Bound is one end of a range. When Infinity is set the value fields are
// ignored. Int carries timestamps and indices, Score carries sorted set
// scores.
type Bound struct {
	Infinity  Infinity
	Exclusive bool
	Int       int64
	Score     float64
}

// NegInf and PosInf are the unbounded ends.
var (
	NegInf = Bound{Infinity: InfinityNegative}
	PosInf = Bound{Infinity: InfinityPositive}
)

// IntBound returns an inclusive integer bound.
func IntBound(v int64) Bound { return Bound{Int: v} }

// ScoreBound returns an inclusive score bound.
func ScoreBound(v float64) Bound { return Bound{Score: v} }

// AboveLowerInt reports whether v lies on the inner side of b used as a
// lower bound.
func (b Bound) AboveLowerInt(v int64) bool {
	switch b.Infinity {
	case InfinityNegative:
		return true
	case InfinityPositive:
		return false
	}
	if b.Exclusive {
		return v > b.Int
	}
	return v >= b.Int
}

// BelowUpperInt reports whether v lies on the inner side of b used as an
// upper bound.
func (b Bound) BelowUpperInt(v int64) bool {
	switch b.Infinity {
	case InfinityPositive:
		return true
	case InfinityNegative:
		return false
	}
	if b.Exclusive {
		return v < b.Int
	}
	return v <= b.Int
}

// AboveLowerScore is AboveLowerInt for scores.
func (b Bound) AboveLowerScore(v float64) bool {
	switch b.Infinity {
	case InfinityNegative:
		return true
	case InfinityPositive:
		return false
	}
	if b.Exclusive {
		return v > b.Score
	}
	return v >= b.Score
}

// BelowUpperScore is BelowUpperInt for scores.
func (b Bound) BelowUpperScore(v float64) bool {
	switch b.Infinity {
	case InfinityPositive:
		return true
	case InfinityNegative:
		return false
	}
	if b.Exclusive {
		return v < b.Score
	}
	return v <= b.Score
}

// FormatInt renders b in command syntax with the integer value.
func (b Bound) FormatInt() string {
	return b.format(strconv.FormatInt(b.Int, 10))
}

// FormatScore renders b in command syntax with the score value.
func (b Bound) FormatScore() string {
	return b.format(strconv.FormatFloat(b.Score, 'g', -1, 64))
}

func (b Bound) format(v string) string {
	switch b.Infinity {
	case InfinityPositive:
		return "+inf"
	case InfinityNegative:
		return "-inf"
	}
	if b.Exclusive {
		return "(" + v
	}
	return v
}
