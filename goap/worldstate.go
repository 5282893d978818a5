// Package goap implements the GOAP planner: an A* search over
// discrete world states with explicit preconditions, effects, costs,
// and a priority-ranked goal set, grounded on original_source's
// ai/goap.rs.
package goap

import (
	"sort"
	"strconv"
)

// ValueKind tags which variant a StateValue holds. Equality between
// StateValues is structural and strict by variant: Bool(true) is
// never equal to Int(1).
type ValueKind int

const (
	KindBool ValueKind = iota
	KindInt
	KindFloat
	KindStr
)

// StateValue is a tagged-union value stored under a world-state key.
// Exactly one of the B/I/F/S fields is meaningful, selected by Kind.
type StateValue struct {
	Kind ValueKind
	B    bool
	I    int64
	F    float64
	S    string
}

// Bool constructs a Bool-variant StateValue.
func Bool(b bool) StateValue { return StateValue{Kind: KindBool, B: b} }

// Int constructs an Int-variant StateValue.
func Int(i int64) StateValue { return StateValue{Kind: KindInt, I: i} }

// Float constructs a Float-variant StateValue.
func Float(f float64) StateValue { return StateValue{Kind: KindFloat, F: f} }

// Str constructs a Str-variant StateValue.
func Str(s string) StateValue { return StateValue{Kind: KindStr, S: s} }

// Equal reports whether v and other hold the same variant and value.
func (v StateValue) Equal(other StateValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.B == other.B
	case KindInt:
		return v.I == other.I
	case KindFloat:
		return v.F == other.F
	case KindStr:
		return v.S == other.S
	default:
		return false
	}
}

// WorldState is a mapping from symbolic keys to tagged values.
type WorldState map[string]StateValue

// Clone returns an independent copy of s.
func (s WorldState) Clone() WorldState {
	out := make(WorldState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Satisfies reports whether s contains every key of desired with an
// equal value.
func (s WorldState) Satisfies(desired WorldState) bool {
	for k, v := range desired {
		sv, ok := s[k]
		if !ok || !sv.Equal(v) {
			return false
		}
	}
	return true
}

// unsatisfiedCount returns how many desired keys s does not satisfy;
// this is the planner's admissible heuristic (every unsatisfied key
// needs at least one action, each of nonnegative cost).
func unsatisfiedCount(s, desired WorldState) int {
	count := 0
	for k, v := range desired {
		sv, ok := s[k]
		if !ok || !sv.Equal(v) {
			count++
		}
	}
	return count
}

// canonicalSignature produces the A* closed-set key for s: sorted
// keys paired with a variant-tag byte and an exact-representation
// encoding of the value, joined by the ASCII unit separator (0x1f).
// Keys and Str values are written with their byte length in front, so
// a 0x1f inside them cannot shift field boundaries; two world states
// share a signature only when they hold the same keys, variants and
// value encodings — this replaces the lossy format!("{:?}", ...)
// stringification the original source used.
func canonicalSignature(s WorldState) string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	const sep = "\x1f"
	out := make([]byte, 0, len(keys)*16)
	for _, k := range keys {
		v := s[k]
		out = strconv.AppendInt(out, int64(len(k)), 10)
		out = append(out, sep...)
		out = append(out, k...)
		out = append(out, sep...)
		switch v.Kind {
		case KindBool:
			out = append(out, 'b')
			out = append(out, sep...)
			out = append(out, strconv.FormatBool(v.B)...)
		case KindInt:
			out = append(out, 'i')
			out = append(out, sep...)
			out = append(out, strconv.FormatInt(v.I, 10)...)
		case KindFloat:
			out = append(out, 'f')
			out = append(out, sep...)
			out = append(out, strconv.FormatFloat(v.F, 'b', -1, 64)...)
		case KindStr:
			out = append(out, 's')
			out = append(out, sep...)
			out = strconv.AppendInt(out, int64(len(v.S)), 10)
			out = append(out, sep...)
			out = append(out, v.S...)
		}
		out = append(out, sep...)
	}
	return string(out)
}
