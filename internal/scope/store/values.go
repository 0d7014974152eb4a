package store

import (
	"fmt"
	"reflect"
	"time"
)

// Value comparison for the in-memory engine. Numbers compare across int
// and float representations (JSON decoding hands us float64, callers may
// pass int), everything else compares within its own type.

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	switch at := a.(type) {
	case string:
		bt, ok := b.(string)
		return ok && at == bt
	case bool:
		bt, ok := b.(bool)
		return ok && at == bt
	case time.Time:
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// compareValues orders two field values for sorting. Missing/nil values
// sort first, then values group by type class (bool, number, time,
// string, other) so mixed-type collections still produce a total order.
func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case rankNil:
		return 0
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case bb:
			return -1
		default:
			return 1
		}
	case rankNumber:
		af, _ := toFloat(a)
		bf, _ := toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case rankTime:
		at, bt := a.(time.Time), b.(time.Time)
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		default:
			return 0
		}
	case rankString:
		as, bs := a.(string), b.(string)
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	default:
		// No natural order; fall back to the printed form.
		as, bs := fmt.Sprint(a), fmt.Sprint(b)
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankTime
	rankString
	rankOther
)

func typeRank(v any) int {
	if v == nil {
		return rankNil
	}
	if _, ok := toFloat(v); ok {
		return rankNumber
	}
	switch v.(type) {
	case bool:
		return rankBool
	case time.Time:
		return rankTime
	case string:
		return rankString
	default:
		return rankOther
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
