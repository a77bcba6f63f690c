package container

import (
	"fmt"
	"math"
	"math/big"
)

type Rational struct {
	Num int64
	Den int64
}

func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// MicrosecondTimeBase is 1/1000000.
var MicrosecondTimeBase = Rational{Num: 1, Den: 1_000_000}

// Rescale converts ts from one time base to another, rounding half away
// from zero. It returns NoPTS for NoPTS, for a zero time base and when the
// result does not fit into int64.
func Rescale(ts int64, from, to Rational) int64 {
	if ts == NoPTS || from.Den == 0 || to.Num == 0 {
		return NoPTS
	}

	num := new(big.Int).SetInt64(ts)
	num.Mul(num, big.NewInt(from.Num))
	num.Mul(num, big.NewInt(to.Den))
	den := new(big.Int).Mul(big.NewInt(from.Den), big.NewInt(to.Num))

	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	r.Abs(r).Lsh(r, 1)
	if r.Cmp(new(big.Int).Abs(den)) >= 0 {
		if num.Sign()*den.Sign() < 0 {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}
	if !q.IsInt64() || q.Int64() == math.MinInt64 {
		return NoPTS
	}
	return q.Int64()
}

// RescaleToMicros converts a timestamp in timeBase units into microseconds.
func RescaleToMicros(ts int64, timeBase Rational) int64 {
	return Rescale(ts, timeBase, MicrosecondTimeBase)
}

// ToMillis truncates ts in timeBase units to milliseconds.
func ToMillis(ts int64, timeBase Rational) int64 {
	return int64(float64(ts) * timeBase.Float64() * 1000.0)
}
