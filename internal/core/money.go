// Package core provides money parsing and rounding utilities.
//
// Amounts travel as float64 in JSON but every rounding and every sum goes
// through decimal arithmetic so that cents never drift.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RoundAmount rounds v to cents, half away from zero.
// Rounding an already rounded value returns it unchanged.
func RoundAmount(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ParseAmount converts user text into a rounded amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rejects signs, empty input, zero and anything that is not a plain number.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// Sum accumulates amounts exactly and returns a value rounded to cents.
type Sum struct {
	d decimal.Decimal
}

func (s *Sum) Add(v float64) {
	s.d = s.d.Add(decimal.NewFromFloat(v))
}

func (s *Sum) Sub(v float64) {
	s.d = s.d.Sub(decimal.NewFromFloat(v))
}

func (s Sum) Value() float64 {
	return s.d.Round(2).InexactFloat64()
}

func (s Sum) IsZero() bool {
	return s.d.IsZero()
}

// GreaterThan compares the exact sum against a cap.
func (s Sum) GreaterThan(limit float64) bool {
	return s.d.GreaterThan(decimal.NewFromFloat(limit))
}

// Percent returns part/total*100 rounded to the nearest integer, 0 when total is 0.
func Percent(part, total float64) int {
	if total == 0 {
		return 0
	}
	p := decimal.NewFromFloat(part).Div(decimal.NewFromFloat(total)).Mul(decimal.NewFromInt(100))
	return int(p.Round(0).IntPart())
}
