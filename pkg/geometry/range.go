package geometry

import "cmp"

// Range is an inclusive [Min, Max] interval.
type Range[T cmp.Ordered] struct {
	Min T `koanf:"min" yaml:"min" json:"min"`
	Max T `koanf:"max" yaml:"max" json:"max"`
}

func (r Range[T]) Clamp(v T) T {
	return Clamp(v, r.Min, r.Max)
}

func (r Range[T]) Contains(v T) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp returns v limited to [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
