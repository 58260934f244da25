package controls

import "github.com/zoobzio/bond"

// ProgressIndicator is a determinate progress bar over [Min, Max].
type ProgressIndicator struct {
	value float64
	min   float64
	max   float64
}

// NewProgressIndicator creates an indicator over [0, 100] at zero.
func NewProgressIndicator() *ProgressIndicator {
	return &ProgressIndicator{max: 100}
}

func (p *ProgressIndicator) Value() float64 { return p.value }
func (p *ProgressIndicator) Min() float64   { return p.min }
func (p *ProgressIndicator) Max() float64   { return p.max }

// SetValue sets the current progress, clamped to the indicator's range.
func (p *ProgressIndicator) SetValue(v float64) {
	p.value = min(max(v, p.min), p.max)
}

// SetRange replaces the range and re-clamps the current value. A range with
// lo above hi is swapped.
func (p *ProgressIndicator) SetRange(lo, hi float64) {
	if lo > hi {
		lo, hi = hi, lo
	}
	p.min, p.max = lo, hi
	p.SetValue(p.value)
}

// Fraction returns progress as a value in [0, 1].
func (p *ProgressIndicator) Fraction() float64 {
	if p.max == p.min {
		return 0
	}
	return (p.value - p.min) / (p.max - p.min)
}

// Bond returns the indicator's designated progress sink.
func (p *ProgressIndicator) Bond() *bond.Bond[float64] {
	return bond.Sink(sinks, p, TagProgress, (*ProgressIndicator).SetValue)
}

// Dispose drops the indicator's cached sink.
func (p *ProgressIndicator) Dispose() {
	bond.Release(sinks, p)
}
