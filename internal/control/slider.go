package control

import (
	"github.com/chewxy/math32"
)

// LogSlider steps a value geometrically between Min and Max. Zero is allowed
// as the lowest stop when Min is zero; stepping up from zero lands on Floor.
type LogSlider struct {
	Min, Max float32
	Floor    float32
	// StepsPerDecade sets the step ratio: 10^(1/StepsPerDecade).
	StepsPerDecade int
}

func (s LogSlider) ratio() float32 {
	return math32.Pow(10, 1/float32(s.StepsPerDecade))
}

// Step moves v by n steps (negative moves down) and clamps the result.
func (s LogSlider) Step(v float32, n int) float32 {
	r := s.ratio()
	for ; n > 0; n-- {
		if v < s.Floor {
			v = s.Floor
			continue
		}
		v *= r
	}
	for ; n < 0; n++ {
		if v <= s.Floor {
			v = s.Min
			break
		}
		v /= r
		if v < s.Floor {
			v = s.Floor
		}
	}
	if v == s.Floor || v == s.Min {
		return v
	}
	return clamp(snap(v), s.Min, s.Max)
}

// Position maps v onto [0,1] along the slider's log scale.
func (s LogSlider) Position(v float32) float32 {
	if v <= s.Floor {
		return 0
	}
	lo, hi := math32.Log10(s.Floor), math32.Log10(s.Max)
	return clamp((math32.Log10(v)-lo)/(hi-lo), 0, 1)
}

// LinearSlider steps a value by a fixed increment between Min and Max.
type LinearSlider struct {
	Min, Max, Step float32
}

// Move moves v by n increments and clamps the result.
func (s LinearSlider) Move(v float32, n int) float32 {
	v += float32(n) * s.Step
	// Keep repeated steps on the grid.
	v = math32.Round(v/s.Step) * s.Step
	return clamp(v, s.Min, s.Max)
}

// snap rounds v to four significant digits so repeated steps stay readable.
func snap(v float32) float32 {
	if v <= 0 {
		return v
	}
	mag := math32.Pow(10, math32.Floor(math32.Log10(v))-3)
	return math32.Round(v/mag) * mag
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Slider ranges used by the panel.
var (
	MaxErrorSlider = LogSlider{Min: 0, Max: 1, Floor: 1e-4, StepsPerDecade: 4}
	CountSlider    = LogSlider{Min: 1, Max: 100000, Floor: 1, StepsPerDecade: 8}
	MultiplierStep = LinearSlider{Min: 0, Max: 1, Step: 0.05}
)
