package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateDays returns n consecutive calendar days starting at start
func GenerateDays(start time.Time, n int) []time.Time {
	t := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		t = append(t, start.AddDate(0, 0, i))
	}
	return t
}

// Series is a simulated value series built up by adding components
type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

// SetConst overwrites values in [start, end)
func (s Series) SetConst(t []time.Time, val float64, start, end time.Time) Series {
	n := len(s)
	for i := 0; i < n; i++ {
		if (t[i].After(start) || t[i].Equal(start)) && t[i].Before(end) {
			s[i] = val
		}
	}
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateLinearY returns a line with the given slope per day starting at 0 on the first time point
func GenerateLinearY(t []time.Time, slopePerDay float64) Series {
	y := make([]float64, len(t))
	if len(t) == 0 {
		return Series(y)
	}
	for i := 0; i < len(t); i++ {
		y[i] = slopePerDay * t[i].Sub(t[0]).Hours() / 24.0
	}
	return Series(y)
}

func GenerateWaveY(t []time.Time, amp, periodSec, order, timeOffset float64) Series {
	n := len(t)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		val := amp * math.Sin(2.0*math.Pi*order/periodSec*(float64(t[i].Unix())+timeOffset))
		y = append(y, val)
	}
	return Series(y)
}

// GenerateNoise returns gaussian noise scaled by noiseScale. A seeded source keeps simulated
// series reproducible across runs.
func GenerateNoise(t []time.Time, noiseScale float64, rng *rand.Rand) Series {
	n := len(t)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, rng.NormFloat64()*noiseScale)
	}
	return Series(y)
}

// GenerateChange returns a series that is zero before chpt and bias plus a daily slope after
func GenerateChange(t []time.Time, chpt time.Time, bias, slopePerDay float64) Series {
	n := len(t)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		if t[i].After(chpt) || t[i].Equal(chpt) {
			jump := bias + slopePerDay*t[i].Sub(chpt).Hours()/24.0
			y[i] = jump
		}
	}
	return Series(y)
}
