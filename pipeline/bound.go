package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const DefaultFloorFraction = 0.05

var ErrUnknownFloorPolicy = errors.New("unknown floor policy")

// FloorPolicy decides the minimum admissible value of every estimate from the history. It is
// either a HardFloor or a SoftFloor.
type FloorPolicy interface {
	Floor(history []float64) float64
	String() string

	floorPolicy()
}

// HardFloor clips every estimate at zero
type HardFloor struct{}

func (HardFloor) Floor(history []float64) float64 {
	return 0
}

func (HardFloor) String() string {
	return "hard"
}

func (HardFloor) floorPolicy() {}

// SoftFloor clips every estimate at a fraction of the historical mean but never below zero
type SoftFloor struct {
	Fraction float64
}

// Floor returns Fraction times the running mean of history. The running mean stays finite for
// any finite history where a plain sum could overflow.
func (s SoftFloor) Floor(history []float64) float64 {
	var mean float64
	for i, v := range history {
		k := float64(i + 1)
		mean += v/k - mean/k
	}
	floor := s.Fraction * mean
	if math.IsNaN(floor) || math.IsInf(floor, 0) || floor < 0 {
		return 0
	}
	return floor
}

func (s SoftFloor) String() string {
	return fmt.Sprintf("soft(%.3f)", s.Fraction)
}

func (SoftFloor) floorPolicy() {}

// ParseFloorPolicy returns the floor policy by name. The fraction only applies to "soft".
func ParseFloorPolicy(name string, fraction float64) (FloorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hard":
		return HardFloor{}, nil
	case "soft", "":
		if fraction < 0 || math.IsNaN(fraction) {
			return nil, fmt.Errorf("soft floor fraction must be non-negative, got %v, %w", fraction, ErrUnknownFloorPolicy)
		}
		return SoftFloor{Fraction: fraction}, nil
	}
	return nil, fmt.Errorf("%q, %w", name, ErrUnknownFloorPolicy)
}

// Clip returns v raised to floor. Clipping an ordered lower, predicted, upper triple with the
// same floor keeps it ordered.
func Clip(v, floor float64) float64 {
	return math.Max(v, floor)
}
