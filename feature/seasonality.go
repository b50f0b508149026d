package feature

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FourierComp selects the sine or cosine half of a Fourier pair
type FourierComp string

const (
	FourierCompSin = "sin"
	FourierCompCos = "cos"
)

// Seasonality is one Fourier term of a named seasonal cycle such as weekly or yearly
type Seasonality struct {
	Name        string      `json:"name"`
	FourierComp FourierComp `json:"fourier_component"`
	Order       int         `json:"order"`
}

func NewSeasonality(name string, fcomp FourierComp, order int) *Seasonality {
	return &Seasonality{Name: name, FourierComp: fcomp, Order: order}
}

func (s Seasonality) String() string {
	return fmt.Sprintf("seas_%s_%d_%s", s.Name, s.Order, s.FourierComp)
}

func (s Seasonality) Get(label string) (string, bool) {
	val, exists := s.Decode()[strings.ToLower(label)]
	return val, exists
}

func (s Seasonality) Type() FeatureType {
	return FeatureTypeSeasonality
}

func (s Seasonality) Decode() map[string]string {
	return map[string]string{
		"name":              s.Name,
		"fourier_component": string(s.FourierComp),
		"order":             strconv.Itoa(s.Order),
	}
}

// UnmarshalJSON reads the label map produced by Decode where the order is a string
func (s *Seasonality) UnmarshalJSON(data []byte) error {
	var labels map[string]string
	if err := json.Unmarshal(data, &labels); err != nil {
		return err
	}
	order, err := strconv.Atoi(labels["order"])
	if err != nil {
		return fmt.Errorf("invalid seasonality order %q, %w", labels["order"], err)
	}
	*s = Seasonality{
		Name:        labels["name"],
		FourierComp: FourierComp(labels["fourier_component"]),
		Order:       order,
	}
	return nil
}

// Generate produces the Fourier term for each time point given the order and period. Time
// and period must share the same unit.
func (s Seasonality) Generate(t []float64, order int, period float64) []float64 {
	fn := math.Sin
	if s.FourierComp == FourierCompCos {
		fn = math.Cos
	}
	res := make([]float64, len(t))
	rad := 2.0 * math.Pi * float64(order) / period
	for i, tPnt := range t {
		res[i] = fn(rad * tPnt)
	}
	return res
}
