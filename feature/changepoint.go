package feature

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ChangepointComp string

const (
	ChangepointCompBias  = "bias"
	ChangepointCompSlope = "slope"
)

// Changepoint feature representing a point in time where the trend may change. The component
// is either a bias (jump) or a slope (trend) change.
type Changepoint struct {
	Name            string          `json:"name"`
	ChangepointComp ChangepointComp `json:"changepoint_component"`
}

func NewChangepoint(name string, comp ChangepointComp) *Changepoint {
	return &Changepoint{name, comp}
}

func (c Changepoint) String() string {
	return fmt.Sprintf("chpnt_%s_%s", c.Name, c.ChangepointComp)
}

func (c Changepoint) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return c.Name, true
	case "changepoint_component":
		return string(c.ChangepointComp), true
	}
	return "", false
}

func (c Changepoint) Type() FeatureType {
	return FeatureTypeChangepoint
}

func (c Changepoint) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = c.Name
	res["changepoint_component"] = string(c.ChangepointComp)
	return res
}

func (c *Changepoint) UnmarshalJSON(data []byte) error {
	var labelStr struct {
		Name            string          `json:"name"`
		ChangepointComp ChangepointComp `json:"changepoint_component"`
	}
	if err := json.Unmarshal(data, &labelStr); err != nil {
		return err
	}
	c.Name = labelStr.Name
	c.ChangepointComp = labelStr.ChangepointComp
	return nil
}

// Generate produces the changepoint regressor given the scaled time of each point and the
// scaled time of the changepoint. Bias is a step of 1 from the changepoint on, slope is the
// hinge max(0, t - chpt).
func (c Changepoint) Generate(scaledT []float64, chpt float64) []float64 {
	res := make([]float64, len(scaledT))
	for i, t := range scaledT {
		if t < chpt {
			continue
		}
		switch c.ChangepointComp {
		case ChangepointCompBias:
			res[i] = 1.0
		default:
			res[i] = t - chpt
		}
	}
	return res
}
