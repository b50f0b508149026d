package feature

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	GrowthIntercept = "intercept"
	GrowthLinear    = "linear"
)

type Growth struct {
	Name string `json:"name"`
}

func NewGrowth(name string) *Growth {
	return &Growth{name}
}

// String returns the string representation of the growth feature
func (g Growth) String() string {
	return fmt.Sprintf("growth_%s", g.Name)
}

// Get returns the value of an arbitrary label annd returns the value along with whether
// the label exists
func (g Growth) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return g.Name, true
	}
	return "", false
}

// Type returns the type of this feature
func (g Growth) Type() FeatureType {
	return FeatureTypeGrowth
}

// Decode converts the feature into a map of label values
func (g Growth) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = g.Name
	return res
}

// UnmarshalJSON is the custom unmarshalling to convert a map[string]string
// to a growth feature
func (g *Growth) UnmarshalJSON(data []byte) error {
	var labelStr struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &labelStr); err != nil {
		return err
	}
	g.Name = labelStr.Name
	return nil
}

// Generate produces the growth regressor for each epoch second. Linear growth is the
// position of each point within the training window scaled to [0, 1] so points after the
// window extend beyond 1. Returns nil for an empty training window or unknown growth.
func (g Growth) Generate(epoch []float64, trainStartTime, trainEndTime time.Time) []float64 {
	window := trainEndTime.Sub(trainStartTime).Seconds()
	if window <= 0 {
		return nil
	}

	res := make([]float64, len(epoch))
	switch g.Name {
	case GrowthIntercept:
		for i := range res {
			res[i] = 1.0
		}
	case GrowthLinear:
		start := float64(trainStartTime.Unix()) + float64(trainStartTime.Nanosecond())/1e9
		for i, e := range epoch {
			res[i] = (e - start) / window
		}
	default:
		return nil
	}
	return res
}

func Intercept() *Growth {
	return NewGrowth(GrowthIntercept)
}

func Linear() *Growth {
	return NewGrowth(GrowthLinear)
}
