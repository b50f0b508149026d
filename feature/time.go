package feature

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Time struct {
	Name string `json:"name"`
}

func NewTime(name string) *Time {
	return &Time{name}
}

func (t Time) String() string {
	return fmt.Sprintf("tfeat_%s", t.Name)
}

func (t Time) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return t.Name, true
	}
	return "", false
}

func (t Time) Type() FeatureType {
	return FeatureTypeTime
}

func (t Time) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = t.Name
	return res
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var labelStr struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &labelStr); err != nil {
		return err
	}
	t.Name = labelStr.Name
	return nil
}

// Generate converts each time point into fractional epoch seconds
func (t Time) Generate(tSeries []time.Time) []float64 {
	res := make([]float64, len(tSeries))
	for i, tPnt := range tSeries {
		res[i] = float64(tPnt.Unix()) + float64(tPnt.Nanosecond())/1e9
	}
	return res
}
