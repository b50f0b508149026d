package feature

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Event feature representing a span of time that we expect to deviate from the usual trend
// and seasonality, e.g. a holiday.
type Event struct {
	Name string `json:"name"`
}

// NewEvent creates a new event instance given a name
func NewEvent(name string) *Event {
	return &Event{name}
}

// String returns the string representation of the event feature
func (e Event) String() string {
	return fmt.Sprintf("event_%s", e.Name)
}

// Get returns the value of an arbitrary label annd returns the value along with whether
// the label exists
func (e Event) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return e.Name, true
	}
	return "", false
}

// Type returns the type of this feature
func (e Event) Type() FeatureType {
	return FeatureTypeEvent
}

// Decode converts the feature into a map of label values
func (e Event) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = e.Name
	return res
}

// UnmarshalJSON is the custom unmarshalling to convert a map[string]string
// to a event feature
func (e *Event) UnmarshalJSON(data []byte) error {
	var labelStr struct {
		Name string `json:"name"`
	}
	err := json.Unmarshal(data, &labelStr)
	if err != nil {
		return err
	}
	e.Name = labelStr.Name
	return nil
}

// Generate produces a mask of 1 for every time point within [start, end) and 0 elsewhere
func (e Event) Generate(t []time.Time, start, end time.Time) []float64 {
	res := make([]float64, len(t))
	for i, tPnt := range t {
		if (tPnt.After(start) || tPnt.Equal(start)) && tPnt.Before(end) {
			res[i] = 1.0
		}
	}
	return res
}
