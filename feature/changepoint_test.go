package feature

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangepointString(t *testing.T) {
	feat := NewChangepoint("blargh", ChangepointCompSlope)
	expected := "chpnt_blargh_slope"
	assert.Equal(t, expected, feat.String())
}

func TestChangepointGet(t *testing.T) {
	feat := NewChangepoint("blargh", ChangepointCompSlope)

	testData := map[string]struct {
		label     string
		expVal    string
		expExists bool
	}{
		"unknown": {
			label: "unknown",
		},
		"capitalized": {
			label:     "NAME",
			expVal:    "blargh",
			expExists: true,
		},
		"exact match": {
			label:     "name",
			expVal:    "blargh",
			expExists: true,
		},
		"changepoint component": {
			label:     "changepoint_component",
			expVal:    "slope",
			expExists: true,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			val, exists := feat.Get(td.label)
			assert.Equal(t, td.expExists, exists, "exists")
			assert.Equal(t, td.expVal, val, "value")
		})
	}
}

func TestChangepointDecode(t *testing.T) {
	feat := NewChangepoint("blargh", ChangepointCompSlope)
	exp := map[string]string{
		"name":                  "blargh",
		"changepoint_component": "slope",
	}
	assert.Equal(t, exp, feat.Decode())
}

func TestChangepointUnmarshalJSON(t *testing.T) {
	feat := NewChangepoint("blargh", ChangepointCompSlope)
	out, err := json.Marshal(feat.Decode())
	require.NoError(t, err)

	var nextFeat Changepoint
	require.NoError(t, json.Unmarshal(out, &nextFeat))

	assert.Equal(t, feat, &nextFeat)
}

func TestChangepointGenerate(t *testing.T) {
	testData := map[string]struct {
		comp     ChangepointComp
		scaledT  []float64
		chpt     float64
		expected []float64
	}{
		"slope hinge": {
			comp:     ChangepointCompSlope,
			scaledT:  []float64{0, 0.25, 0.5, 0.75, 1.0, 1.25},
			chpt:     0.5,
			expected: []float64{0, 0, 0, 0.25, 0.5, 0.75},
		},
		"bias step": {
			comp:     ChangepointCompBias,
			scaledT:  []float64{0, 0.25, 0.5, 0.75},
			chpt:     0.5,
			expected: []float64{0, 0, 1, 1},
		},
		"empty": {
			comp:     ChangepointCompSlope,
			scaledT:  []float64{},
			chpt:     0.5,
			expected: []float64{},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := NewChangepoint("c", td.comp).Generate(td.scaledT, td.chpt)
			assert.InDeltaSlice(t, td.expected, res, 1e-12)
		})
	}
}
