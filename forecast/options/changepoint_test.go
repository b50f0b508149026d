package options

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"github.com/aouyang1/go-forecast-api/feature"
	"github.com/aouyang1/go-forecast-api/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateChangepointFeatures(t *testing.T) {
	start := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	tSeries := timedataset.GenerateDays(start, 5)
	end := tSeries[len(tSeries)-1]

	testData := map[string]struct {
		opt      *ChangepointOptions
		expected *feature.Set
	}{
		"no changepoints": {
			opt:      new(ChangepointOptions),
			expected: feature.NewSet(),
		},
		"changepoint at training end": {
			opt: &ChangepointOptions{
				Changepoints: []Changepoint{NewChangepoint("chpt1", end)},
			},
			expected: feature.NewSet(),
		},
		"changepoint before training start": {
			opt: &ChangepointOptions{
				Changepoints: []Changepoint{NewChangepoint("chpt1", start.Add(-time.Hour))},
			},
			expected: feature.NewSet(),
		},
		"valid single changepoint": {
			opt: &ChangepointOptions{
				Changepoints: []Changepoint{NewChangepoint("chpt1", tSeries[2])},
			},
			expected: feature.NewSet().Set(
				feature.NewChangepoint("chpt1", feature.ChangepointCompSlope),
				[]float64{0, 0, 0, 0.25, 0.5},
			),
		},
		"unnamed changepoint uses index": {
			opt: &ChangepointOptions{
				Changepoints: []Changepoint{{T: tSeries[1]}},
			},
			expected: feature.NewSet().Set(
				feature.NewChangepoint("0", feature.ChangepointCompSlope),
				[]float64{0, 0, 0.25, 0.5, 0.75},
			),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := td.opt.GenerateFeatures(tSeries, start, end)
			assert.Equal(t, td.expected.Len(), res.Len())
			for _, label := range td.expected.Labels() {
				expected, _ := td.expected.Get(label)
				actual, exists := res.Get(label)
				require.True(t, exists, label.String())
				assert.InDeltaSlice(t, expected, actual, 1e-9)
			}
		})
	}
}

func TestGenerateChangepointFeaturesFuture(t *testing.T) {
	start := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 4)
	opt := ChangepointOptions{
		Changepoints: []Changepoint{NewChangepoint("c", start.AddDate(0, 0, 2))},
	}

	// the hinge keeps growing past the training end
	future := timedataset.GenerateDays(end, 3)
	res := opt.GenerateFeatures(future, start, end)
	data, exists := res.Get(feature.NewChangepoint("c", feature.ChangepointCompSlope))
	require.True(t, exists)
	assert.InDeltaSlice(t, []float64{0.5, 0.75, 1.0}, data, 1e-9)
}

func TestGenerateAutoChangepoints(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	testData := map[string]struct {
		opt          ChangepointOptions
		n            int
		expectedIdxs []int
	}{
		"not auto": {
			opt: ChangepointOptions{},
			n:   100,
		},
		"too few points": {
			opt: NewDefaultChangepointOptions(),
			n:   1,
		},
		"short history": {
			opt:          NewDefaultChangepointOptions(),
			n:            10,
			expectedIdxs: []int{1, 2, 3, 4, 5, 6, 7},
		},
		"capped at max": {
			opt:          ChangepointOptions{Auto: true, AutoNumChangepoints: 4, Range: 0.8},
			n:            101,
			expectedIdxs: []int{20, 40, 59, 79},
		},
		"zero values use defaults": {
			opt:          ChangepointOptions{Auto: true},
			n:            20,
			expectedIdxs: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			tSeries := timedataset.GenerateDays(start, td.n)
			res := td.opt.GenerateAutoChangepoints(tSeries)
			require.Len(t, res, len(td.expectedIdxs))
			for i, idx := range td.expectedIdxs {
				assert.Equal(t, tSeries[idx], res[i].T)
				assert.Equal(t, "auto_"+strconv.Itoa(i), res[i].Name)
			}
			if td.opt.Auto {
				assert.Equal(t, res, td.opt.Changepoints)
			}
		})
	}
}

func TestChangepointTablePrint(t *testing.T) {
	testData := map[string]struct {
		opt      ChangepointOptions
		expected string
	}{
		"no changepoints": {
			expected: "Changepoints: None\n",
		},
		"single changepoint": {
			opt: ChangepointOptions{
				Changepoints: []Changepoint{
					NewChangepoint("c0", time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC)),
				},
			},
			expected: `Changepoints:
   Name   Datetime
     c0 1970-01-02
`,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, td.opt.TablePrint(&buf, "", "  ", 0))
			assert.Equal(t, td.expected, buf.String())
		})
	}
}
