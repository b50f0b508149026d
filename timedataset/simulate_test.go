package timedataset

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDays(t *testing.T) {
	start := time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC)
	res := GenerateDays(start, 4)
	assert.Equal(t, []time.Time{
		time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}, res)
}

func TestSeries(t *testing.T) {
	numPnts := 7
	s := GenerateConstY(numPnts, 1)

	res := s.Add(GenerateConstY(numPnts, 2))
	require.Equal(t, Series([]float64{3, 3, 3, 3, 3, 3, 3}), res)

	tSeries := GenerateDays(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), numPnts)
	s.SetConst(tSeries, 2.0,
		time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	)
	assert.Equal(t, Series([]float64{3, 3, 2, 2, 3, 3, 3}), s)
}

func TestGenerateLinearY(t *testing.T) {
	tSeries := GenerateDays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 4)
	assert.InDeltaSlice(t, []float64{0, 2, 4, 6}, GenerateLinearY(tSeries, 2.0), 1e-9)
	assert.Empty(t, GenerateLinearY(nil, 2.0))
}

func TestGenerateChange(t *testing.T) {
	tSeries := GenerateDays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 5)
	res := GenerateChange(tSeries, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), 1.0, 0.5)
	assert.InDeltaSlice(t, []float64{0, 0, 1, 1.5, 2}, res, 1e-9)
}

func TestGenerateNoiseReproducible(t *testing.T) {
	tSeries := GenerateDays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10)
	a := GenerateNoise(tSeries, 1.0, rand.New(rand.NewPCG(1, 2)))
	b := GenerateNoise(tSeries, 1.0, rand.New(rand.NewPCG(1, 2)))
	assert.Equal(t, a, b)
	assert.Len(t, a, 10)
}
