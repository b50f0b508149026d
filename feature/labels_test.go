package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabels(t *testing.T) {
	features := []Feature{
		Intercept(),
		Linear(),
		NewChangepoint("auto_0", ChangepointCompSlope),
		NewSeasonality("weekly", FourierCompSin, 1),
		NewSeasonality("weekly", FourierCompCos, 1),
		NewEvent("christmas"),
	}
	l := NewLabels(features)
	assert.Equal(t, 6, l.Len())

	testData := map[string]struct {
		feature  Feature
		expected int
		exists   bool
	}{
		"intercept":   {feature: Intercept(), expected: 0, exists: true},
		"changepoint": {feature: NewChangepoint("auto_0", ChangepointCompSlope), expected: 2, exists: true},
		"weekly cos":  {feature: NewSeasonality("weekly", FourierCompCos, 1), expected: 4, exists: true},
		"missing":     {feature: NewEvent("new_year"), expected: -1},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			idx, exists := l.Index(td.feature)
			assert.Equal(t, td.exists, exists)
			assert.Equal(t, td.expected, idx)
		})
	}

	assert.Equal(t, []int{0, 1}, l.IndicesOf(FeatureTypeGrowth))
	assert.Equal(t, []int{3, 4}, l.IndicesOf(FeatureTypeSeasonality))
	assert.Equal(t, []int{5}, l.IndicesOf(FeatureTypeEvent))
	assert.Empty(t, l.IndicesOf(FeatureTypeTime))

	// callers cannot reorder the labels
	copied := l.Labels()
	copied[0] = NewEvent("other")
	assert.Equal(t, "growth_intercept", l.Labels()[0].String())
}
