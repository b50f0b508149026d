package feature

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Set tracks feature data keyed by the string representation of each feature. Insertion
// order is preserved so the resulting matrix columns are deterministic. All features share
// the same number of observations, m, where shorter data is zero padded.
type Set struct {
	m      int
	set    map[string][]float64
	labels []Feature
}

func NewSet() *Set {
	return &Set{
		set: make(map[string][]float64),
	}
}

// Len returns the number of features
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.labels)
}

// Rows returns the number of observations per feature
func (s *Set) Rows() int {
	if s == nil {
		return 0
	}
	return s.m
}

// Set stores the feature data overriding any data previously stored for the feature
func (s *Set) Set(f Feature, data []float64) *Set {
	if s.set == nil {
		s.set = make(map[string][]float64)
	}

	if len(data) > s.m {
		s.m = len(data)
		for label, existing := range s.set {
			s.set[label] = pad(existing, s.m)
		}
	}

	key := f.String()
	if _, exists := s.set[key]; !exists {
		s.labels = append(s.labels, f)
	}
	s.set[key] = pad(data, s.m)
	return s
}

func pad(data []float64, m int) []float64 {
	if len(data) >= m {
		return data
	}
	padded := make([]float64, m)
	copy(padded, data)
	return padded
}

// Get returns the feature data and whether it exists in the set
func (s *Set) Get(f Feature) ([]float64, bool) {
	if s == nil || s.set == nil {
		return nil, false
	}
	data, exists := s.set[f.String()]
	return data, exists
}

// Del removes the feature from the set
func (s *Set) Del(f Feature) *Set {
	key := f.String()
	if _, exists := s.set[key]; !exists {
		return s
	}
	delete(s.set, key)
	s.labels = slices.DeleteFunc(s.labels, func(label Feature) bool {
		return label.String() == key
	})
	if len(s.labels) == 0 {
		s.m = 0
		s.labels = nil
	}
	return s
}

// Update sets every feature of the next set onto this set
func (s *Set) Update(next *Set) *Set {
	if next == nil {
		return s
	}
	for _, label := range next.labels {
		s.Set(label, next.set[label.String()])
	}
	return s
}

// Labels returns the features in insertion order
func (s *Set) Labels() []Feature {
	if s == nil {
		return nil
	}
	labels := make([]Feature, len(s.labels))
	copy(labels, s.labels)
	return labels
}

// FeatureLabels returns the indexed labels matching the column order of Matrix
func (s *Set) FeatureLabels() *Labels {
	return NewLabels(s.Labels())
}

// RemoveZeroOnlyFeatures drops any feature whose observations are all zero. These carry no
// information for a fit.
func (s *Set) RemoveZeroOnlyFeatures() {
	for _, label := range s.Labels() {
		data := s.set[label.String()]
		if floats.Min(data) == 0 && floats.Max(data) == 0 {
			s.Del(label)
		}
	}
}

// Matrix returns a matrix representation of the Set to be used with matrix methods
// The matrix has m rows representing the number of observations and n columns representing
// the number of features with an optional constant column first.
func (s *Set) Matrix(intercept bool) *mat.Dense {
	if s == nil || len(s.labels) == 0 || s.m == 0 {
		return nil
	}

	n := len(s.labels)
	if intercept {
		n += 1
	}

	obs := make([]float64, s.m*n)
	featNum := 0
	if intercept {
		for i := 0; i < s.m; i++ {
			obs[n*i] = 1.0
		}
		featNum += 1
	}

	for _, label := range s.labels {
		data := s.set[label.String()]
		for i := 0; i < len(data); i++ {
			obs[n*i+featNum] = data[i]
		}
		featNum += 1
	}
	return mat.NewDense(s.m, n, obs)
}
