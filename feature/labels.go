package feature

// Labels is the ordered list of features of a fitted model. Position i of the list is the
// feature of coefficient i.
type Labels struct {
	features []Feature
	pos      map[string]int
	byType   map[FeatureType][]int
}

func NewLabels(features []Feature) *Labels {
	l := &Labels{
		features: features,
		pos:      make(map[string]int, len(features)),
		byType:   make(map[FeatureType][]int),
	}
	for i, f := range features {
		l.pos[f.String()] = i
		l.byType[f.Type()] = append(l.byType[f.Type()], i)
	}
	return l
}

func (l *Labels) Len() int {
	return len(l.features)
}

// Labels returns a copy of the ordered features
func (l *Labels) Labels() []Feature {
	return append([]Feature(nil), l.features...)
}

// Index returns the coefficient position of the feature
func (l *Labels) Index(f Feature) (int, bool) {
	i, ok := l.pos[f.String()]
	if !ok {
		return -1, false
	}
	return i, true
}

// IndicesOf returns the coefficient positions of every feature of the given type in order
func (l *Labels) IndicesOf(ft FeatureType) []int {
	return append([]int(nil), l.byType[ft]...)
}
