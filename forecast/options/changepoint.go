package options

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-forecast-api/feature"
	"github.com/aouyang1/go-forecast-api/forecast/util"
)

const (
	DefaultAutoNumChangepoints = 25
	DefaultChangepointRange    = 0.8
)

// Changepoint describes a point in time where the ongoing trend is allowed to change slope.
type Changepoint struct {
	T    time.Time `json:"time"`
	Name string    `json:"name"`
}

func NewChangepoint(name string, t time.Time) Changepoint {
	return Changepoint{t, name}
}

// ChangepointOptions configures the changepoint fit to either use auto-detection
// by evenly placing up to N changepoints over the first Range fraction of the training
// points, or to use explicitly provided changepoints. Auto-detected changepoints rely on
// the changepoint prior to shrink the ones that are not needed.
type ChangepointOptions struct {
	Changepoints        []Changepoint `json:"changepoints"`
	Auto                bool          `json:"auto"`
	AutoNumChangepoints int           `json:"auto_num_changepoints"`
	Range               float64       `json:"range"`
}

func (c ChangepointOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	noCfg := " None"
	if len(c.Changepoints) > 0 {
		noCfg = ""
		if _, err := fmt.Fprintf(tbl, "%s%sName\tDatetime\t\n", prefix, util.IndentExpand(indent, indentGrowth+1)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%s%sChangepoints:%s\n", prefix, util.IndentExpand(indent, indentGrowth), noCfg); err != nil {
		return err
	}
	for _, chpt := range c.Changepoints {
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%s\t\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			chpt.Name, chpt.T.Format(time.DateOnly)); err != nil {
			return err
		}
	}
	return tbl.Flush()
}

// NewDefaultChangepointOptions generates a set of default changepoint options
func NewDefaultChangepointOptions() ChangepointOptions {
	return ChangepointOptions{
		Auto:                true,
		AutoNumChangepoints: DefaultAutoNumChangepoints,
		Range:               DefaultChangepointRange,
	}
}

// GenerateAutoChangepoints places changepoints on training points evenly spaced by index over
// the first Range fraction of the history. The first point is never a changepoint since the
// base growth already covers it. Replaces any existing changepoints.
func (c *ChangepointOptions) GenerateAutoChangepoints(t []time.Time) []Changepoint {
	if !c.Auto {
		return nil
	}

	if c.AutoNumChangepoints == 0 {
		c.AutoNumChangepoints = DefaultAutoNumChangepoints
	}
	if c.Range <= 0 || c.Range > 1 {
		c.Range = DefaultChangepointRange
	}

	histSize := int(math.Floor(float64(len(t)) * c.Range))
	n := min(c.AutoNumChangepoints, histSize-1)
	if n <= 0 {
		c.Changepoints = nil
		return nil
	}

	chpts := make([]Changepoint, 0, n)
	lastIdx := 0
	for i := 1; i <= n; i++ {
		idx := int(math.Round(float64(i) * float64(histSize-1) / float64(n)))
		if idx <= lastIdx {
			continue
		}
		lastIdx = idx
		chpts = append(
			chpts,
			NewChangepoint("auto_"+strconv.Itoa(len(chpts)), t[idx]),
		)
	}

	c.Changepoints = chpts
	return chpts
}

// GenerateFeatures builds a slope changepoint feature per changepoint using time scaled to the
// training window so the trend continues past the training end.
func (c ChangepointOptions) GenerateFeatures(t []time.Time, trainStartTime, trainEndTime time.Time) *feature.Set {
	feat := feature.NewSet()

	window := trainEndTime.Sub(trainStartTime).Seconds()
	if window <= 0 {
		return feat
	}
	scaledT := scaleTime(t, trainStartTime, window)

	for i, chpt := range c.Changepoints {
		// skip over changepoints outside of the training window since they'd have no
		// observations to fit with
		if chpt.T.Before(trainStartTime) || !chpt.T.Before(trainEndTime) {
			continue
		}
		chpntName := strconv.Itoa(i)
		if chpt.Name != "" {
			chpntName = chpt.Name
		}
		chpntSlope := feature.NewChangepoint(chpntName, feature.ChangepointCompSlope)
		scaledChpt := chpt.T.Sub(trainStartTime).Seconds() / window
		feat.Set(chpntSlope, chpntSlope.Generate(scaledT, scaledChpt))
	}
	return feat
}

func scaleTime(t []time.Time, start time.Time, window float64) []float64 {
	scaledT := make([]float64, len(t))
	for i, tPnt := range t {
		scaledT[i] = tPnt.Sub(start).Seconds() / window
	}
	return scaledT
}
