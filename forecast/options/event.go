package options

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-forecast-api/feature"
	"github.com/aouyang1/go-forecast-api/forecast/util"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

var (
	ErrStartAfterEnd  = errors.New("event start time is after end time")
	ErrUnsetTime      = errors.New("unset event start or end time")
	ErrNoEventName    = errors.New("no event name")
	ErrUnknownHoliday = errors.New("unknown holiday")
)

// holidays are the US holidays that can be modelled by name
var holidays = map[string]*cal.Holiday{
	"new_year":         us.NewYear,
	"memorial_day":     us.MemorialDay,
	"independence_day": us.IndependenceDay,
	"labor_day":        us.LaborDay,
	"thanksgiving":     us.ThanksgivingDay,
	"christmas":        us.ChristmasDay,
}

// Event represents a time span to model separately from trend and seasonality. Events
// sharing a name share a single coefficient.
type Event struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewEvent(name string, start, end time.Time) Event {
	return Event{
		Name:  name,
		Start: start,
		End:   end,
	}
}

func (e *Event) Valid() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrUnsetTime
	}
	if e.Start.After(e.End) {
		return ErrStartAfterEnd
	}
	if e.Name == "" {
		return ErrNoEventName
	}
	return nil
}

// Holiday returns an event per observed occurrence of the holiday between start and end. Each
// event covers the observed calendar day in the location of start, widened by durBefore and
// durAfter, and is named after the holiday and year.
func Holiday(hol *cal.Holiday, start, end time.Time, durBefore, durAfter time.Duration) []Event {
	loc := start.Location()
	prefix := strings.ReplaceAll(hol.Name, " ", "_") + "_"

	events := []Event{}
	for year := start.Year(); year <= end.Year(); year++ {
		_, observed := hol.Calc(year)
		y, m, d := observed.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		if day.Before(start) || day.After(end) {
			continue
		}
		events = append(events, Event{
			Name:  prefix + strconv.Itoa(year),
			Start: day.Add(-durBefore),
			End:   day.AddDate(0, 0, 1).Add(durAfter),
		})
	}
	return events
}

// HolidayEvents looks up each named US holiday and returns its occurrences between start and
// end. All occurrences of a holiday share the holiday name so that the effect learned from
// past years carries into the forecast.
func HolidayEvents(names []string, start, end time.Time, durBefore, durAfter time.Duration) ([]Event, error) {
	var events []Event
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		hol, exists := holidays[key]
		if !exists {
			return nil, fmt.Errorf("%q, %w", name, ErrUnknownHoliday)
		}
		for _, ev := range Holiday(hol, start, end, durBefore, durAfter) {
			ev.Name = key
			events = append(events, ev)
		}
	}
	return events, nil
}

// HolidayNames returns every holiday name accepted by HolidayEvents in sorted order
func HolidayNames() []string {
	return slices.Sorted(maps.Keys(holidays))
}

type EventOptions struct {
	Events []Event `json:"events"`
}

// generateFeatures builds one mask feature per event name where events sharing a name are
// combined into a single mask
func (e EventOptions) generateFeatures(t []time.Time) *feature.Set {
	eFeat := feature.NewSet()
	for _, ev := range e.Events {
		if err := ev.Valid(); err != nil {
			slog.Warn("not separately modelling invalid event", "name", ev.Name, "error", err.Error())
			continue
		}

		eventFeat := feature.NewEvent(strings.ReplaceAll(ev.Name, " ", "_"))
		mask := eventFeat.Generate(t, ev.Start, ev.End)
		if existing, exists := eFeat.Get(eventFeat); exists {
			for i := range mask {
				mask[i] = max(mask[i], existing[i])
			}
		}
		eFeat.Set(eventFeat, mask)
	}
	return eFeat
}

func (e EventOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	noCfg := " None"
	if len(e.Events) > 0 {
		noCfg = ""
		if _, err := fmt.Fprintf(tbl, "%s%sName\tStart\tEnd\t\n", prefix, util.IndentExpand(indent, indentGrowth+1)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%s%sEvents:%s\n", prefix, util.IndentExpand(indent, indentGrowth), noCfg); err != nil {
		return err
	}
	for _, ev := range e.Events {
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%s\t%s\t\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			ev.Name, ev.Start, ev.End); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
