package widget

import (
	"slices"
	"strconv"
	"time"

	"github.com/theoremus-urban-solutions/hkbus-eta/datasheet"
	"github.com/theoremus-urban-solutions/hkbus-eta/hkbus"
)

// singleDepartureWindow is how long a timetable entry without an end time
// keeps its branch active.
const singleDepartureWindow = 10

// ServiceWeekday returns the timetable weekday of t. Public holidays run the
// Sunday timetable.
func ServiceWeekday(t time.Time, holidays []datasheet.Date) time.Weekday {
	if slices.Contains(holidays, datasheet.Date(t.Format(time.DateOnly))) {
		return time.Sunday
	}
	return t.Weekday()
}

// CurrentBranch returns the first branch with a timetable entry covering t,
// or the first branch when none does. serviceDayMap maps frequency keys to
// Sunday-first "0"/"1" day flags.
func CurrentBranch(branches []hkbus.Route, t time.Time, serviceDayMap map[string][]string, holidays []datasheet.Date) (hkbus.Route, bool) {
	if len(branches) == 0 {
		return hkbus.Route{}, false
	}
	weekday := ServiceWeekday(t, holidays)
	now := t.Hour()*60 + t.Minute()
	for _, r := range branches {
		if runsAt(r, weekday, now, serviceDayMap) {
			return r, true
		}
	}
	return branches[0], true
}

func runsAt(r hkbus.Route, weekday time.Weekday, now int, serviceDayMap map[string][]string) bool {
	for key, entries := range r.Freq {
		days := serviceDayMap[key]
		if int(weekday) >= len(days) || days[weekday] == "0" {
			continue
		}
		for start, window := range entries {
			from, ok := clockMinutes(start)
			if !ok {
				continue
			}
			to := from + singleDepartureWindow
			if len(window) > 0 {
				if end, ok := clockMinutes(window[0]); ok {
					to = end
				}
			}
			if from <= now && now <= to {
				return true
			}
		}
	}
	return false
}

// clockMinutes parses "HHMM" into minutes after midnight.
func clockMinutes(hhmm string) (int, bool) {
	if len(hhmm) != 4 {
		return 0, false
	}
	h, err := strconv.Atoi(hhmm[:2])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(hhmm[2:])
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}
