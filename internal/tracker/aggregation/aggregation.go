// Package aggregation derives calendar rollups from raw event instants.
//
// Every function here is pure: instants go in, buckets come out. The caller
// supplies "now" and the timezone, and each stored instant is localized
// independently under the timezone's rules in effect for that instant's own
// date. Nothing is cached and nothing persists, so a timezone change simply
// shifts where old instants land on the next read. That is deliberate policy,
// not an accident: reads always reflect the current preference.
//
// The week runs Monday through Sunday.
package aggregation

import (
	"time"

	"github.com/YourPsychicArchitect/diligence-tracker/internal/tracker/models"
)

// Statistics is the full rollup set for one task: totals for the current
// local day, week and month, the all-time count, and per-weekday counts for
// the current week.
type Statistics struct {
	TodayTotal   int
	WeekTotal    int
	MonthTotal   int
	AllTimeTotal int
	WeekData     [7]models.DayCount
}

// HourlyActivity buckets the instants that fall on now's local calendar day
// into 24 local-hour counts. Instants on other days are ignored. An empty
// input yields all zeros; absence of activity is a valid state, not an error.
func HourlyActivity(instants []time.Time, loc *time.Location, now time.Time) [24]int {
	var buckets [24]int

	today := dateOf(now.In(loc))
	for _, instant := range instants {
		local := instant.In(loc)
		if dateOf(local) == today {
			buckets[local.Hour()]++
		}
	}

	return buckets
}

// Compute builds the statistics rollup. Week and month totals count from the
// boundary start through today; the weekday series covers the whole current
// week, so weekdays still ahead of today report zero.
func Compute(instants []time.Time, loc *time.Location, now time.Time) Statistics {
	localNow := now.In(loc)
	today := dateOf(localNow)
	weekStart := startOfWeek(localNow)
	monthStart := localDate{today.year, today.month, 1}

	stats := Statistics{AllTimeTotal: len(instants)}

	weekDays := [7]localDate{}
	for i := range weekDays {
		weekDays[i] = weekStart.addDays(i)
		stats.WeekData[i] = models.DayCount{Day: weekDays[i].weekdayName()}
	}

	for _, instant := range instants {
		d := dateOf(instant.In(loc))

		if d == today {
			stats.TodayTotal++
		}
		if !d.before(weekStart) && !today.before(d) {
			stats.WeekTotal++
		}
		if !d.before(monthStart) && !today.before(d) {
			stats.MonthTotal++
		}
		for i, wd := range weekDays {
			if d == wd {
				stats.WeekData[i].Count++
				break
			}
		}
	}

	return stats
}

// localDate is a calendar day in some location, comparable as a value.
// Instants are reduced to their local date exactly once so DST transitions
// around midnight cannot skew comparisons.
type localDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) localDate {
	y, m, d := t.Date()
	return localDate{y, m, d}
}

func (d localDate) before(other localDate) bool {
	if d.year != other.year {
		return d.year < other.year
	}
	if d.month != other.month {
		return d.month < other.month
	}
	return d.day < other.day
}

func (d localDate) addDays(n int) localDate {
	// Normalize through time.Date so month and year boundaries carry
	t := time.Date(d.year, d.month, d.day+n, 0, 0, 0, 0, time.UTC)
	return dateOf(t)
}

func (d localDate) weekday() time.Weekday {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC).Weekday()
}

// weekdayName returns the full English day name, matching what the weekly
// chart has always displayed.
func (d localDate) weekdayName() string {
	return d.weekday().String()
}

// startOfWeek returns the Monday of t's local week.
func startOfWeek(t time.Time) localDate {
	d := dateOf(t)
	// Monday is day 0 of the week; Go's Sunday == 0 needs shifting
	offset := (int(d.weekday()) + 6) % 7
	return d.addDays(-offset)
}
