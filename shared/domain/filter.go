package domain

import (
	"fmt"
	"time"
)

type DateBucket string

const (
	BucketAny       DateBucket = ""
	BucketToday     DateBucket = "today"
	BucketThisWeek  DateBucket = "this_week"
	BucketNextWeek  DateBucket = "next_week"
	BucketThisMonth DateBucket = "this_month"
	BucketNextMonth DateBucket = "next_month"
)

// EventFilter narrows listPublishedEvents. Date, when set, wins over Bucket.
type EventFilter struct {
	Bucket       DateBucket
	Date         *time.Time
	Prefecture   string
	Municipality string
	Level        Level
	Page         int
	PerPage      int
}

// TimeRange is half-open: From <= t < To. A zero bound is unbounded.
type TimeRange struct {
	From time.Time
	To   time.Time
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// BucketRange resolves a bucket to a start-time range in loc. Weeks start on Monday.
func BucketRange(bucket DateBucket, now time.Time, loc *time.Location) (TimeRange, error) {
	today := startOfDay(now.In(loc))
	switch bucket {
	case BucketAny:
		return TimeRange{}, nil
	case BucketToday:
		return TimeRange{From: today, To: today.AddDate(0, 0, 1)}, nil
	case BucketThisWeek, BucketNextWeek:
		offset := (int(today.Weekday()) + 6) % 7 // days since Monday
		monday := today.AddDate(0, 0, -offset)
		if bucket == BucketNextWeek {
			monday = monday.AddDate(0, 0, 7)
		}
		return TimeRange{From: monday, To: monday.AddDate(0, 0, 7)}, nil
	case BucketThisMonth, BucketNextMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
		if bucket == BucketNextMonth {
			first = first.AddDate(0, 1, 0)
		}
		return TimeRange{From: first, To: first.AddDate(0, 1, 0)}, nil
	default:
		return TimeRange{}, fmt.Errorf("unknown date bucket %q", bucket)
	}
}

// DayRange is the whole calendar day of date in loc.
func DayRange(date time.Time, loc *time.Location) TimeRange {
	y, m, d := date.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return TimeRange{From: from, To: from.AddDate(0, 0, 1)}
}

// EventQuery is a resolved EventFilter, as handed to the store.
type EventQuery struct {
	StartRange   TimeRange
	NotBefore    time.Time // only events starting at or after this instant
	Prefecture   string
	Municipality string
	Level        Level
	Limit        int
	Offset       int
}
