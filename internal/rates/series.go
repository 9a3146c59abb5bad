package rates

import (
	"fmt"
	"time"

	"github.com/claude/liftmap/internal/models"
	"github.com/claude/liftmap/internal/muscles"
	"github.com/claude/liftmap/internal/volume"
)

// Bucket is the granularity of a chart series.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// ParseBucket accepts day, week or month; empty defaults to week.
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(s) {
	case "", BucketWeek:
		return BucketWeek, nil
	case BucketDay, BucketMonth:
		return Bucket(s), nil
	}
	return "", fmt.Errorf("unknown bucket %q", s)
}

// Point is one bucket of a series.
type Point struct {
	Start time.Time `json:"start"`
	Sets  float64   `json:"sets"`
}

// Series returns the weighted set count per bucket from the bucket containing
// start through the bucket containing end. Empty buckets are included so charts
// keep a continuous axis.
func Series(sets []models.LoggedSet, m *muscles.Model, start, end time.Time, bucket Bucket, mode volume.Mode, selection []string) []Point {
	if end.Before(start) {
		return nil
	}

	byBucket := make(map[time.Time][]models.LoggedSet)
	for _, s := range Between(sets, start, end, true) {
		key := truncate(*s.Date, bucket)
		byBucket[key] = append(byBucket[key], s)
	}

	var points []Point
	for t := truncate(start, bucket); !t.After(end); t = next(t, bucket) {
		points = append(points, Point{
			Start: t,
			Sets:  round1(volume.Aggregate(byBucket[t], m).Sum(mode, selection)),
		})
	}
	return points
}

// truncate returns the UTC start of the bucket containing t. Weeks start on Monday.
func truncate(t time.Time, bucket Bucket) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch bucket {
	case BucketDay:
		return day
	case BucketMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	}
}

func next(t time.Time, bucket Bucket) time.Time {
	switch bucket {
	case BucketDay:
		return t.AddDate(0, 0, 1)
	case BucketMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 7)
	}
}
