package rating

import (
	"math"
	"time"
)

// MinStars and MaxStars bound the value of a rating.
const (
	MinStars = 1
	MaxStars = 5
)

// Rating is one rater's opinion of one ratee. At most one exists per (rater, ratee) pair.
type Rating struct {
	ID        int64
	RaterID   int64  // RaterID is the user who gave the rating
	RateeID   int64  // RateeID is the user who received it
	RaterName string // RaterName is filled on reads for display
	RateeName string // RateeName is filled on reads for display
	Stars     int
	Comment   string
	CreatedAt time.Time
}

// ValidStars reports whether stars is within [MinStars, MaxStars].
func ValidStars(stars int) bool {
	return stars >= MinStars && stars <= MaxStars
}

// Summary aggregates the ratings one user received.
type Summary struct {
	Average float64 // Average is the rounded mean of stars, 0.0 when Count is zero
	Count   int64
}

// RoundAverage rounds a mean of stars to one decimal place.
func RoundAverage(mean float64) float64 {
	return math.Round(mean*10) / 10
}
