package tracking

import (
	"math"
	"time"
)

// roundHalfUp rounds x to the nearest integer, halves away from negative infinity.
func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

// DurationMinutes is the elapsed time between start and end in whole minutes,
// rounded half-up and never negative.
func DurationMinutes(start, end time.Time) int64 {
	ms := end.Sub(start).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return roundHalfUp(float64(ms) / 60000)
}

// Salary is the pay for minutes of work at hourlyRate, rounded half-up to a whole amount.
func Salary(minutes int64, hourlyRate float64) int64 {
	hours := float64(minutes) / 60
	return roundHalfUp(hours * hourlyRate)
}

// ShouldDiscard reports whether a closed session is too insignificant to record.
func ShouldDiscard(hadModifications bool, minutes int64) bool {
	return !hadModifications && minutes < 1
}
