package validation

import "time"

// scoreFreshness buckets source age; sources without an extractable date
// score neutral.
func scoreFreshness(publishedAt *time.Time) float64 {
	if publishedAt == nil {
		return neutralScore
	}

	age := time.Since(*publishedAt)
	switch {
	case age < 24*time.Hour:
		return 1.0
	case age < 7*24*time.Hour:
		return 0.9
	case age < 30*24*time.Hour:
		return 0.7
	case age < 365*24*time.Hour:
		return 0.5
	default:
		return 0.2
	}
}
