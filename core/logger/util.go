package logger

import "time"

// Status maps an error to the "ok"/"error" status value.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Took returns time elapsed since start rounded to milliseconds.
func Took(start time.Time) time.Duration {
	d := time.Since(start)
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}
