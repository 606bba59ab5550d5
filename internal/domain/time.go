package domain

import "time"

// Reservation and order timestamps are stored as RFC3339 UTC strings, so
// lexicographic comparison equals chronological comparison in Go and in SQL.

func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

func FormatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }
