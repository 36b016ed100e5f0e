// Package stats holds the value types produced by the monthly statistics aggregator.
package stats

import "time"

// MonthCount is one row of a GROUP BY month query. Month is in 1..12.
type MonthCount struct {
	Month int
	Total int64
}

// Monthly holds per-month counts for one year. Index 0 is January.
type Monthly struct {
	Year          int
	Registrations [12]int64
	Actives       [12]int64
}

// Registered returns the registrations of month m (1..12).
func (s Monthly) Registered(m time.Month) int64 {
	return s.Registrations[m-1]
}

// Active returns the actives of month m (1..12).
func (s Monthly) Active(m time.Month) int64 {
	return s.Actives[m-1]
}

// Fill spreads grouped rows over a zeroed 12-month series. Out-of-range months are dropped.
func Fill(rows []MonthCount) [12]int64 {
	var out [12]int64
	for _, r := range rows {
		if r.Month >= 1 && r.Month <= 12 {
			out[r.Month-1] = r.Total
		}
	}
	return out
}

// General summarises the user population.
type General struct {
	Total   int64
	Active  int64
	Blocked int64
	Admins  int64
	Clients int64
}

// Estimate is the projected registration count for one month.
type Estimate struct {
	Year  int
	Month time.Month
	Basis []int64 // Basis is the registrations the projection was computed from, oldest first
	Value int64
}
