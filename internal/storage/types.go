package storage

import "time"

// Session is one stored page view.
type Session struct {
	ID        int64
	UserID    string
	Domain    string
	URL       string
	StartTime time.Time
	EndTime   time.Time
}

// Stats holds aggregate statistics about the footprint database.
type Stats struct {
	TotalSessions int64
	TotalRules    int64
	TotalLimits   int64
	TotalAnalyses int64
	Users         int64
	OldestSession time.Time
	NewestSession time.Time
	TopDomains    []DomainCount
}

// DomainCount pairs a domain with its session count.
type DomainCount struct {
	Domain string
	Count  int64
}
