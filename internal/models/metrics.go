package models

import "time"

// MetricsSnapshot is a JSON friendly digest of the Prometheus collectors.
type MetricsSnapshot struct {
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	CacheHits                uint64            `json:"cache_hits"`
	CacheMisses              uint64            `json:"cache_misses"`
	CacheHitRatio            float64           `json:"cache_hit_ratio"`
	SessionsIssued           uint64            `json:"sessions_issued"`
	AttendanceOutcomes       map[string]uint64 `json:"attendance_outcomes"`
	RosterRowsImported       uint64            `json:"roster_rows_imported"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}
