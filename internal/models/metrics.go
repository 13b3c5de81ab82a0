package models

import "time"

// SystemMetrics is a lightweight view of service counters for the admin page.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	BackendRequests          uint64    `json:"backend_requests"`
	BackendFailures          uint64    `json:"backend_failures"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	Registrations            uint64    `json:"registrations"`
	Exports                  uint64    `json:"exports"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// AdminMetadata describes the admin dashboard page.
type AdminMetadata struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Metrics     SystemMetrics `json:"metrics"`
}
