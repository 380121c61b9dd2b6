package models

import "time"

// StatusCount pairs a student status with how many students hold it.
type StatusCount struct {
	Status StudentStatus `db:"status" json:"status"`
	Count  int           `db:"count" json:"count"`
}

// FeeCollectionSummary aggregates invoiced versus collected amounts in minor units.
type FeeCollectionSummary struct {
	TotalInvoiced  int64 `db:"total_invoiced" json:"total_invoiced"`
	TotalCollected int64 `db:"total_collected" json:"total_collected"`
	Outstanding    int64 `db:"outstanding" json:"outstanding"`
}

// HostelOccupancySummary aggregates room capacity usage.
type HostelOccupancySummary struct {
	TotalRooms    int `db:"total_rooms" json:"total_rooms"`
	TotalCapacity int `db:"total_capacity" json:"total_capacity"`
	Occupied      int `db:"occupied" json:"occupied"`
}

// DashboardSummary is the cached aggregate served to the admin landing page.
type DashboardSummary struct {
	StudentsBySemester []SemesterCount        `json:"students_by_semester"`
	StudentsByStatus   []StatusCount          `json:"students_by_status"`
	FeeCollection      FeeCollectionSummary   `json:"fee_collection"`
	HostelOccupancy    HostelOccupancySummary `json:"hostel_occupancy"`
	GeneratedAt        time.Time              `json:"generated_at"`
}

// SystemMetrics is a lightweight snapshot of runtime counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
