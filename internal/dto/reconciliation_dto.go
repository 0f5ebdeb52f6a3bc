package dto

import "time"

type ReconciliationSummary struct {
	Scanned     int `json:"scanned"`
	Completed   int `json:"completed"`
	Rescheduled int `json:"rescheduled"`
	Skipped     int `json:"skipped"`
	Errors      int `json:"errors"`
	// NotLeader is set when another instance held the run lock.
	NotLeader bool      `json:"not_leader"`
	RanAt     time.Time `json:"ran_at"`
}
