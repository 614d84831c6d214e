package domain

import "time"

// AnalyticsDaily stores aggregated platform metrics for a specific day.
type AnalyticsDaily struct {
	Day                 time.Time
	DonationsSubmitted  int
	DonationsConfirmed  int
	DonationsRejected   int
	DonationsFailed     int
	PredictionsServed   int
	ChatMessages        int
	DonorsRegistered    int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
