package domain

import "context"

// DonorRepository defines access methods for donor profiles.
type DonorRepository interface {
	Upsert(ctx context.Context, profile *DonorProfile) (*DonorProfile, error)
	GetByWallet(ctx context.Context, walletAddress string) (*DonorProfile, error)
	List(ctx context.Context, limit int) ([]DonorProfile, error)
}

// DonationRepository persists donation intent audit rows.
type DonationRepository interface {
	Create(ctx context.Context, intent *DonationIntent) error
	ListByCampaign(ctx context.Context, campaignAddress string, limit int) ([]DonationIntent, error)
	HistoryByCampaign(ctx context.Context, campaignAddress string) ([]DonationEvent, error)
}

// AnalyticsRepository updates metrics counters.
type AnalyticsRepository interface {
	IncrementCounters(ctx context.Context, day string, counters map[string]int) error
	GetSummary(ctx context.Context) (*AnalyticsDaily, error)
}
