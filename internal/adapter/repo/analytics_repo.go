package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"givechain/internal/domain"
)

// AnalyticsRepositoryPG implements AnalyticsRepository using PostgreSQL.
type AnalyticsRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository constructs the repository.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepositoryPG {
	return &AnalyticsRepositoryPG{pool: pool}
}

// IncrementCounters upserts metrics for the provided day.
func (r *AnalyticsRepositoryPG) IncrementCounters(ctx context.Context, day string, counters map[string]int) error {
	query := `
INSERT INTO analytics_daily (
    day, donations_submitted, donations_confirmed, donations_rejected, donations_failed, predictions_served, chat_messages, donors_registered
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8
) ON CONFLICT (day) DO UPDATE SET
    donations_submitted = analytics_daily.donations_submitted + EXCLUDED.donations_submitted,
    donations_confirmed = analytics_daily.donations_confirmed + EXCLUDED.donations_confirmed,
    donations_rejected = analytics_daily.donations_rejected + EXCLUDED.donations_rejected,
    donations_failed = analytics_daily.donations_failed + EXCLUDED.donations_failed,
    predictions_served = analytics_daily.predictions_served + EXCLUDED.predictions_served,
    chat_messages = analytics_daily.chat_messages + EXCLUDED.chat_messages,
    donors_registered = analytics_daily.donors_registered + EXCLUDED.donors_registered,
    updated_at = NOW();
`
	_, err := r.pool.Exec(ctx, query,
		day,
		counters["donations_submitted"],
		counters["donations_confirmed"],
		counters["donations_rejected"],
		counters["donations_failed"],
		counters["predictions_served"],
		counters["chat_messages"],
		counters["donors_registered"],
	)
	return err
}

// GetSummary returns the latest day's aggregated stats.
func (r *AnalyticsRepositoryPG) GetSummary(ctx context.Context) (*domain.AnalyticsDaily, error) {
	row := r.pool.QueryRow(ctx, `
SELECT day, donations_submitted, donations_confirmed, donations_rejected, donations_failed, predictions_served, chat_messages, donors_registered, created_at, updated_at
FROM analytics_daily
ORDER BY day DESC
LIMIT 1;
`)

	var summary domain.AnalyticsDaily
	if err := row.Scan(
		&summary.Day,
		&summary.DonationsSubmitted,
		&summary.DonationsConfirmed,
		&summary.DonationsRejected,
		&summary.DonationsFailed,
		&summary.PredictionsServed,
		&summary.ChatMessages,
		&summary.DonorsRegistered,
		&summary.CreatedAt,
		&summary.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &summary, nil
}

var _ domain.AnalyticsRepository = (*AnalyticsRepositoryPG)(nil)
