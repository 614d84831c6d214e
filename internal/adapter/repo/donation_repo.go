package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"givechain/internal/domain"
)

// DonationRepositoryPG persists donation intent audit rows. Amounts are
// stored as numeric wei strings; nothing is rounded on the way in or out.
type DonationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(pool *pgxpool.Pool) *DonationRepositoryPG {
	return &DonationRepositoryPG{pool: pool}
}

// Create inserts a resolved donation attempt. Rows are written only after
// the submission reaches a terminal state, never optimistically.
func (r *DonationRepositoryPG) Create(ctx context.Context, intent *domain.DonationIntent) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO donation_intents (id, campaign_address, donor_address, amount_wei, tx_hash, outcome, country)
VALUES ($1, lower($2), lower($3), $4::numeric, $5, $6, $7);
`,
		intent.ID,
		intent.CampaignAddress,
		intent.DonorAddress,
		intent.AmountWei,
		intent.TxHash,
		string(intent.Outcome),
		intent.Country,
	)
	return err
}

// ListByCampaign returns recent donation attempts for a campaign.
func (r *DonationRepositoryPG) ListByCampaign(ctx context.Context, campaignAddress string, limit int) ([]domain.DonationIntent, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, campaign_address, donor_address, amount_wei::text, tx_hash, outcome, country, created_at
FROM donation_intents
WHERE campaign_address = lower($1)
ORDER BY created_at DESC
LIMIT $2;
`, campaignAddress, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.DonationIntent
	for rows.Next() {
		var intent domain.DonationIntent
		var outcome string
		if err := rows.Scan(&intent.ID, &intent.CampaignAddress, &intent.DonorAddress, &intent.AmountWei, &intent.TxHash, &outcome, &intent.Country, &intent.CreatedAt); err != nil {
			return nil, err
		}
		intent.Outcome = domain.SubmissionState(outcome)
		items = append(items, intent)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// HistoryByCampaign aggregates confirmed donations into a per-day
// cumulative series in ether units, oldest first, for prediction input.
func (r *DonationRepositoryPG) HistoryByCampaign(ctx context.Context, campaignAddress string) ([]domain.DonationEvent, error) {
	rows, err := r.pool.Query(ctx, `
SELECT day, SUM(total) OVER (ORDER BY day)::float8 AS cumulative
FROM (
    SELECT created_at::date AS day, SUM(amount_wei / 1e18) AS total
    FROM donation_intents
    WHERE campaign_address = lower($1)
      AND outcome = 'confirmed'
    GROUP BY created_at::date
) daily
ORDER BY day;
`, campaignAddress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.DonationEvent
	for rows.Next() {
		var ev domain.DonationEvent
		if err := rows.Scan(&ev.Date, &ev.Amount); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

var _ domain.DonationRepository = (*DonationRepositoryPG)(nil)
