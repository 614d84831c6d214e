package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"givechain/internal/domain"
)

// DonorRepositoryPG implements domain.DonorRepository backed by PostgreSQL.
// Wallet addresses are stored lowercase so lookups are case-insensitive.
type DonorRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDonorRepository creates a new DonorRepositoryPG.
func NewDonorRepository(pool *pgxpool.Pool) *DonorRepositoryPG {
	return &DonorRepositoryPG{pool: pool}
}

// Upsert inserts or refreshes a donor profile keyed by wallet address.
func (r *DonorRepositoryPG) Upsert(ctx context.Context, profile *domain.DonorProfile) (*domain.DonorProfile, error) {
	query := `
INSERT INTO donors (wallet_address, name, avatar)
VALUES ($1, $2, $3)
ON CONFLICT (wallet_address) DO UPDATE
SET name = EXCLUDED.name,
    avatar = EXCLUDED.avatar
RETURNING wallet_address, name, avatar, created_at;
`
	row := r.pool.QueryRow(ctx, query,
		strings.ToLower(profile.WalletAddress),
		profile.Name,
		profile.Avatar,
	)
	return scanDonor(row)
}

// GetByWallet fetches a profile by wallet address, case-insensitively.
func (r *DonorRepositoryPG) GetByWallet(ctx context.Context, walletAddress string) (*domain.DonorProfile, error) {
	row := r.pool.QueryRow(ctx, `
SELECT wallet_address, name, avatar, created_at
FROM donors
WHERE wallet_address = lower($1);
`, walletAddress)
	return scanDonor(row)
}

// List returns registered donors, newest first.
func (r *DonorRepositoryPG) List(ctx context.Context, limit int) ([]domain.DonorProfile, error) {
	rows, err := r.pool.Query(ctx, `
SELECT wallet_address, name, avatar, created_at
FROM donors
ORDER BY created_at DESC
LIMIT $1;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.DonorProfile
	for rows.Next() {
		var p domain.DonorProfile
		if err := rows.Scan(&p.WalletAddress, &p.Name, &p.Avatar, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanDonor(row pgx.Row) (*domain.DonorProfile, error) {
	var p domain.DonorProfile
	if err := row.Scan(&p.WalletAddress, &p.Name, &p.Avatar, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

var _ domain.DonorRepository = (*DonorRepositoryPG)(nil)
