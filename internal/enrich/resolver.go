package enrich

import (
	"context"
	"strings"

	"givechain/internal/domain"
)

// Resolver maps a wallet address to its off-chain profile. Lookups are
// case-insensitive on the address. A missing profile is reported as
// domain.ErrNotFound; the resolver never invents fallback labels. That
// presentation policy belongs to the Enricher.
type Resolver interface {
	Resolve(ctx context.Context, walletAddress string) (*domain.DonorProfile, error)
}

// RepositoryResolver resolves identities from the donor profile store.
type RepositoryResolver struct {
	donors domain.DonorRepository
}

func NewRepositoryResolver(donors domain.DonorRepository) *RepositoryResolver {
	return &RepositoryResolver{donors: donors}
}

func (r *RepositoryResolver) Resolve(ctx context.Context, walletAddress string) (*domain.DonorProfile, error) {
	return r.donors.GetByWallet(ctx, strings.ToLower(walletAddress))
}

var _ Resolver = (*RepositoryResolver)(nil)

// TruncateAddress builds the fallback display label for an unresolved
// wallet: first 6 and last 4 characters joined by an ellipsis.
func TruncateAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
