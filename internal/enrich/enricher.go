package enrich

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"givechain/internal/domain"
)

// DonorReader is the per-donor view of the campaign contract.
type DonorReader interface {
	DonorEntry(ctx context.Context, campaign, donor string) (*domain.DonorEntry, error)
}

// Enricher joins on-chain donor entries with off-chain identities into
// display-ready rows. Each campaign load runs independently; the Enricher
// holds no mutable state across invocations.
type Enricher struct {
	reader   DonorReader
	resolver Resolver
	logger   zerolog.Logger
}

func NewEnricher(reader DonorReader, resolver Resolver, logger zerolog.Logger) *Enricher {
	return &Enricher{reader: reader, resolver: resolver, logger: logger}
}

// Enrich produces one row per donor address, sorted by total donated
// descending with ties broken by ascending address for determinism. A
// failing identity lookup degrades that one row to the truncated-address
// label; a failing contract read degrades the row to a zero total. No donor
// is ever dropped from the result.
func (e *Enricher) Enrich(ctx context.Context, campaign string, donors []string) ([]domain.EnrichedDonor, error) {
	rows := make([]domain.EnrichedDonor, 0, len(donors))
	for _, address := range donors {
		row := domain.EnrichedDonor{
			Address:     address,
			DisplayName: TruncateAddress(address),
		}
		entry, err := e.reader.DonorEntry(ctx, campaign, address)
		if err != nil {
			if errors.Is(err, domain.ErrProviderUnavailable) {
				// Provider loss is total, not partial; no point continuing
				// the batch against a dead node.
				return nil, err
			}
			e.logger.Warn().Err(err).Str("donor", address).Msg("donor entry read failed")
		} else {
			row.TotalDonated = entry.TotalDonated
			row.IsTopDonor = entry.IsTopDonor
		}
		profile, err := e.resolver.Resolve(ctx, address)
		switch {
		case err == nil && strings.TrimSpace(profile.Name) != "":
			row.DisplayName = profile.Name
			row.Avatar = profile.Avatar
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			e.logger.Warn().Err(err).Str("donor", address).Msg("identity lookup failed")
		}
		rows = append(rows, row)
	}
	sortDonors(rows)
	return rows, nil
}

func sortDonors(rows []domain.EnrichedDonor) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].TotalDonated, rows[j].TotalDonated
		switch {
		case a == nil && b != nil:
			return false
		case a != nil && b == nil:
			return true
		case a != nil && b != nil:
			if cmp := a.Cmp(b); cmp != 0 {
				return cmp > 0
			}
		}
		return strings.ToLower(rows[i].Address) < strings.ToLower(rows[j].Address)
	})
}
