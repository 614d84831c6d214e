package domain

import "math/big"

// CampaignState enumerates the on-chain campaign lifecycle.
type CampaignState uint8

const (
	CampaignStateActive      CampaignState = 0
	CampaignStateCompleted   CampaignState = 1
	CampaignStateDeactivated CampaignState = 2
)

// String returns the display label for a campaign state.
func (s CampaignState) String() string {
	switch s {
	case CampaignStateActive:
		return "active"
	case CampaignStateCompleted:
		return "completed"
	case CampaignStateDeactivated:
		return "deactivated"
	default:
		return "unknown"
	}
}

// Campaign is a read-only snapshot of an on-chain fundraising campaign.
// Monetary values are wei (smallest currency unit) and stay arbitrary
// precision until display conversion.
type Campaign struct {
	Address        string
	Name           string
	Description    string
	Goal           *big.Int
	TotalDonated   *big.Int
	State          CampaignState
	CharityAddress string
}

// Milestone is a cumulative donation threshold gating fund release.
type Milestone struct {
	Target        *big.Int
	Reached       bool
	FundsReleased bool
}

// DonorEntry is the per-(campaign, donor) view returned by the contract.
type DonorEntry struct {
	Address      string
	TotalDonated *big.Int
	IsTopDonor   bool
}

// EnrichedDonor is a display-ready donor row: the on-chain entry joined
// with the off-chain profile, or a truncated-address fallback label.
// Recomputed on every campaign load, never persisted.
type EnrichedDonor struct {
	Address      string
	DisplayName  string
	Avatar       string
	TotalDonated *big.Int
	IsTopDonor   bool
}

// ProgressPercent returns donation progress toward the goal in whole
// percent, computed with integer arithmetic and capped at 100.
func (c Campaign) ProgressPercent() int {
	if c.Goal == nil || c.Goal.Sign() <= 0 || c.TotalDonated == nil {
		return 0
	}
	pct := new(big.Int).Mul(c.TotalDonated, big.NewInt(100))
	pct.Quo(pct, c.Goal)
	if pct.Cmp(big.NewInt(100)) > 0 {
		return 100
	}
	return int(pct.Int64())
}
