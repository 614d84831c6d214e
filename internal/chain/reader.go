package chain

import (
	"context"
	"fmt"

	"givechain/internal/domain"
)

// Caller executes read-only contract calls.
type Caller interface {
	EthCall(ctx context.Context, to string, data []byte) ([]byte, error)
}

// Reader exposes the campaign contract's read surface as typed results.
// Raw return tuples are decoded and validated immediately at this boundary;
// nothing untyped propagates inward.
type Reader struct {
	caller Caller
}

func NewReader(caller Caller) *Reader {
	return &Reader{caller: caller}
}

// CampaignDetails reads name, description, goal, total donated, state and
// charity address for the campaign at the given address. A reverted call
// means the address is not a deployed campaign and maps to ErrNotFound.
func (r *Reader) CampaignDetails(ctx context.Context, campaign string) (*domain.Campaign, error) {
	payload, err := r.call(ctx, campaign, selCampaignDetails)
	if err != nil {
		return nil, err
	}
	// (string name, string description, uint256 goal, uint256 totalDonated,
	//  uint8 state, address charity)
	name, err := payload.stringAt(0)
	if err != nil {
		return nil, decodeErr("getCampaignDetails", err)
	}
	description, err := payload.stringAt(1)
	if err != nil {
		return nil, decodeErr("getCampaignDetails", err)
	}
	goal, err := payload.uintAt(2)
	if err != nil {
		return nil, decodeErr("getCampaignDetails", err)
	}
	total, err := payload.uintAt(3)
	if err != nil {
		return nil, decodeErr("getCampaignDetails", err)
	}
	state, err := payload.uintAt(4)
	if err != nil {
		return nil, decodeErr("getCampaignDetails", err)
	}
	charity, err := payload.addressAt(5)
	if err != nil {
		return nil, decodeErr("getCampaignDetails", err)
	}
	return &domain.Campaign{
		Address:        campaign,
		Name:           name,
		Description:    description,
		Goal:           goal,
		TotalDonated:   total,
		State:          domain.CampaignState(state.Uint64()),
		CharityAddress: charity,
	}, nil
}

// Milestones reads the campaign's ordered milestone schedule.
func (r *Reader) Milestones(ctx context.Context, campaign string) ([]domain.Milestone, error) {
	payload, err := r.call(ctx, campaign, selMilestones)
	if err != nil {
		return nil, err
	}
	// (uint256[] targets, bool[] reached, bool[] fundsReleased)
	targets, err := arrayAt(payload, 0, payload.uintAt)
	if err != nil {
		return nil, decodeErr("getMilestones", err)
	}
	reached, err := arrayAt(payload, 1, payload.boolAt)
	if err != nil {
		return nil, decodeErr("getMilestones", err)
	}
	released, err := arrayAt(payload, 2, payload.boolAt)
	if err != nil {
		return nil, decodeErr("getMilestones", err)
	}
	if len(reached) != len(targets) || len(released) != len(targets) {
		return nil, fmt.Errorf("%w: getMilestones: mismatched array lengths", domain.ErrUpstreamFailure)
	}
	milestones := make([]domain.Milestone, len(targets))
	for i := range targets {
		milestones[i] = domain.Milestone{
			Target:        targets[i],
			Reached:       reached[i],
			FundsReleased: released[i],
		}
	}
	return milestones, nil
}

// AllDonors lists every address that has ever donated to the campaign.
func (r *Reader) AllDonors(ctx context.Context, campaign string) ([]string, error) {
	payload, err := r.call(ctx, campaign, selAllDonors)
	if err != nil {
		return nil, err
	}
	donors, err := arrayAt(payload, 0, payload.addressAt)
	if err != nil {
		return nil, decodeErr("getAllDonors", err)
	}
	return donors, nil
}

// DonorEntry reads the per-donor totals for the campaign.
func (r *Reader) DonorEntry(ctx context.Context, campaign, donor string) (*domain.DonorEntry, error) {
	calldata := append([]byte(nil), selDonors...)
	calldata, err := encodeAddressArg(calldata, donor)
	if err != nil {
		return nil, err
	}
	raw, err := r.caller.EthCall(ctx, campaign, calldata)
	if err != nil {
		return nil, mapCallErr(err)
	}
	payload := newABIPayload(raw)
	total, err := payload.uintAt(0)
	if err != nil {
		return nil, decodeErr("donors", err)
	}
	top, err := payload.boolAt(1)
	if err != nil {
		return nil, decodeErr("donors", err)
	}
	return &domain.DonorEntry{Address: donor, TotalDonated: total, IsTopDonor: top}, nil
}

func (r *Reader) call(ctx context.Context, campaign string, sel []byte) (abiPayload, error) {
	raw, err := r.caller.EthCall(ctx, campaign, sel)
	if err != nil {
		return abiPayload{}, mapCallErr(err)
	}
	if len(raw) == 0 {
		// An empty return from eth_call means no contract code at the
		// address.
		return abiPayload{}, fmt.Errorf("%w: no campaign at %s", domain.ErrNotFound, campaign)
	}
	return newABIPayload(raw), nil
}

func mapCallErr(err error) error {
	if IsRevert(err) {
		return fmt.Errorf("%w: campaign call reverted", domain.ErrNotFound)
	}
	return err
}

func decodeErr(method string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrUpstreamFailure, method, err)
}
