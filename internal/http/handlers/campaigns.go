package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"givechain/internal/chain"
	"givechain/internal/domain"
)

type milestoneResponse struct {
	Target        string `json:"target"`
	TargetWei     string `json:"targetWei"`
	Reached       bool   `json:"reached"`
	FundsReleased bool   `json:"fundsReleased"`
	Status        string `json:"status"`
}

type campaignResponse struct {
	Address         string              `json:"address"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	Goal            string              `json:"goal"`
	GoalWei         string              `json:"goalWei"`
	TotalDonated    string              `json:"totalDonated"`
	TotalDonatedWei string              `json:"totalDonatedWei"`
	State           string              `json:"state"`
	CharityAddress  string              `json:"charityAddress"`
	ProgressPercent int                 `json:"progressPercent"`
	Milestones      []milestoneResponse `json:"milestones"`
}

type enrichedDonorResponse struct {
	Address      string `json:"address"`
	DisplayName  string `json:"displayName"`
	Avatar       string `json:"avatar,omitempty"`
	TotalDonated string `json:"totalDonated"`
	IsTopDonor   bool   `json:"isTopDonor"`
}

// CampaignGet reads campaign details and milestones from the contract in a
// single response. Milestone status is computed against the current total,
// never against partial sums.
func (a *App) CampaignGet(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	campaign, err := a.Campaigns.CampaignDetails(r.Context(), address)
	if err != nil {
		a.logReadErr(err, "campaign details read failed", address)
		a.domainError(w, err)
		return
	}
	milestones, err := a.Campaigns.Milestones(r.Context(), address)
	if err != nil {
		a.logReadErr(err, "campaign milestones read failed", address)
		a.domainError(w, err)
		return
	}

	resp := campaignResponse{
		Address:         campaign.Address,
		Name:            campaign.Name,
		Description:     campaign.Description,
		Goal:            chain.WeiToEtherString(campaign.Goal, 4),
		GoalWei:         campaign.Goal.String(),
		TotalDonated:    chain.WeiToEtherString(campaign.TotalDonated, 4),
		TotalDonatedWei: campaign.TotalDonated.String(),
		State:           campaign.State.String(),
		CharityAddress:  campaign.CharityAddress,
		ProgressPercent: campaign.ProgressPercent(),
		Milestones:      make([]milestoneResponse, 0, len(milestones)),
	}
	for _, m := range milestones {
		status := "Pending"
		if m.Reached {
			status = "Reached"
		}
		resp.Milestones = append(resp.Milestones, milestoneResponse{
			Target:        chain.WeiToEtherString(m.Target, 4),
			TargetWei:     m.Target.String(),
			Reached:       m.Reached,
			FundsReleased: m.FundsReleased,
			Status:        status,
		})
	}
	a.json(w, http.StatusOK, resp)
}

// CampaignDonors returns the campaign's donor list enriched with identity
// records and sorted by contribution.
func (a *App) CampaignDonors(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	donors, err := a.Campaigns.AllDonors(r.Context(), address)
	if err != nil {
		a.logReadErr(err, "campaign donor list read failed", address)
		a.domainError(w, err)
		return
	}

	enriched, err := a.Enricher.Enrich(r.Context(), address, donors)
	if err != nil {
		a.logReadErr(err, "donor enrichment failed", address)
		a.domainError(w, err)
		return
	}

	out := make([]enrichedDonorResponse, 0, len(enriched))
	for _, d := range enriched {
		out = append(out, enrichedDonorResponse{
			Address:      d.Address,
			DisplayName:  d.DisplayName,
			Avatar:       d.Avatar,
			TotalDonated: chain.WeiToEtherString(d.TotalDonated, 4),
			IsTopDonor:   d.IsTopDonor,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"donors": out})
}

func (a *App) logReadErr(err error, msg, campaign string) {
	evt := a.Logger.Error()
	if errors.Is(err, domain.ErrNotFound) {
		evt = a.Logger.Debug()
	}
	evt.Err(err).Str("campaign", campaign).Msg(msg)
}
