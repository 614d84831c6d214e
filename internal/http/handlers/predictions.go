package handlers

import (
	"encoding/json"
	"net/http"

	"givechain/internal/chain"
	"givechain/internal/domain"
	"givechain/internal/providers/predict"
)

type predictionRequest struct {
	CampaignAddress string `json:"campaignAddress"`
	DaysToPredict   int    `json:"daysToPredict"`
}

// PredictionCreate builds a donation forecast for a campaign from its
// confirmed donation history. Campaigns without history are rejected before
// the model is ever called.
func (a *App) PredictionCreate(w http.ResponseWriter, r *http.Request) {
	var req predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}
	if !isWalletAddress(req.CampaignAddress) {
		a.error(w, http.StatusBadRequest, "bad_request", "campaignAddress must be a 0x-prefixed 20-byte hex address")
		return
	}
	if req.DaysToPredict < 1 || req.DaysToPredict > 365 {
		a.error(w, http.StatusBadRequest, "bad_request", "daysToPredict must be between 1 and 365")
		return
	}

	campaign, err := a.Campaigns.CampaignDetails(r.Context(), req.CampaignAddress)
	if err != nil {
		a.logReadErr(err, "campaign read for forecast failed", req.CampaignAddress)
		a.domainError(w, err)
		return
	}

	history, err := a.Donations.HistoryByCampaign(r.Context(), req.CampaignAddress)
	if err != nil {
		a.Logger.Error().Err(err).Str("campaign", req.CampaignAddress).Msg("donation history read failed")
		a.domainError(w, err)
		return
	}
	if len(history) == 0 {
		a.domainError(w, domain.ErrNoHistory)
		return
	}

	forecast, err := a.Forecaster.Forecast(r.Context(), predict.ForecastRequest{
		CampaignAddress: req.CampaignAddress,
		CampaignName:    campaign.Name,
		GoalEther:       chain.WeiToEtherString(campaign.Goal, 4),
		History:         history,
		Days:            req.DaysToPredict,
	})
	if err != nil {
		a.Logger.Error().Err(err).Str("campaign", req.CampaignAddress).Msg("forecast failed")
		a.domainError(w, err)
		return
	}

	a.bumpCounters(r.Context(), map[string]int{"predictions_served": 1})
	a.json(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   forecast,
	})
}
