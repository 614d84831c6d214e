package handlers

import (
	"errors"
	"net/http"
	"time"

	"givechain/internal/domain"
)

type statsResponse struct {
	Day                string `json:"day"`
	DonationsSubmitted int    `json:"donationsSubmitted"`
	DonationsConfirmed int    `json:"donationsConfirmed"`
	DonationsRejected  int    `json:"donationsRejected"`
	DonationsFailed    int    `json:"donationsFailed"`
	PredictionsServed  int    `json:"predictionsServed"`
	ChatMessages       int    `json:"chatMessages"`
	DonorsRegistered   int    `json:"donorsRegistered"`
}

// StatsSummary returns the most recent day of platform counters. A platform
// with no recorded activity yet reports zeros for today.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.Analytics.GetSummary(r.Context())
	if errors.Is(err, domain.ErrNotFound) {
		a.json(w, http.StatusOK, statsResponse{Day: time.Now().UTC().Format("2006-01-02")})
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("stats summary failed")
		a.domainError(w, err)
		return
	}

	a.json(w, http.StatusOK, statsResponse{
		Day:                summary.Day.Format("2006-01-02"),
		DonationsSubmitted: summary.DonationsSubmitted,
		DonationsConfirmed: summary.DonationsConfirmed,
		DonationsRejected:  summary.DonationsRejected,
		DonationsFailed:    summary.DonationsFailed,
		PredictionsServed:  summary.PredictionsServed,
		ChatMessages:       summary.ChatMessages,
		DonorsRegistered:   summary.DonorsRegistered,
	})
}
