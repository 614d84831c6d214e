package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"givechain/internal/chain"
	"givechain/internal/domain"
)

type createDonationRequest struct {
	Amount string `json:"amount"`
}

type submissionResponse struct {
	Status    string    `json:"status"`
	TxHash    string    `json:"txHash,omitempty"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// DonationCreate runs a donation through the wallet bridge and waits for
// on-chain confirmation. A declined signature is a normal outcome and gets
// a 200, not an error status. The handler blocks until the submission
// reaches a terminal state, so the route's write timeout must exceed the
// confirmation timeout.
func (a *App) DonationCreate(w http.ResponseWriter, r *http.Request) {
	campaign := chi.URLParam(r, "address")
	donor := a.currentWallet(r)
	if donor == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req createDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}

	sub, err := a.Submitter.Submit(r.Context(), campaign, donor, req.Amount)
	switch {
	case err == nil && sub.State == domain.SubmissionConfirmed:
		a.recordIntent(r, campaign, donor, req.Amount, sub)
		a.bumpCounters(r.Context(), map[string]int{"donations_submitted": 1, "donations_confirmed": 1})
		a.json(w, http.StatusCreated, submissionResponse{
			Status:    string(sub.State),
			TxHash:    sub.TxHash,
			UpdatedAt: sub.UpdatedAt,
		})
	case err == nil && sub.State == domain.SubmissionRejected:
		a.recordIntent(r, campaign, donor, req.Amount, sub)
		a.bumpCounters(r.Context(), map[string]int{"donations_submitted": 1, "donations_rejected": 1})
		a.json(w, http.StatusOK, submissionResponse{
			Status:    string(sub.State),
			Message:   "the transaction was cancelled and no funds were sent",
			UpdatedAt: sub.UpdatedAt,
		})
	case errors.Is(err, domain.ErrSubmissionInFlight):
		a.domainError(w, err)
	case errors.Is(err, domain.ErrInvalidAmount):
		a.error(w, http.StatusBadRequest, "bad_request", "amount must be a positive ether value with at most 18 decimal places")
	default:
		if sub.State == domain.SubmissionFailed {
			a.recordIntent(r, campaign, donor, req.Amount, sub)
			a.bumpCounters(r.Context(), map[string]int{"donations_submitted": 1, "donations_failed": 1})
		}
		a.Logger.Error().Err(err).Str("campaign", campaign).Msg("donation submission failed")
		a.domainError(w, err)
	}
}

// DonationStatus reports the caller's last known submission state.
func (a *App) DonationStatus(w http.ResponseWriter, r *http.Request) {
	donor := a.currentWallet(r)
	if donor == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	sub := a.Submitter.Status(donor)
	a.json(w, http.StatusOK, submissionResponse{
		Status:    string(sub.State),
		TxHash:    sub.TxHash,
		Message:   sub.Error,
		UpdatedAt: sub.UpdatedAt,
	})
}

// DonationList returns recorded donation intents for a campaign.
func (a *App) DonationList(w http.ResponseWriter, r *http.Request) {
	campaign := chi.URLParam(r, "address")
	intents, err := a.Donations.ListByCampaign(r.Context(), campaign, 100)
	if err != nil {
		a.Logger.Error().Err(err).Str("campaign", campaign).Msg("donation list failed")
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"donations": intents})
}

// recordIntent writes the audit row for a resolved submission. Audit loss
// is logged but never fails the donation response.
func (a *App) recordIntent(r *http.Request, campaign, donor, amount string, sub chain.Submission) {
	wei, err := chain.ParseEtherAmount(amount)
	if err != nil {
		return
	}
	intent := &domain.DonationIntent{
		ID:              uuid.NewString(),
		CampaignAddress: campaign,
		DonorAddress:    donor,
		AmountWei:       wei.String(),
		TxHash:          sub.TxHash,
		Outcome:         sub.State,
		Country:         a.clientCountry(r),
		CreatedAt:       time.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
	defer cancel()
	if err := a.Donations.Create(ctx, intent); err != nil {
		a.Logger.Error().Err(err).Str("tx", sub.TxHash).Msg("donation intent write failed")
	}
}
