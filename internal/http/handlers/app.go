package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"givechain/internal/chain"
	"givechain/internal/domain"
	"givechain/internal/infra/geoip"
	"givechain/internal/middleware"
	"givechain/internal/providers/chatbot"
	"givechain/internal/providers/predict"
)

// CampaignReader is the contract read surface the handlers depend on.
type CampaignReader interface {
	CampaignDetails(ctx context.Context, campaign string) (*domain.Campaign, error)
	Milestones(ctx context.Context, campaign string) ([]domain.Milestone, error)
	AllDonors(ctx context.Context, campaign string) ([]string, error)
}

// DonorEnricher joins donor addresses with identity records.
type DonorEnricher interface {
	Enrich(ctx context.Context, campaign string, donors []string) ([]domain.EnrichedDonor, error)
}

// DonationSubmitter runs the donation submission lifecycle.
type DonationSubmitter interface {
	Submit(ctx context.Context, campaign, donor, amount string) (chain.Submission, error)
	Status(donor string) chain.Submission
}

// App is the handler dependency container.
type App struct {
	Logger     zerolog.Logger
	JWTSecret  string
	Donors     domain.DonorRepository
	Donations  domain.DonationRepository
	Analytics  domain.AnalyticsRepository
	Campaigns  CampaignReader
	Enricher   DonorEnricher
	Submitter  DonationSubmitter
	Forecaster predict.Forecaster
	Responder  chatbot.Responder
	GeoIP      geoip.CountryResolver
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}

// domainError maps the error taxonomy to HTTP responses. Provider and
// upstream failures get retry-suggesting messages; validation errors stay
// 400s and never reach a global handler.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "no such record")
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", "invalid input")
	case errors.Is(err, domain.ErrSubmissionInFlight):
		a.error(w, http.StatusConflict, "submission_in_flight", "a donation is already being processed for this wallet")
	case errors.Is(err, domain.ErrNoHistory):
		a.error(w, http.StatusUnprocessableEntity, "insufficient_data", "this campaign has no donation history to predict from")
	case errors.Is(err, domain.ErrProviderUnavailable):
		a.error(w, http.StatusServiceUnavailable, "provider_unavailable", "the blockchain provider is unreachable, please retry")
	case errors.Is(err, domain.ErrUpstreamFailure):
		a.error(w, http.StatusBadGateway, "upstream_failure", "an upstream service failed, please retry")
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	default:
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentWallet(r *http.Request) string {
	return middleware.WalletFromContext(r.Context())
}

// bumpCounters best-effort increments today's analytics counters; metric
// loss is never allowed to fail a request.
func (a *App) bumpCounters(ctx context.Context, counters map[string]int) {
	if a.Analytics == nil {
		return
	}
	day := time.Now().UTC().Format("2006-01-02")
	if err := a.Analytics.IncrementCounters(ctx, day, counters); err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Warn().Err(err).Msg("analytics increment failed")
	}
}

// clientCountry resolves the caller's country code when a GeoIP database
// is configured.
func (a *App) clientCountry(r *http.Request) string {
	if a.GeoIP == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	country, err := a.GeoIP.CountryCode(host)
	if err != nil {
		return ""
	}
	return country
}
