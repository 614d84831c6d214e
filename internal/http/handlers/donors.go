package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"givechain/internal/domain"
	"givechain/internal/middleware"
)

type registerDonorRequest struct {
	WalletAddress string `json:"walletAddress"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar"`
}

type donorResponse struct {
	WalletAddress string    `json:"walletAddress"`
	Name          string    `json:"name"`
	Avatar        string    `json:"avatar"`
	CreatedAt     time.Time `json:"createdAt"`
}

// donorListItem is the compact shape the donor list exposes. Consumers key
// on walletAddress and name only; the full profile lives at by-wallet.
type donorListItem struct {
	WalletAddress string `json:"walletAddress"`
	Name          string `json:"name"`
}

func toDonorResponse(p *domain.DonorProfile) donorResponse {
	return donorResponse{
		WalletAddress: p.WalletAddress,
		Name:          p.Name,
		Avatar:        p.Avatar,
		CreatedAt:     p.CreatedAt,
	}
}

// DonorRegister creates or updates a donor profile and issues a session
// token bound to the wallet address.
func (a *App) DonorRegister(w http.ResponseWriter, r *http.Request) {
	var req registerDonorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return
	}
	if !isWalletAddress(req.WalletAddress) {
		a.error(w, http.StatusBadRequest, "bad_request", "walletAddress must be a 0x-prefixed 20-byte hex address")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}

	profile, err := a.Donors.Upsert(r.Context(), &domain.DonorProfile{
		WalletAddress: req.WalletAddress,
		Name:          strings.TrimSpace(req.Name),
		Avatar:        strings.TrimSpace(req.Avatar),
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("donor upsert failed")
		a.domainError(w, err)
		return
	}

	token, err := middleware.SignJWT(a.JWTSecret, middleware.TokenClaims{
		Sub:    profile.WalletAddress,
		Name:   profile.Name,
		Exp:    time.Now().Add(24 * time.Hour).Unix(),
		Issuer: "givechain",
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("token signing failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	a.bumpCounters(r.Context(), map[string]int{"donors_registered": 1})
	a.json(w, http.StatusCreated, map[string]any{
		"donor": toDonorResponse(profile),
		"token": token,
	})
}

// DonorList returns registered donor profiles, newest first.
func (a *App) DonorList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	profiles, err := a.Donors.List(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("donor list failed")
		a.domainError(w, err)
		return
	}

	out := make([]donorListItem, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, donorListItem{WalletAddress: p.WalletAddress, Name: p.Name})
	}
	a.json(w, http.StatusOK, out)
}

// DonorByWallet looks up a single donor profile by wallet address.
func (a *App) DonorByWallet(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("walletAddress")
	if !isWalletAddress(address) {
		a.error(w, http.StatusBadRequest, "bad_request", "walletAddress must be a 0x-prefixed 20-byte hex address")
		return
	}

	profile, err := a.Donors.GetByWallet(r.Context(), address)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, toDonorResponse(profile))
}

func isWalletAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
