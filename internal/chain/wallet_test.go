package chain

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"givechain/internal/domain"
)

func TestHTTPWalletBridgeSendDonation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req bridgeSendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.ValueWei != ether(10).String() {
			t.Fatalf("valueWei = %q", req.ValueWei)
		}
		_ = json.NewEncoder(w).Encode(bridgeSendResponse{TxHash: "0xfeed"})
	}))
	defer server.Close()

	bridge, err := NewHTTPWalletBridge(HTTPWalletBridgeOptions{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewHTTPWalletBridge: %v", err)
	}
	txHash, err := bridge.SendDonation(context.Background(), testCampaign, testDonor, ether(10))
	if err != nil {
		t.Fatalf("SendDonation: %v", err)
	}
	if txHash != "0xfeed" {
		t.Fatalf("txHash = %q", txHash)
	}
}

func TestHTTPWalletBridgeStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"declined signing", http.StatusForbidden, domain.ErrUserRejected},
		{"bad request", http.StatusBadRequest, domain.ErrInvalidAmount},
		{"upstream error", http.StatusBadGateway, domain.ErrUpstreamFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_ = json.NewEncoder(w).Encode(bridgeSendResponse{Error: "nope"})
			}))
			defer server.Close()

			bridge, _ := NewHTTPWalletBridge(HTTPWalletBridgeOptions{BaseURL: server.URL})
			_, err := bridge.SendDonation(context.Background(), testCampaign, testDonor, big.NewInt(1))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestHTTPWalletBridgeRejectsNonPositiveValue(t *testing.T) {
	bridge, _ := NewHTTPWalletBridge(HTTPWalletBridgeOptions{BaseURL: "http://localhost:0"})
	if _, err := bridge.SendDonation(context.Background(), testCampaign, testDonor, big.NewInt(0)); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}
