package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"givechain/internal/domain"
)

const bridgeDefaultTimeout = 60 * time.Second

// WalletBridge dispatches a payable donation transaction through the
// user-controlled wallet provider and returns the transaction hash once the
// wallet has signed and broadcast it. Declined signing surfaces as
// domain.ErrUserRejected, which is a recoverable outcome, not a failure.
type WalletBridge interface {
	SendDonation(ctx context.Context, campaign, from string, valueWei *big.Int) (string, error)
}

// HTTPWalletBridgeOptions configures the HTTP wallet bridge.
type HTTPWalletBridgeOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// HTTPWalletBridge forwards donation transactions to an external wallet
// bridge service that holds the signing session.
type HTTPWalletBridge struct {
	baseURL string
	client  *http.Client
}

type bridgeSendRequest struct {
	CampaignAddress string `json:"campaignAddress"`
	From            string `json:"from"`
	ValueWei        string `json:"valueWei"`
}

type bridgeSendResponse struct {
	TxHash string `json:"txHash"`
	Error  string `json:"error"`
}

func NewHTTPWalletBridge(opts HTTPWalletBridgeOptions) (*HTTPWalletBridge, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("wallet bridge url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: bridgeDefaultTimeout}
	}
	return &HTTPWalletBridge{baseURL: strings.TrimRight(opts.BaseURL, "/"), client: client}, nil
}

func (b *HTTPWalletBridge) SendDonation(ctx context.Context, campaign, from string, valueWei *big.Int) (string, error) {
	if valueWei == nil || valueWei.Sign() <= 0 {
		return "", fmt.Errorf("%w: value must be greater than zero", domain.ErrInvalidAmount)
	}
	body, err := json.Marshal(bridgeSendRequest{
		CampaignAddress: campaign,
		From:            from,
		ValueWei:        valueWei.String(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal bridge request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/transactions/donate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build bridge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: wallet bridge: %v", domain.ErrProviderUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	var out bridgeSendResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&out); decodeErr != nil && resp.StatusCode < 300 {
		return "", fmt.Errorf("%w: wallet bridge: malformed response", domain.ErrUpstreamFailure)
	}
	switch {
	case resp.StatusCode == http.StatusForbidden:
		return "", domain.ErrUserRejected
	case resp.StatusCode == http.StatusBadRequest:
		return "", fmt.Errorf("%w: wallet bridge: %s", domain.ErrInvalidAmount, out.Error)
	case resp.StatusCode >= 300:
		return "", fmt.Errorf("%w: wallet bridge: status %d: %s", domain.ErrUpstreamFailure, resp.StatusCode, out.Error)
	}
	if out.TxHash == "" {
		return "", fmt.Errorf("%w: wallet bridge: empty tx hash", domain.ErrUpstreamFailure)
	}
	return out.TxHash, nil
}

var _ WalletBridge = (*HTTPWalletBridge)(nil)
