package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"givechain/internal/domain"
)

const rpcDefaultTimeout = 15 * time.Second

// RPCOptions configures the JSON-RPC client.
type RPCOptions struct {
	URL        string
	HTTPClient *http.Client
}

// RPCClient talks JSON-RPC over HTTP to a blockchain node.
type RPCClient struct {
	url    string
	client *http.Client
	nextID atomic.Int64
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsRevert reports whether an error is a contract execution revert, as
// opposed to a transport or node failure.
func IsRevert(err error) bool {
	var rpcErr *rpcError
	if !errors.As(err, &rpcErr) {
		return false
	}
	return strings.Contains(strings.ToLower(rpcErr.Message), "revert")
}

func NewRPCClient(opts RPCOptions) (*RPCClient, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.New("chain rpc url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: rpcDefaultTimeout}
	}
	return &RPCClient{url: opts.URL, client: client}, nil
}

// Call performs a raw JSON-RPC call. Transport failures are wrapped in
// domain.ErrProviderUnavailable; node-reported errors come back as *rpcError.
func (c *RPCClient) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rpc request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrProviderUnavailable, method, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrProviderUnavailable, method, resp.StatusCode)
	}
	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %s: decode response: %v", domain.ErrProviderUnavailable, method, err)
	}
	if out.Error != nil {
		return nil, out.Error
	}
	return out.Result, nil
}

// EthCall executes a read-only contract call and returns the raw return
// data. Every call re-reads current on-chain state; nothing is cached.
func (c *RPCClient) EthCall(ctx context.Context, to string, data []byte) ([]byte, error) {
	params := map[string]string{
		"to":   to,
		"data": "0x" + hex.EncodeToString(data),
	}
	raw, err := c.Call(ctx, "eth_call", params, "latest")
	if err != nil {
		return nil, err
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("%w: eth_call: malformed result", domain.ErrUpstreamFailure)
	}
	out, err := hex.DecodeString(strings.TrimPrefix(encoded, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: eth_call: non-hex result", domain.ErrUpstreamFailure)
	}
	return out, nil
}

// Receipt is the subset of a transaction receipt this service inspects.
type Receipt struct {
	TxHash      string `json:"transactionHash"`
	BlockNumber string `json:"blockNumber"`
	Status      string `json:"status"`
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == "0x1"
}

// TransactionReceipt fetches the receipt for a transaction hash. A nil
// receipt with nil error means the transaction is not yet mined.
func (c *RPCClient) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	raw, err := c.Call(ctx, "eth_getTransactionReceipt", txHash)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var receipt Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("%w: malformed receipt", domain.ErrUpstreamFailure)
	}
	return &receipt, nil
}

// WaitMined polls for a receipt until the transaction is mined or the
// context expires. A context timeout surfaces as ErrProviderUnavailable so
// callers never hang on a stuck transaction.
func (c *RPCClient) WaitMined(ctx context.Context, txHash string, interval time.Duration) (*Receipt, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		receipt, err := c.TransactionReceipt(ctx, txHash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: confirmation timed out for %s", domain.ErrProviderUnavailable, txHash)
		case <-ticker.C:
		}
	}
}
