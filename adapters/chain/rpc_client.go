package chain

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/parasol-labs/checkin/ports"
)

const (
	defaultTimeout      = 30 * time.Second
	confirmPollInterval = 500 * time.Millisecond
)

// Client talks JSON-RPC to a Solana-compatible endpoint.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a new RPC client for the endpoint.
func NewClient(endpoint string, logger *zap.Logger) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(endpoint).
			SetTimeout(defaultTimeout).
			SetHeader("Content-Type", "application/json"),
		logger: logger,
	}
}

var _ ports.ChainClient = (*Client)(nil)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	var body rpcResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}).
		SetResult(&body).
		Post("")
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}

	if resp.IsError() {
		return fmt.Errorf("%s returned status %s", method, resp.Status())
	}

	if body.Error != nil {
		return fmt.Errorf("%s failed: %w", method, body.Error)
	}

	if out != nil {
		if err := json.Unmarshal(body.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}

	return nil
}

// GetBalance returns the lamport balance of the address.
func (c *Client) GetBalance(ctx context.Context, address string) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}

	if err := c.call(ctx, "getBalance", []any{address}, &result); err != nil {
		return 0, err
	}

	return result.Value, nil
}

// GetLatestBlockhash returns a finalized blockhash.
func (c *Client) GetLatestBlockhash(ctx context.Context) (string, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}

	params := []any{map[string]string{"commitment": "finalized"}}
	if err := c.call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return "", err
	}

	return result.Value.Blockhash, nil
}

// RequestAirdrop requests a lamport grant for the address.
func (c *Client) RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error) {
	var signature string
	if err := c.call(ctx, "requestAirdrop", []any{address, lamports}, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// ConfirmTransaction polls the signature status until the transaction is
// confirmed or the context expires.
func (c *Client) ConfirmTransaction(ctx context.Context, signature string) error {
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		confirmed, err := c.signatureConfirmed(ctx, signature)
		if err != nil {
			return err
		}
		if confirmed {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation of %s: %w", signature, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) signatureConfirmed(ctx context.Context, signature string) (bool, error) {
	var result struct {
		Value []*struct {
			ConfirmationStatus string          `json:"confirmationStatus"`
			Err                json.RawMessage `json:"err"`
		} `json:"value"`
	}

	if err := c.call(ctx, "getSignatureStatuses", []any{[]string{signature}}, &result); err != nil {
		return false, err
	}

	if len(result.Value) == 0 || result.Value[0] == nil {
		return false, nil
	}

	status := result.Value[0]
	if len(status.Err) > 0 && string(status.Err) != "null" {
		return false, fmt.Errorf("transaction %s failed on chain", signature)
	}

	switch status.ConfirmationStatus {
	case "confirmed", "finalized":
		return true, nil
	}

	c.logger.Debug("transaction not yet confirmed",
		zap.String("signature", signature),
		zap.String("status", status.ConfirmationStatus))

	return false, nil
}

// SendRawTransaction submits a signed wire transaction.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(raw)

	var signature string
	params := []any{encoded, map[string]string{"encoding": "base64"}}
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}

	return signature, nil
}
