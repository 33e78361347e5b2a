package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/popmadice/backend/internal/config"
	"github.com/popmadice/backend/internal/currency"
)

// Claimer submits a claim for one game's winnings on chain and returns the
// transaction hash. The engine's GameResult is the only contract between the
// game core and this component.
type Claimer interface {
	ClaimWinnings(ctx context.Context, gameID, playerAddress string, amount currency.Amount) (string, error)
}

// Client talks JSON-RPC to a chain node and drives the DiceGame contract's
// claimWinnings entrypoint through a relayer account. Amounts cross this
// boundary as decimal strings only.
type Client struct {
	rpcURL     string
	contract   string
	httpClient *http.Client
}

// Default is the package-level default client
var Default *Client

// NewClient creates a chain client from config. Returns nil when the
// contract address is not configured; claims then run in mock mode.
func NewClient(cfg *config.Config) *Client {
	if cfg == nil || cfg.DiceGameContract == "" {
		log.Printf("[CLAIM] DiceGame contract not configured - skipping chain client initialization")
		return nil
	}
	return &Client{
		rpcURL:     strings.TrimRight(cfg.ChainRPCURL, "/"),
		contract:   cfg.DiceGameContract,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetDefault sets the package-level default client
func SetDefault(c *Client) {
	Default = c
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rpc request failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("failed to decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// ClaimWinnings submits the claim transaction. The relayer endpoint accepts
// the prepared call and sponsors gas; we get back the transaction hash.
func (c *Client) ClaimWinnings(ctx context.Context, gameID, playerAddress string, amount currency.Amount) (string, error) {
	log.Printf("[CLAIM] Submitting claim: game=%s player=%s amount=%s", gameID, playerAddress, amount)

	result, err := c.call(ctx, "relay_sendTransaction", map[string]interface{}{
		"to":     c.contract,
		"method": "claimWinnings",
		"args":   []string{gameID, playerAddress, amount.String()},
	})
	if err != nil {
		return "", err
	}

	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", fmt.Errorf("failed to decode tx hash: %w", err)
	}
	log.Printf("[CLAIM] Claim submitted: game=%s tx=%s", gameID, txHash)
	return txHash, nil
}
