package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emrecanguldogan/HealthChain/pkg/config"
	"github.com/emrecanguldogan/HealthChain/pkg/logger"
	"github.com/emrecanguldogan/HealthChain/pkg/monitoring"
	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

// Client issues contract calls against the remote ledger node. The ledger
// is the authoritative source of truth for tokens and grants; the client
// only translates intents into requests and interprets responses.
type Client struct {
	config     *config.LedgerConfig
	logger     *logger.Logger
	httpClient *http.Client
	adapter    contractAdapter
}

// NewClient creates a new ledger client for the configured contract
// version and network.
func NewClient(cfg *config.LedgerConfig, log *logger.Logger) (*Client, error) {
	adapter, err := adapterFor(cfg.ContractName)
	if err != nil {
		return nil, err
	}

	return &Client{
		config: cfg,
		logger: log,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		adapter: adapter,
	}, nil
}

// MintAccessToken submits a mint transaction for the identity. The
// contract enforces at-most-one-token-per-identity; a duplicate mint is
// rejected with AlreadyHasToken.
func (c *Client) MintAccessToken(ctx context.Context, walletAddress string) (*types.TransactionHandle, error) {
	return c.submit(ctx, walletAddress, c.adapter.Mint())
}

// GrantAccess submits a grant transaction. The patient must hold the
// token; the contract rejects the call with NotTokenOwner otherwise.
func (c *Client) GrantAccess(ctx context.Context, patientAddress, doctorAddress string, tokenID int64, permissions []types.Permission) (*types.TransactionHandle, error) {
	return c.submit(ctx, patientAddress, c.adapter.Grant(doctorAddress, tokenID, permissions))
}

// RevokeAccess submits a revoke transaction
func (c *Client) RevokeAccess(ctx context.Context, patientAddress, doctorAddress string) (*types.TransactionHandle, error) {
	return c.submit(ctx, patientAddress, c.adapter.Revoke(doctorAddress))
}

// AssignRole submits a role assignment transaction
func (c *Client) AssignRole(ctx context.Context, walletAddress string, role types.Role) (*types.TransactionHandle, error) {
	return c.submit(ctx, walletAddress, c.adapter.AssignRole(role))
}

// HasAccessToken reports whether the identity owns an access token.
// Read-only, no side effects, safe to call on the polling cadence.
func (c *Client) HasAccessToken(ctx context.Context, walletAddress string) (bool, error) {
	result, err := c.callReadOnly(ctx, walletAddress, c.adapter.HasAccessToken(walletAddress))
	if err != nil {
		return false, err
	}
	ok, err := decodeBool(result)
	if err != nil {
		return false, types.NewLedgerError("unexpected has-access-token response", err)
	}
	return ok, nil
}

// GetAccessTokenID returns the identity's token ID, with present=false
// when no token exists.
func (c *Client) GetAccessTokenID(ctx context.Context, walletAddress string) (int64, bool, error) {
	result, err := c.callReadOnly(ctx, walletAddress, c.adapter.GetTokenID(walletAddress))
	if err != nil {
		return 0, false, err
	}
	id, present, err := decodeOptionalUint(result)
	if err != nil {
		return 0, false, types.NewLedgerError("unexpected get-token-id response", err)
	}
	return id, present, nil
}

// HasAccess is the authoritative read-only authorization check
func (c *Client) HasAccess(ctx context.Context, patientAddress, doctorAddress string) (bool, error) {
	result, err := c.callReadOnly(ctx, patientAddress, c.adapter.HasAccess(patientAddress, doctorAddress))
	if err != nil {
		return false, err
	}
	ok, err := decodeBool(result)
	if err != nil {
		return false, types.NewLedgerError("unexpected has-access response", err)
	}
	return ok, nil
}

// GetTransactionStatus resolves the current state of a submitted
// transaction from the node's transaction endpoint.
func (c *Client) GetTransactionStatus(ctx context.Context, txID string) (types.TxStatus, error) {
	url := fmt.Sprintf("%s/extended/v1/tx/%s", c.config.NodeURL, txID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", types.NewLedgerError("failed to build transaction status request", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", types.NewLedgerError("ledger node unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// The node has not seen the transaction yet; still in flight
		return types.TxStatusSubmitted, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", types.NewLedgerError(fmt.Sprintf("transaction status request failed with %d", resp.StatusCode), nil)
	}

	var payload struct {
		TxStatus string `json:"tx_status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", types.NewLedgerError("failed to parse transaction status response", err)
	}

	switch payload.TxStatus {
	case "success":
		return types.TxStatusConfirmed, nil
	case "pending":
		return types.TxStatusPending, nil
	case "abort_by_response", "abort_by_post_condition", "dropped_replace_by_fee", "dropped_stale_garbage_collect":
		return types.TxStatusRejected, nil
	default:
		return types.TxStatusPending, nil
	}
}

// ExplorerURL builds the user-facing transaction URL
func (c *Client) ExplorerURL(txID string) string {
	return fmt.Sprintf("%s/txid/%s?chain=%s", c.config.ExplorerBaseURL, txID, c.config.Network)
}

// submit issues a state-changing contract call and returns its handle.
// The handle is asynchronous: the transaction has only entered the
// mempool, and the final outcome must be polled.
func (c *Client) submit(ctx context.Context, senderAddress string, call contractCall) (*types.TransactionHandle, error) {
	start := time.Now()

	body, err := json.Marshal(map[string]interface{}{
		"contract_id":   c.config.ContractID(),
		"function_name": call.Function,
		"function_args": call.Args,
		"network":       c.config.Network,
		"sender":        senderAddress,
	})
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to marshal contract call", err)
	}

	url := fmt.Sprintf("%s/v2/contracts/call", c.config.NodeURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewLedgerError("failed to build contract call request", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		monitoring.RecordLedgerTransaction(call.Function, "unreachable")
		c.logger.LedgerTransaction(ctx, c.config.ContractID(), call.Function, false, "", map[string]interface{}{"error": err.Error()})
		return nil, types.NewLedgerError("ledger node unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewLedgerError("failed to read contract call response", err)
	}

	var payload struct {
		TxID   string `json:"txid"`
		Error  string `json:"error"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil && resp.StatusCode == http.StatusOK {
		return nil, types.NewLedgerError("failed to parse contract call response", err)
	}

	if resp.StatusCode != http.StatusOK || payload.Error != "" {
		mapped := c.mapSubmissionError(resp.StatusCode, payload.Error, payload.Reason)
		monitoring.RecordLedgerTransaction(call.Function, "rejected")
		c.logger.LedgerTransaction(ctx, c.config.ContractID(), call.Function, false, "", map[string]interface{}{
			"status": resp.StatusCode,
			"error":  payload.Error,
			"reason": payload.Reason,
		})
		return nil, mapped
	}

	handle := &types.TransactionHandle{
		TxID:        payload.TxID,
		Contract:    c.config.ContractID(),
		Function:    call.Function,
		Status:      types.TxStatusSubmitted,
		SubmittedAt: time.Now(),
		ExplorerURL: c.ExplorerURL(payload.TxID),
	}

	monitoring.RecordLedgerTransaction(call.Function, "submitted")
	monitoring.RecordLedgerTransactionDuration(call.Function, time.Since(start).Seconds())
	c.logger.LedgerTransaction(ctx, c.config.ContractID(), call.Function, true, payload.TxID, nil)

	return handle, nil
}

// callReadOnly issues a read-only contract call and returns the raw
// Clarity result.
func (c *Client) callReadOnly(ctx context.Context, senderAddress string, call contractCall) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"sender":    senderAddress,
		"arguments": call.Args,
	})
	if err != nil {
		return "", types.NewInternalError(types.ErrCodeInternalError, "failed to marshal read-only call", err)
	}

	url := fmt.Sprintf("%s/v2/contracts/call-read/%s/%s/%s",
		c.config.NodeURL, c.config.ContractAddress(), c.config.ContractName, call.Function)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", types.NewLedgerError("failed to build read-only call request", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", types.NewLedgerError("ledger node unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", types.NewLedgerError(fmt.Sprintf("read-only call %s failed with %d", call.Function, resp.StatusCode), nil)
	}

	var payload struct {
		Okay   bool   `json:"okay"`
		Result string `json:"result"`
		Cause  string `json:"cause"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", types.NewLedgerError("failed to parse read-only call response", err)
	}

	if !payload.Okay {
		return "", types.NewLedgerError(fmt.Sprintf("read-only call %s rejected: %s", call.Function, payload.Cause), nil)
	}

	return payload.Result, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("x-api-key", c.config.APIKey)
	}
}

// mapSubmissionError classifies ledger rejections into the recoverable
// error kinds callers act on. Unrecognized failures stay generic.
func (c *Client) mapSubmissionError(statusCode int, errMsg, reason string) error {
	combined := strings.ToLower(errMsg + " " + reason)

	switch {
	case strings.Contains(combined, "cancelled") || strings.Contains(combined, "canceled"):
		return types.NewCancelledError("transaction signing was cancelled by the user")
	case strings.Contains(combined, "already has token") || strings.Contains(combined, "err u409"):
		return &types.AccessError{
			Type:    types.ErrorTypeConflict,
			Code:    types.ErrCodeAlreadyHasToken,
			Message: "identity already owns an access token",
		}
	case strings.Contains(combined, "not token owner") || strings.Contains(combined, "err u403"):
		return &types.AccessError{
			Type:    types.ErrorTypeAuthorization,
			Code:    types.ErrCodeNotTokenOwner,
			Message: "sender does not own the access token",
		}
	default:
		return types.NewLedgerError(fmt.Sprintf("contract call rejected with status %d: %s %s", statusCode, errMsg, reason), nil)
	}
}
