package valueledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace/internal/adapter"
	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/logger"
)

// Client talks to the value ledger over its JSON API.
//
// Transfers are read with GET /transfers/{height}; payments are issued with
// POST /send and are never retried.
type Client struct {
	baseURL string
	apiKey  string
	http    adapter.HTTPClient
	json    adapter.JSON
}

// NewClient creates a value ledger client for baseURL
func NewClient(baseURL, apiKey string, httpClient adapter.HTTPClient, json adapter.JSON) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		json:    json,
	}
}

type sendResponse struct {
	BlockHeight *uint64 `json:"block_height"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GetTransfer fetches the transfer recorded at height
func (c *Client) GetTransfer(ctx context.Context, height uint64) (domain.Transfer, error) {
	url := fmt.Sprintf("%s/transfers/%d", c.baseURL, height)

	resp, err := c.http.Get(ctx, url, c.header())
	if err != nil {
		return domain.Transfer{}, domain.NewRemoteError(domain.RemoteErrorCall, err)
	}
	if !resp.IsSuccess() {
		return domain.Transfer{}, c.statusError(resp)
	}

	var transfer domain.Transfer
	if err := c.json.Unmarshal(resp.Body, &transfer); err != nil {
		return domain.Transfer{}, domain.NewRemoteError(domain.RemoteErrorDecode, fmt.Errorf("failed to decode transfer %d: %w", height, err))
	}

	return transfer, nil
}

// SendValue issues a payment and returns the block height it was recorded at
func (c *Client) SendValue(ctx context.Context, args domain.SendArgs) (uint64, error) {
	body, err := c.json.Marshal(args)
	if err != nil {
		return 0, fmt.Errorf("failed to encode send args: %w", err)
	}

	header := c.header()
	header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(ctx, http.MethodPost, c.baseURL+"/send", header, body)
	if err != nil {
		return 0, domain.NewRemoteError(domain.RemoteErrorCall, err)
	}
	if !resp.IsSuccess() {
		return 0, c.statusError(resp)
	}

	var result sendResponse
	if err := c.json.Unmarshal(resp.Body, &result); err != nil {
		return 0, domain.NewRemoteError(domain.RemoteErrorDecode, fmt.Errorf("failed to decode send response: %w", err))
	}
	if result.BlockHeight == nil {
		return 0, domain.NewRemoteError(domain.RemoteErrorDecode, errors.New("send response without block height"))
	}

	logger.DebugCtx(ctx, "Value sent",
		zap.String("to", args.To.String()),
		zap.Uint64("amount", args.Amount),
		zap.Uint64("blockHeight", *result.BlockHeight))

	return *result.BlockHeight, nil
}

func (c *Client) header() http.Header {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if c.apiKey != "" {
		header.Set("Authorization", "ApiKey "+c.apiKey)
	}
	return header
}

// statusError maps a non 2xx response. Client errors are rejections by the
// ledger, anything else means the call did not complete.
func (c *Client) statusError(resp *adapter.Response) error {
	if !resp.IsClientError() {
		return domain.NewRemoteError(domain.RemoteErrorCall, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body errorResponse
	if err := c.json.Unmarshal(resp.Body, &body); err != nil || body.Error.Message == "" {
		return domain.NewRemoteError(domain.RemoteErrorRejected, fmt.Errorf("status %d", resp.StatusCode))
	}

	return domain.NewRemoteError(domain.RemoteErrorRejected, fmt.Errorf("status %d: %s: %s", resp.StatusCode, body.Error.Code, body.Error.Message))
}
