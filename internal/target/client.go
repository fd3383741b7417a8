package target

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/feral-file/ff-marketplace/internal/adapter"
	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/signature"
)

// Client delivers signed transfer notifications to a downstream target
type Client struct {
	http   adapter.HTTPClient
	json   adapter.JSON
	signer *signature.Signer
}

// NewClient creates a target client
func NewClient(httpClient adapter.HTTPClient, json adapter.JSON, signer *signature.Signer) *Client {
	return &Client{
		http:   httpClient,
		json:   json,
		signer: signer,
	}
}

type errorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	} `json:"error"`
}

// NotifyPurchase posts n to endpoint. The request is sent once.
//
// Failures are classified for compensation: no response or a server error
// is a call failure, an unreadable success body or error body is a decode
// failure, and a readable client error is a rejection.
func (c *Client) NotifyPurchase(ctx context.Context, endpoint string, n domain.TransferNotification) (domain.PurchaseResponse, error) {
	body, err := c.json.Marshal(n)
	if err != nil {
		return domain.PurchaseResponse{}, fmt.Errorf("failed to encode notification: %w", err)
	}

	sig, ts, err := c.signer.Sign(body)
	if err != nil {
		return domain.PurchaseResponse{}, fmt.Errorf("failed to sign notification: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set(signature.HEADER_SIGNATURE, sig)
	header.Set(signature.HEADER_TIMESTAMP, strconv.FormatInt(ts, 10))

	resp, err := c.http.Do(ctx, http.MethodPost, endpoint, header, body)
	if err != nil {
		return domain.PurchaseResponse{}, domain.NewRemoteError(domain.RemoteErrorCall, err)
	}

	switch {
	case resp.IsSuccess():
		var result domain.PurchaseResponse
		if err := c.json.Unmarshal(resp.Body, &result); err != nil {
			return domain.PurchaseResponse{}, domain.NewRemoteError(domain.RemoteErrorDecode, fmt.Errorf("failed to decode purchase response: %w", err))
		}
		return result, nil

	case resp.IsClientError():
		var rejection errorResponse
		if err := c.json.Unmarshal(resp.Body, &rejection); err != nil || rejection.Error == nil {
			return domain.PurchaseResponse{}, domain.NewRemoteError(domain.RemoteErrorDecode, fmt.Errorf("unreadable rejection with status %d", resp.StatusCode))
		}
		return domain.PurchaseResponse{}, domain.NewRemoteError(domain.RemoteErrorRejected, errors.New(rejection.Error.Message))

	default:
		return domain.PurchaseResponse{}, domain.NewRemoteError(domain.RemoteErrorCall, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}
