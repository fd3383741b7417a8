package valueledger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-marketplace/internal/adapter"
	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/logger"
	"github.com/feral-file/ff-marketplace/internal/mocks"
	"github.com/feral-file/ff-marketplace/internal/valueledger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func newClient(url string) *valueledger.Client {
	httpClient := adapter.NewHTTPClientWithBackOff(5*time.Second, func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	})
	return valueledger.NewClient(url+"/", "secret", httpClient, adapter.NewJSON())
}

func TestClient_GetTransfer(t *testing.T) {
	ctx := context.Background()
	want := domain.Transfer{
		Kind:   domain.TransferKindSend,
		From:   domain.NewAccountID("bob", nil),
		To:     domain.NewAccountID("proxy", nil),
		Amount: 1_000_000,
		Fee:    domain.TX_FEE,
		Memo:   3,
	}

	t.Run("decodes a transfer", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/transfers/42", r.URL.Path)
			assert.Equal(t, "ApiKey secret", r.Header.Get("Authorization"))
			require.NoError(t, json.NewEncoder(w).Encode(want))
		}))
		defer server.Close()

		got, err := newClient(server.URL).GetTransfer(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("server errors are retried then reported as call failures", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := newClient(server.URL).GetTransfer(ctx, 42)
		assert.True(t, domain.IsRemoteErrorKind(err, domain.RemoteErrorCall))
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("recovers after a transient failure", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			require.NoError(t, json.NewEncoder(w).Encode(want))
		}))
		defer server.Close()

		got, err := newClient(server.URL).GetTransfer(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("unknown block is a rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"not_found","message":"block not found"}}`))
		}))
		defer server.Close()

		_, err := newClient(server.URL).GetTransfer(ctx, 42)
		assert.True(t, domain.IsRemoteErrorKind(err, domain.RemoteErrorRejected))
		assert.Contains(t, err.Error(), "block not found")
	})

	t.Run("malformed body is a decode failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"kind":"send","from":"zz"}`))
		}))
		defer server.Close()

		_, err := newClient(server.URL).GetTransfer(ctx, 42)
		assert.True(t, domain.IsRemoteErrorKind(err, domain.RemoteErrorDecode))
	})
}

func TestClient_SendValue(t *testing.T) {
	ctx := context.Background()
	args := domain.SendArgs{
		To:     domain.NewAccountID("alice", nil),
		Amount: 950_000,
		Fee:    domain.TX_FEE,
		Memo:   7,
	}

	t.Run("returns the block height", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/send", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var got domain.SendArgs
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, args, got)

			_, _ = w.Write([]byte(`{"block_height":77}`))
		}))
		defer server.Close()

		height, err := newClient(server.URL).SendValue(ctx, args)
		require.NoError(t, err)
		assert.Equal(t, uint64(77), height)
	})

	t.Run("payments are never retried", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := newClient(server.URL).SendValue(ctx, args)
		assert.True(t, domain.IsRemoteErrorKind(err, domain.RemoteErrorCall))
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("insufficient funds is a rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":{"code":"insufficient_funds","message":"balance too low"}}`))
		}))
		defer server.Close()

		_, err := newClient(server.URL).SendValue(ctx, args)
		assert.True(t, domain.IsRemoteErrorKind(err, domain.RemoteErrorRejected))
	})

	t.Run("missing block height is a decode failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := newClient(server.URL).SendValue(ctx, args)
		assert.True(t, domain.IsRemoteErrorKind(err, domain.RemoteErrorDecode))
	})

	t.Run("unreachable ledger is a call failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := newClient(url).SendValue(ctx, args)
		assert.True(t, domain.IsRemoteErrorKind(err, domain.RemoteErrorCall))
	})
}

func TestClient_RequestShapes(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	client := valueledger.NewClient("http://ledger.internal/", "", httpClient, adapter.NewJSON())

	t.Run("reads go through the retrying GET without credentials", func(t *testing.T) {
		httpClient.EXPECT().
			Get(gomock.Any(), "http://ledger.internal/transfers/5", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, header http.Header) (*adapter.Response, error) {
				assert.Empty(t, header.Get("Authorization"))
				return &adapter.Response{StatusCode: http.StatusOK, Body: []byte(`{"kind":"burn","amount":1}`)}, nil
			})

		transfer, err := client.GetTransfer(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, domain.TransferKindBurn, transfer.Kind)
	})

	t.Run("payments go through a single POST", func(t *testing.T) {
		httpClient.EXPECT().
			Do(gomock.Any(), http.MethodPost, "http://ledger.internal/send", gomock.Any(), gomock.Any()).
			Return(&adapter.Response{StatusCode: http.StatusOK, Body: []byte(`{"block_height":9}`)}, nil)

		height, err := client.SendValue(ctx, domain.SendArgs{Amount: 1, Fee: domain.TX_FEE})
		require.NoError(t, err)
		assert.Equal(t, uint64(9), height)
	})
}
