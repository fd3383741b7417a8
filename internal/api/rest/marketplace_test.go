package rest_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-marketplace/internal/api/rest"
	"github.com/feral-file/ff-marketplace/internal/api/shared/dto"
	"github.com/feral-file/ff-marketplace/internal/audit"
	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/marketplace"
	"github.com/feral-file/ff-marketplace/internal/mocks"
	"github.com/feral-file/ff-marketplace/internal/ownership"
	"github.com/feral-file/ff-marketplace/internal/store"
)

const (
	alice domain.Principal = "alice"
	bob   domain.Principal = "bob"
	proxy domain.Principal = "proxy"
)

type testMarketplaceAPI struct {
	ctrl    *gomock.Controller
	store   *mocks.MockStore
	service *marketplace.Service
	router  *gin.Engine
}

func setupMarketplaceAPI(t *testing.T) *testMarketplaceAPI {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)).AnyTimes()

	svc, err := marketplace.NewService(
		ownership.Collection{Name: "Giga", Symbol: "GIGA", MaxSupply: 10},
		marketplace.Config{
			PayoutMode:     marketplace.PayoutModeProxy,
			Transacting:    true,
			Notifier:       proxy,
			CreatorAccount: "creator",
			CreatorFeeBP:   domain.DEFAULT_CREATOR_FEE_BP,
		},
		audit.NewLedger(0, nil),
		mocks.NewMockPayer(ctrl),
		nil,
		clock,
	)
	require.NoError(t, err)

	api := &testMarketplaceAPI{
		ctrl:    ctrl,
		store:   mocks.NewMockStore(ctrl),
		service: svc,
		router:  gin.New(),
	}
	handler := rest.NewMarketplaceHandler(svc, api.store, "admin")
	rest.SetupMarketplaceRoutes(api.router, handler, authConfig(t), newSigner(), proxy)

	return api
}

func (api *testMarketplaceAPI) mint(t *testing.T, owner domain.Principal, id domain.TokenID) {
	t.Helper()
	w := do(t, api.router, request{
		method: http.MethodPost,
		path:   "/api/v1/admin/tokens",
		auth:   "ApiKey " + testAPIKey,
		body:   dto.MintRequest{Owner: owner, TokenID: id, Name: "token"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestMarketplaceAPI_PurchaseFlow(t *testing.T) {
	api := setupMarketplaceAPI(t)
	defer api.ctrl.Finish()

	api.mint(t, alice, 1)

	w := do(t, api.router, request{method: http.MethodGet, path: "/api/v1/tokens/1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "token", decode[domain.Token](t, w).Name)

	w = do(t, api.router, request{
		method: http.MethodPost,
		path:   "/api/v1/listings",
		auth:   bearer(t, string(alice)),
		body:   dto.ListRequest{TokenID: 1, Price: 2_000_000},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, api.router, request{method: http.MethodGet, path: "/api/v1/listings"})
	require.Equal(t, http.StatusOK, w.Code)
	listings := decode[dto.ListResponse[domain.Listing]](t, w)
	assert.Equal(t, uint64(1), listings.Total)
	assert.Equal(t, alice, listings.Items[0].Seller)

	w = do(t, api.router, request{
		method: http.MethodPost,
		path:   "/api/v1/transaction-notification",
		signed: true,
		body: domain.TransferNotification{
			From:        bob,
			To:          "marketplace",
			BlockHeight: 42,
			Amount:      2_000_000,
			Memo:        1,
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[domain.PurchaseResponse](t, w)
	assert.Equal(t, domain.PurchaseResponse{Seller: alice, CreatorFeeBP: domain.DEFAULT_CREATOR_FEE_BP}, resp)
	assert.JSONEq(t, `{"seller":"alice","creator_fee_bp":2500}`, w.Body.String())

	w = do(t, api.router, request{method: http.MethodGet, path: "/api/v1/tokens/1/owner"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, bob, decode[dto.OwnerResponse](t, w).Owner)

	w = do(t, api.router, request{method: http.MethodGet, path: "/api/v1/owners/bob/tokens"})
	assert.Equal(t, []domain.TokenID{1}, decode[dto.OwnerTokensResponse](t, w).Tokens)

	w = do(t, api.router, request{method: http.MethodGet, path: "/api/v1/stats"})
	assert.Equal(t, uint64(1), decode[domain.MarketStats](t, w).SalesCount)

	w = do(t, api.router, request{method: http.MethodGet, path: "/api/v1/ledger/tokens/1"})
	history := decode[[]domain.AuditRecord](t, w)
	require.Len(t, history, 3)
	assert.Equal(t, domain.OperationPurchase, history[2].Op)

	w = do(t, api.router, request{method: http.MethodGet, path: "/api/v1/ledger/records?limit=1&offset=1"})
	records := decode[dto.ListResponse[domain.AuditRecord]](t, w)
	assert.Equal(t, uint64(3), records.Total)
	require.Len(t, records.Items, 1)
	assert.Equal(t, domain.OperationList, records.Items[0].Op)

	w = do(t, api.router, request{method: http.MethodGet, path: "/api/v1/supply"})
	supply := decode[dto.SupplyResponse](t, w)
	assert.Equal(t, uint32(1), supply.TotalSupply)
	assert.Equal(t, 0, supply.ListingCount)
}

func TestMarketplaceAPI_Authentication(t *testing.T) {
	api := setupMarketplaceAPI(t)
	defer api.ctrl.Finish()

	tests := []struct {
		name string
		req  request
	}{
		{"list without credentials", request{method: http.MethodPost, path: "/api/v1/listings", body: dto.ListRequest{TokenID: 1, Price: 2_000_000}}},
		{"list with an API key", request{method: http.MethodPost, path: "/api/v1/listings", auth: "ApiKey " + testAPIKey, body: dto.ListRequest{TokenID: 1, Price: 2_000_000}}},
		{"list with a forged token", request{method: http.MethodPost, path: "/api/v1/listings", auth: "Bearer not.a.jwt", body: dto.ListRequest{TokenID: 1, Price: 2_000_000}}},
		{"mint with a JWT", request{method: http.MethodPost, path: "/api/v1/admin/tokens", auth: bearer(t, "alice"), body: dto.MintRequest{Owner: alice, TokenID: 1}}},
		{"mint with a wrong API key", request{method: http.MethodPost, path: "/api/v1/admin/tokens", auth: "ApiKey nope", body: dto.MintRequest{Owner: alice, TokenID: 1}}},
		{"unsigned notification", request{method: http.MethodPost, path: "/api/v1/transaction-notification", body: domain.TransferNotification{From: bob, Memo: 1}}},
		{"notification with a JWT", request{method: http.MethodPost, path: "/api/v1/transaction-notification", auth: bearer(t, string(proxy)), body: domain.TransferNotification{From: bob, Memo: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, api.router, tt.req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "unauthorized", decode[errorBody](t, w).Error.Code)
		})
	}
}

func TestMarketplaceAPI_Errors(t *testing.T) {
	api := setupMarketplaceAPI(t)
	defer api.ctrl.Finish()

	api.mint(t, alice, 1)

	tests := []struct {
		name   string
		req    request
		status int
		code   string
	}{
		{"token not minted", request{method: http.MethodGet, path: "/api/v1/tokens/5"}, http.StatusNotFound, "not_found"},
		{"token id not a number", request{method: http.MethodGet, path: "/api/v1/tokens/abc"}, http.StatusBadRequest, "bad_request"},
		{"owner of a token outside the collection", request{method: http.MethodGet, path: "/api/v1/tokens/11/owner"}, http.StatusBadRequest, "validation_failed"},
		{"listing missing", request{method: http.MethodGet, path: "/api/v1/listings/1"}, http.StatusNotFound, "not_found"},
		{"record missing", request{method: http.MethodGet, path: "/api/v1/ledger/records/9"}, http.StatusNotFound, "not_found"},
		{"price too low", request{method: http.MethodPost, path: "/api/v1/listings", auth: bearer(t, "alice"), body: dto.ListRequest{TokenID: 1, Price: 1}}, http.StatusBadRequest, "validation_failed"},
		{"transfer by a non owner", request{method: http.MethodPost, path: "/api/v1/tokens/1/transfer", auth: bearer(t, "bob"), body: dto.TransferRequest{To: bob}}, http.StatusForbidden, "forbidden"},
		{"transfer without recipient", request{method: http.MethodPost, path: "/api/v1/tokens/1/transfer", auth: bearer(t, "alice"), body: dto.TransferRequest{}}, http.StatusBadRequest, "validation_failed"},
		{"mint twice", request{method: http.MethodPost, path: "/api/v1/admin/tokens", auth: "ApiKey " + testAPIKey, body: dto.MintRequest{Owner: alice, TokenID: 1}}, http.StatusBadRequest, "validation_failed"},
		{"purchase of an unlisted token", request{method: http.MethodPost, path: "/api/v1/transaction-notification", signed: true, body: domain.TransferNotification{From: bob, Amount: 2_000_000, Memo: 1}}, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, api.router, tt.req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode[errorBody](t, w).Error.Code)
		})
	}

	t.Run("purchase while transacting is disabled", func(t *testing.T) {
		api.service.SetTransacting(false)
		defer api.service.SetTransacting(true)

		w := do(t, api.router, request{
			method: http.MethodPost,
			path:   "/api/v1/transaction-notification",
			signed: true,
			body:   domain.TransferNotification{From: bob, Amount: 2_000_000, Memo: 1},
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, domain.ErrTransactingDisabled.Error(), decode[errorBody](t, w).Error.Message)
	})
}

func TestMarketplaceAPI_TransferAndBurn(t *testing.T) {
	api := setupMarketplaceAPI(t)
	defer api.ctrl.Finish()

	api.mint(t, alice, 1)

	w := do(t, api.router, request{
		method: http.MethodPost,
		path:   "/api/v1/tokens/1/transfer",
		auth:   bearer(t, "alice"),
		body:   dto.TransferRequest{To: bob},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint64(1), decode[dto.IndexResponse](t, w).Index)

	w = do(t, api.router, request{method: http.MethodPost, path: "/api/v1/tokens/1/burn", auth: bearer(t, "bob")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, api.router, request{method: http.MethodGet, path: "/api/v1/tokens/1/owner"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarketplaceAPI_UpdateConfig(t *testing.T) {
	api := setupMarketplaceAPI(t)
	defer api.ctrl.Finish()

	t.Run("applies and persists", func(t *testing.T) {
		api.store.EXPECT().
			SetSetting(gomock.Any(), store.KeyMarketplaceConfig, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, v interface{}) error {
				cfg := v.(marketplace.Config)
				assert.False(t, cfg.Transacting)
				assert.Equal(t, uint64(5_000), cfg.MarketFeeBP)
				return nil
			})

		transacting := false
		marketFee := uint64(5_000)
		w := do(t, api.router, request{
			method: http.MethodPut,
			path:   "/api/v1/admin/config",
			auth:   "ApiKey " + testAPIKey,
			body:   dto.MarketplaceConfigRequest{Transacting: &transacting, MarketFeeBP: &marketFee},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.False(t, api.service.Config().Transacting)
	})

	t.Run("fee rates that consume the price are rejected", func(t *testing.T) {
		creatorFee := domain.FEE_DENOMINATOR
		w := do(t, api.router, request{
			method: http.MethodPut,
			path:   "/api/v1/admin/config",
			auth:   "ApiKey " + testAPIKey,
			body:   dto.MarketplaceConfigRequest{CreatorFeeBP: &creatorFee},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, domain.DEFAULT_CREATOR_FEE_BP, api.service.Config().CreatorFeeBP)
	})

	t.Run("empty update", func(t *testing.T) {
		w := do(t, api.router, request{
			method: http.MethodPut,
			path:   "/api/v1/admin/config",
			auth:   "ApiKey " + testAPIKey,
			body:   dto.MarketplaceConfigRequest{},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("persist failure", func(t *testing.T) {
		api.store.EXPECT().SetSetting(gomock.Any(), store.KeyMarketplaceConfig, gomock.Any()).Return(errors.New("db down"))

		transacting := true
		w := do(t, api.router, request{
			method: http.MethodPut,
			path:   "/api/v1/admin/config",
			auth:   "ApiKey " + testAPIKey,
			body:   dto.MarketplaceConfigRequest{Transacting: &transacting},
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
