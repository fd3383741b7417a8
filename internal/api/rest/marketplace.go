package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace/internal/api/middleware"
	"github.com/feral-file/ff-marketplace/internal/api/shared/dto"
	"github.com/feral-file/ff-marketplace/internal/audit"
	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/logger"
	"github.com/feral-file/ff-marketplace/internal/marketplace"
	"github.com/feral-file/ff-marketplace/internal/store"
)

// MarketplaceService is the marketplace state served over REST
type MarketplaceService interface {
	Mint(ctx context.Context, caller, owner domain.Principal, token domain.Token) (uint64, error)
	Transfer(ctx context.Context, from, to domain.Principal, id domain.TokenID) (uint64, error)
	Burn(ctx context.Context, caller domain.Principal, id domain.TokenID) (uint64, error)
	List(ctx context.Context, caller domain.Principal, id domain.TokenID, price uint64) (uint64, error)
	Delist(ctx context.Context, caller domain.Principal, id domain.TokenID) (uint64, error)
	Purchase(ctx context.Context, caller domain.Principal, n domain.TransferNotification) (*marketplace.PurchaseReceipt, error)

	Config() marketplace.Config
	SetTransacting(enabled bool)
	SetNotifier(p domain.Principal)
	SetCreatorAccount(p domain.Principal)
	SetCreatorFee(bp uint64) error
	SetMarketFee(bp uint64) error

	Ledger() *audit.Ledger
	Listings() []domain.Listing
	Listing(id domain.TokenID) (domain.Listing, error)
	ListingCount() int
	Stats() domain.MarketStats
	Payments(offset, limit uint64) []domain.PaymentLogEntry
	PaymentCount() int
	Owner(id domain.TokenID) (domain.Principal, error)
	OwnerCount() int
	TokensOf(p domain.Principal) []domain.TokenID
	Token(id domain.TokenID) (domain.Token, error)
	Supply() domain.Supply
}

// MarketplaceHandler defines the REST handlers of the marketplace
type MarketplaceHandler interface {
	// GET /api/v1/tokens/:id
	GetToken(c *gin.Context)
	// GET /api/v1/tokens/:id/owner
	GetOwner(c *gin.Context)
	// GET /api/v1/owners/:principal/tokens
	GetOwnerTokens(c *gin.Context)
	// GET /api/v1/listings?limit=<limit>&offset=<offset>
	ListListings(c *gin.Context)
	// GET /api/v1/listings/:id
	GetListing(c *gin.Context)
	// GET /api/v1/stats
	GetStats(c *gin.Context)
	// GET /api/v1/supply
	GetSupply(c *gin.Context)
	// GET /api/v1/config
	GetConfig(c *gin.Context)
	// GET /api/v1/ledger/records?limit=<limit>&offset=<offset>
	ListRecords(c *gin.Context)
	// GET /api/v1/ledger/records/:index
	GetRecord(c *gin.Context)
	// GET /api/v1/ledger/tokens/:id
	GetTokenHistory(c *gin.Context)
	// GET /api/v1/payments?limit=<limit>&offset=<offset>
	ListPayments(c *gin.Context)

	// POST /api/v1/tokens/:id/transfer (JWT)
	TransferToken(c *gin.Context)
	// POST /api/v1/tokens/:id/burn (JWT)
	BurnToken(c *gin.Context)
	// POST /api/v1/listings (JWT)
	CreateListing(c *gin.Context)
	// DELETE /api/v1/listings/:id (JWT)
	DeleteListing(c *gin.Context)

	// POST /api/v1/transaction-notification (signed)
	TransactionNotification(c *gin.Context)

	// POST /api/v1/admin/tokens (API key)
	MintToken(c *gin.Context)
	// PUT /api/v1/admin/config (API key)
	UpdateConfig(c *gin.Context)

	// GET /health
	HealthCheck(c *gin.Context)
}

type marketplaceHandler struct {
	service  MarketplaceService
	settings store.SettingsStore
	admin    domain.Principal
}

// NewMarketplaceHandler creates the marketplace REST handler. Admin
// operations are recorded as admin. Config updates are persisted to
// settings when it is not nil.
func NewMarketplaceHandler(service MarketplaceService, settings store.SettingsStore, admin domain.Principal) MarketplaceHandler {
	return &marketplaceHandler{
		service:  service,
		settings: settings,
		admin:    admin,
	}
}

func (h *marketplaceHandler) GetToken(c *gin.Context) {
	id, err := parseTokenID(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	token, err := h.service.Token(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}

func (h *marketplaceHandler) GetOwner(c *gin.Context) {
	id, err := parseTokenID(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	owner, err := h.service.Owner(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OwnerResponse{TokenID: id, Owner: owner})
}

func (h *marketplaceHandler) GetOwnerTokens(c *gin.Context) {
	owner := domain.Principal(c.Param("principal"))
	if owner.IsZero() {
		respondBadRequest(c, "Principal is required")
		return
	}

	tokens := h.service.TokensOf(owner)
	if tokens == nil {
		tokens = []domain.TokenID{}
	}

	c.JSON(http.StatusOK, dto.OwnerTokensResponse{Owner: owner, Tokens: tokens})
}

func (h *marketplaceHandler) ListListings(c *gin.Context) {
	params, err := ParsePageQuery(c)
	if err != nil {
		respondValidationError(c, err)
		return
	}

	listings := h.service.Listings()
	c.JSON(http.StatusOK, dto.ListResponse[domain.Listing]{
		Items:  domain.Page(listings, params.Offset, params.Limit),
		Offset: params.Offset,
		Limit:  params.Limit,
		Total:  uint64(len(listings)),
	})
}

func (h *marketplaceHandler) GetListing(c *gin.Context) {
	id, err := parseTokenID(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	listing, err := h.service.Listing(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

func (h *marketplaceHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Stats())
}

func (h *marketplaceHandler) GetSupply(c *gin.Context) {
	cfg := h.service.Config()
	c.JSON(http.StatusOK, dto.SupplyResponse{
		Supply:         h.service.Supply(),
		CreatorAccount: cfg.CreatorAccount,
		CreatorFeeBP:   cfg.CreatorFeeBP,
		OwnerCount:     h.service.OwnerCount(),
		ListingCount:   h.service.ListingCount(),
	})
}

func (h *marketplaceHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Config())
}

func (h *marketplaceHandler) ListRecords(c *gin.Context) {
	params, err := ParsePageQuery(c)
	if err != nil {
		respondValidationError(c, err)
		return
	}

	ledger := h.service.Ledger()
	c.JSON(http.StatusOK, dto.ListResponse[domain.AuditRecord]{
		Items:  ledger.Records(params.Offset, params.Limit),
		Offset: params.Offset,
		Limit:  params.Limit,
		Total:  ledger.Count(),
	})
}

func (h *marketplaceHandler) GetRecord(c *gin.Context) {
	index, err := parseUint64(c, "index")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	record, err := h.service.Ledger().Get(index)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *marketplaceHandler) GetTokenHistory(c *gin.Context) {
	id, err := parseTokenID(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	history := h.service.Ledger().ByToken(id)
	if history == nil {
		history = []domain.AuditRecord{}
	}

	c.JSON(http.StatusOK, history)
}

func (h *marketplaceHandler) ListPayments(c *gin.Context) {
	params, err := ParsePageQuery(c)
	if err != nil {
		respondValidationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse[domain.PaymentLogEntry]{
		Items:  h.service.Payments(params.Offset, params.Limit),
		Offset: params.Offset,
		Limit:  params.Limit,
		Total:  uint64(h.service.PaymentCount()),
	})
}

func (h *marketplaceHandler) TransferToken(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	id, err := parseTokenID(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	index, err := h.service.Transfer(c.Request.Context(), caller, req.To, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.IndexResponse{Index: index})
}

func (h *marketplaceHandler) BurnToken(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	id, err := parseTokenID(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	index, err := h.service.Burn(c.Request.Context(), caller, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.IndexResponse{Index: index})
}

func (h *marketplaceHandler) CreateListing(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	index, err := h.service.List(c.Request.Context(), caller, req.TokenID, req.Price)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.IndexResponse{Index: index})
}

func (h *marketplaceHandler) DeleteListing(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	id, err := parseTokenID(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	index, err := h.service.Delist(c.Request.Context(), caller, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.IndexResponse{Index: index})
}

// TransactionNotification settles a purchase and answers with the seller and
// creator fee a settlement proxy pays out from.
func (h *marketplaceHandler) TransactionNotification(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var n domain.TransferNotification
	if err := c.ShouldBindJSON(&n); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	receipt, err := h.service.Purchase(c.Request.Context(), caller, n)
	if err != nil {
		respondWithError(c, err, zap.Uint64("blockHeight", n.BlockHeight))
		return
	}

	c.JSON(http.StatusOK, receipt.Response())
}

func (h *marketplaceHandler) MintToken(c *gin.Context) {
	var req dto.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	index, err := h.service.Mint(c.Request.Context(), h.admin, req.Owner, req.Token())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.IndexResponse{Index: index})
}

func (h *marketplaceHandler) UpdateConfig(c *gin.Context) {
	var req dto.MarketplaceConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	current := h.service.Config()
	creatorFee, marketFee := current.CreatorFeeBP, current.MarketFeeBP
	if req.CreatorFeeBP != nil {
		creatorFee = *req.CreatorFeeBP
	}
	if req.MarketFeeBP != nil {
		marketFee = *req.MarketFeeBP
	}
	// checked up front so a rejected pair leaves both rates untouched
	if creatorFee+marketFee >= domain.FEE_DENOMINATOR {
		respondWithError(c, fmt.Errorf("%w: creator %d + market %d", domain.ErrInvalidFee, creatorFee, marketFee))
		return
	}

	if req.Transacting != nil {
		h.service.SetTransacting(*req.Transacting)
	}
	if req.Notifier != nil {
		h.service.SetNotifier(*req.Notifier)
	}
	if req.CreatorAccount != nil {
		h.service.SetCreatorAccount(*req.CreatorAccount)
	}
	if req.CreatorFeeBP != nil && *req.CreatorFeeBP < current.CreatorFeeBP {
		// lower first so the intermediate sum stays valid
		if err := h.service.SetCreatorFee(creatorFee); err != nil {
			respondWithError(c, err)
			return
		}
	}
	if req.MarketFeeBP != nil {
		if err := h.service.SetMarketFee(marketFee); err != nil {
			respondWithError(c, err)
			return
		}
	}
	if req.CreatorFeeBP != nil && *req.CreatorFeeBP >= current.CreatorFeeBP {
		if err := h.service.SetCreatorFee(creatorFee); err != nil {
			respondWithError(c, err)
			return
		}
	}

	updated := h.service.Config()
	if h.settings != nil {
		if err := h.settings.SetSetting(c.Request.Context(), store.KeyMarketplaceConfig, updated); err != nil {
			respondWithError(c, fmt.Errorf("failed to persist config: %w", err))
			return
		}
	}

	logger.InfoCtx(c.Request.Context(), "Marketplace config updated", zap.Any("config", updated))

	c.JSON(http.StatusOK, updated)
}

func (h *marketplaceHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Service: "marketplace"})
}
