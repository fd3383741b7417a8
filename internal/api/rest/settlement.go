package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace/internal/api/middleware"
	"github.com/feral-file/ff-marketplace/internal/api/shared/dto"
	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/logger"
	"github.com/feral-file/ff-marketplace/internal/settlement"
	"github.com/feral-file/ff-marketplace/internal/store"
)

// SettlementService is the settlement proxy state served over REST
type SettlementService interface {
	Notify(ctx context.Context, caller domain.Principal, height uint64) error
	IsProcessed(height uint64) bool
	Processed() []uint64
	ProcessedCount() int
	Payments(offset, limit uint64) []domain.PaymentLogEntry
	PaymentCount() int
	Notifications(offset, limit uint64) []domain.NotificationLogEntry
	NotificationCount() int
	Status() domain.FeeStatus
	Account() domain.AccountID
	Config() settlement.Config
	MarketFee() uint64
	SetTarget(principal domain.Principal, url string)
	SetMarketFee(bp uint64) error
}

// SettlementHandler defines the REST handlers of the settlement proxy
type SettlementHandler interface {
	// POST /api/v1/notify (JWT, rate limited)
	Notify(c *gin.Context)
	// GET /api/v1/processed?limit=<limit>&offset=<offset>
	ListProcessed(c *gin.Context)
	// GET /api/v1/processed/:height
	GetProcessed(c *gin.Context)
	// GET /api/v1/payments?limit=<limit>&offset=<offset>
	ListPayments(c *gin.Context)
	// GET /api/v1/notifications?limit=<limit>&offset=<offset>
	ListNotifications(c *gin.Context)
	// GET /api/v1/status
	GetStatus(c *gin.Context)
	// GET /api/v1/market-fee
	GetMarketFee(c *gin.Context)
	// PUT /api/v1/admin/config (API key)
	UpdateConfig(c *gin.Context)
	// GET /health
	HealthCheck(c *gin.Context)
}

type settlementHandler struct {
	service  SettlementService
	settings store.SettingsStore
}

// NewSettlementHandler creates the settlement proxy REST handler
func NewSettlementHandler(service SettlementService, settings store.SettingsStore) SettlementHandler {
	return &settlementHandler{
		service:  service,
		settings: settings,
	}
}

func (h *settlementHandler) Notify(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	var req dto.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	height := *req.BlockHeight
	if err := h.service.Notify(c.Request.Context(), caller, height); err != nil {
		respondWithError(c, err, zap.Uint64("blockHeight", height))
		return
	}

	c.JSON(http.StatusOK, dto.NotifyResponse{BlockHeight: height, Status: "settled"})
}

func (h *settlementHandler) ListProcessed(c *gin.Context) {
	params, err := ParsePageQuery(c)
	if err != nil {
		respondValidationError(c, err)
		return
	}

	processed := h.service.Processed()
	c.JSON(http.StatusOK, dto.ListResponse[uint64]{
		Items:  domain.Page(processed, params.Offset, params.Limit),
		Offset: params.Offset,
		Limit:  params.Limit,
		Total:  uint64(len(processed)),
	})
}

func (h *settlementHandler) GetProcessed(c *gin.Context) {
	height, err := parseUint64(c, "height")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, dto.ProcessedResponse{
		BlockHeight: height,
		Processed:   h.service.IsProcessed(height),
	})
}

func (h *settlementHandler) ListPayments(c *gin.Context) {
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

func (h *settlementHandler) ListNotifications(c *gin.Context) {
	params, err := ParsePageQuery(c)
	if err != nil {
		respondValidationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse[domain.NotificationLogEntry]{
		Items:  h.service.Notifications(params.Offset, params.Limit),
		Offset: params.Offset,
		Limit:  params.Limit,
		Total:  uint64(h.service.NotificationCount()),
	})
}

func (h *settlementHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, dto.StatusResponse{
		FeeStatus:      h.service.Status(),
		Account:        h.service.Account(),
		ProcessedCount: h.service.ProcessedCount(),
	})
}

func (h *settlementHandler) GetMarketFee(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MarketFeeResponse{MarketFeeBP: h.service.MarketFee()})
}

func (h *settlementHandler) UpdateConfig(c *gin.Context) {
	var req dto.SettlementConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	if req.MarketFeeBP != nil {
		if err := h.service.SetMarketFee(*req.MarketFeeBP); err != nil {
			respondWithError(c, err)
			return
		}
	}
	if req.TargetPrincipal != nil {
		h.service.SetTarget(*req.TargetPrincipal, *req.TargetURL)
	}

	updated := h.service.Config()
	if h.settings != nil {
		if err := h.settings.SetSetting(c.Request.Context(), store.KeySettlementConfig, updated); err != nil {
			respondWithError(c, fmt.Errorf("failed to persist config: %w", err))
			return
		}
	}

	logger.InfoCtx(c.Request.Context(), "Settlement config updated", zap.Any("config", updated))

	c.JSON(http.StatusOK, updated)
}

func (h *settlementHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Service: "settlement-proxy"})
}
