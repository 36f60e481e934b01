package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/upsidefi/metaswap/internal/api/middleware"
	"github.com/upsidefi/metaswap/internal/domain"
	"github.com/upsidefi/metaswap/internal/service"
)

// SwapHandler executes swaps for authenticated traders.
type SwapHandler struct {
	exchangeSvc *service.ExchangeService
}

// NewSwapHandler creates a SwapHandler.
func NewSwapHandler(exchangeSvc *service.ExchangeService) *SwapHandler {
	return &SwapHandler{exchangeSvc: exchangeSvc}
}

// SwapRequest is the body for POST /api/swaps. Amounts are integers in base
// units, sent as JSON strings or numbers.
type SwapRequest struct {
	MarketID     uuid.UUID       `json:"market_id" binding:"required"`
	Side         string          `json:"side" binding:"required"`
	AmountIn     decimal.Decimal `json:"amount_in" binding:"required"`
	MinAmountOut decimal.Decimal `json:"min_amount_out"`
}

// Create godoc
// POST /api/swaps   (auth required)
func (h *SwapHandler) Create(c *gin.Context) {
	var req SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_BODY", "market_id, side and amount_in are required")
		return
	}

	result, err := h.exchangeSvc.Swap(c.Request.Context(), service.SwapRequest{
		MarketID:     req.MarketID,
		Trader:       middleware.GetAccount(c),
		Side:         domain.SwapSide(req.Side),
		AmountIn:     req.AmountIn,
		MinAmountOut: req.MinAmountOut,
	})
	if err != nil {
		switch err {
		case domain.ErrInvalidSide:
			respondError(c, http.StatusBadRequest, "ERR_INVALID_SIDE", err.Error())
		case domain.ErrZeroAmount:
			respondError(c, http.StatusBadRequest, "ERR_ZERO_AMOUNT", err.Error())
		default:
			respondDomainError(c, err)
		}
		return
	}
	respondSuccess(c, http.StatusCreated, result)
}
