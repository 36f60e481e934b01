package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/upsidefi/metaswap/internal/api/middleware"
	"github.com/upsidefi/metaswap/internal/domain"
	"github.com/upsidefi/metaswap/internal/service"
)

// MarketHandler serves registry queries, tokenization, and fee endpoints.
type MarketHandler struct {
	registrySvc *service.RegistryService
	exchangeSvc *service.ExchangeService
	treasurySvc *service.TreasuryService
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(registrySvc *service.RegistryService, exchangeSvc *service.ExchangeService, treasurySvc *service.TreasuryService) *MarketHandler {
	return &MarketHandler{
		registrySvc: registrySvc,
		exchangeSvc: exchangeSvc,
		treasurySvc: treasurySvc,
	}
}

// List godoc
// GET /api/markets?page=1&limit=20
func (h *MarketHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	markets, total, err := h.registrySvc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not list markets")
		return
	}
	respondList(c, markets, total, page, limit)
}

// GetByID godoc
// GET /api/markets/:id
func (h *MarketHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid market id")
		return
	}

	market, err := h.registrySvc.Get(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, market)
}

// Resolve godoc
// GET /api/markets/resolve?url=https://...
func (h *MarketHandler) Resolve(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		respondError(c, http.StatusBadRequest, "ERR_MISSING_URL", "url query parameter is required")
		return
	}

	market, err := h.registrySvc.Resolve(c.Request.Context(), rawURL)
	if err != nil {
		if err == domain.ErrInvalidURL {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_URL", err.Error())
			return
		}
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, market)
}

// Fee godoc
// GET /api/markets/:id/fee
func (h *MarketHandler) Fee(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid market id")
		return
	}

	market, err := h.registrySvc.Get(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	fees := h.treasurySvc.GetFees()
	respondSuccess(c, http.StatusOK, gin.H{
		"market_id":   market.ID,
		"buy_fee_bp":  fees.ComputeTimeFee(market.CreatedAt, time.Now()),
		"sell_fee_bp": fees.SwapFeeSellBp,
	})
}

// Quote godoc
// GET /api/markets/:id/quote?side=buy&amount=1000000
func (h *MarketHandler) Quote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid market id")
		return
	}
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be an integer in base units")
		return
	}
	side := domain.SwapSide(c.Query("side"))

	quote, err := h.exchangeSvc.Preview(c.Request.Context(), id, side, amount)
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
	respondSuccess(c, http.StatusOK, quote)
}

// TokenizeRequest is the body for POST /api/markets/tokenize.
type TokenizeRequest struct {
	URL string `json:"url" binding:"required"`
}

// Tokenize godoc
// POST /api/markets/tokenize   (auth required)
func (h *MarketHandler) Tokenize(c *gin.Context) {
	var req TokenizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_BODY", "url is required")
		return
	}

	market, err := h.registrySvc.Tokenize(c.Request.Context(), middleware.GetAccount(c), req.URL)
	if err != nil {
		if err == domain.ErrInvalidURL {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_URL", err.Error())
			return
		}
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, market)
}

// ClaimDeployerFees godoc
// POST /api/markets/:id/claim-deployer-fees   (auth required, deployer only)
func (h *MarketHandler) ClaimDeployerFees(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid market id")
		return
	}

	claimed, err := h.treasurySvc.ClaimDeployerFees(c.Request.Context(), id, middleware.GetAccount(c))
	if err != nil {
		if err == domain.ErrForbidden {
			respondError(c, http.StatusForbidden, "ERR_FORBIDDEN", err.Error())
			return
		}
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"market_id": id, "claimed": claimed})
}

// ── helpers ──────────────────────────────────────────────────────────────────

func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return
}
