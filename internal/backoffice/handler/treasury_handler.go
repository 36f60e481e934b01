package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/upsidefi/metaswap/internal/domain"
	"github.com/upsidefi/metaswap/internal/service"
)

// TreasuryHandler serves the owner's withdrawal timer, liquidity withdrawal,
// and fee-sink endpoints.
type TreasuryHandler struct {
	treasurySvc *service.TreasuryService
}

// NewTreasuryHandler creates a TreasuryHandler.
func NewTreasuryHandler(treasurySvc *service.TreasuryService) *TreasuryHandler {
	return &TreasuryHandler{treasurySvc: treasurySvc}
}

// Timer godoc
// GET /admin/treasury/timer
func (h *TreasuryHandler) Timer(c *gin.Context) {
	respondSuccess(c, http.StatusOK, h.treasurySvc.Timer())
}

// Arm godoc
// POST /admin/treasury/arm
func (h *TreasuryHandler) Arm(c *gin.Context) {
	respondSuccess(c, http.StatusOK, h.treasurySvc.ArmTimer())
}

// WithdrawRequest is the body for POST /admin/treasury/withdraw. The list is
// passed to the drain verbatim — duplicates are legal and drain zero on the
// second pass.
type WithdrawRequest struct {
	MarketIDs []uuid.UUID `json:"market_ids"`
}

// Withdraw godoc
// POST /admin/treasury/withdraw
func (h *TreasuryHandler) Withdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_BODY", "market_ids must be a list of uuids")
		return
	}

	results, err := h.treasurySvc.WithdrawLiquidity(c.Request.Context(), req.MarketIDs)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCooldownTimerNotEnded):
			respondError(c, http.StatusConflict, "ERR_COOLDOWN", err.Error())
		case domain.IsNotFound(err):
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "withdrawal failed")
		}
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"withdrawals": results})
}

// Sink godoc
// GET /admin/treasury/sink?limit=50
func (h *TreasuryHandler) Sink(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	summary, err := h.treasurySvc.Sink(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch sink summary")
		return
	}
	respondSuccess(c, http.StatusOK, summary)
}
