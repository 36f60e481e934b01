package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/upsidefi/metaswap/internal/domain"
	"github.com/upsidefi/metaswap/internal/service"
)

// FeeAdminHandler lets the owner read and replace the fee configuration.
type FeeAdminHandler struct {
	treasurySvc *service.TreasuryService
}

// NewFeeAdminHandler creates a FeeAdminHandler.
func NewFeeAdminHandler(treasurySvc *service.TreasuryService) *FeeAdminHandler {
	return &FeeAdminHandler{treasurySvc: treasurySvc}
}

// Get godoc
// GET /admin/fees
func (h *FeeAdminHandler) Get(c *gin.Context) {
	respondSuccess(c, http.StatusOK, h.treasurySvc.GetFees())
}

// UpdateFeesRequest is the body for PUT /admin/fees. All fields are required:
// the configuration is replaced wholesale, never patched.
type UpdateFeesRequest struct {
	TokenizeFeeEnabled      bool   `json:"tokenize_fee_enabled"`
	TokenizeFeeDestination  string `json:"tokenize_fee_destination"`
	SwapFeeStartingBp       int64  `json:"swap_fee_starting_bp"`
	SwapFeeDecayBp          int64  `json:"swap_fee_decay_bp"`
	SwapFeeDecayIntervalSec int64  `json:"swap_fee_decay_interval_sec"`
	SwapFeeFinalBp          int64  `json:"swap_fee_final_bp"`
	SwapFeeDeployerBp       int64  `json:"swap_fee_deployer_bp"`
	SwapFeeSellBp           int64  `json:"swap_fee_sell_bp"`
}

// Update godoc
// PUT /admin/fees
func (h *FeeAdminHandler) Update(c *gin.Context) {
	var req UpdateFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_BODY", "malformed fee configuration")
		return
	}

	info := domain.FeeInfo{
		TokenizeFeeEnabled:     req.TokenizeFeeEnabled,
		TokenizeFeeDestination: req.TokenizeFeeDestination,
		SwapFeeStartingBp:      req.SwapFeeStartingBp,
		SwapFeeDecayBp:         req.SwapFeeDecayBp,
		SwapFeeDecayInterval:   req.SwapFeeDecayIntervalSec,
		SwapFeeFinalBp:         req.SwapFeeFinalBp,
		SwapFeeDeployerBp:      req.SwapFeeDeployerBp,
		SwapFeeSellBp:          req.SwapFeeSellBp,
	}
	if err := h.treasurySvc.SetFees(c.Request.Context(), info); err != nil {
		if errors.Is(err, domain.ErrInvalidSetting) {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_SETTING", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not update fees")
		return
	}
	respondSuccess(c, http.StatusOK, info)
}
