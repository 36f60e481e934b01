package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/upsidefi/metaswap/internal/api/middleware"
	"github.com/upsidefi/metaswap/internal/domain"
	"github.com/upsidefi/metaswap/internal/service"
)

// LedgerHandler serves account balance, approval, and faucet endpoints.
type LedgerHandler struct {
	ledgerSvc *service.LedgerService
}

// NewLedgerHandler creates a LedgerHandler.
func NewLedgerHandler(ledgerSvc *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// Balances godoc
// GET /api/ledger/balances   (auth required)
func (h *LedgerHandler) Balances(c *gin.Context) {
	account := middleware.GetAccount(c)
	balances, err := h.ledgerSvc.Balances(c.Request.Context(), account)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch balances")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"account": account, "balances": balances})
}

// ApproveRequest is the body for POST /api/ledger/approve.
type ApproveRequest struct {
	Asset  string          `json:"asset" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// Approve godoc
// POST /api/ledger/approve   (auth required)
func (h *LedgerHandler) Approve(c *gin.Context) {
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_BODY", "asset is required")
		return
	}

	owner := middleware.GetAccount(c)
	if err := h.ledgerSvc.Approve(c.Request.Context(), owner, req.Asset, req.Amount); err != nil {
		if err == domain.ErrZeroAmount {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must not be negative")
			return
		}
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"owner":  owner,
		"asset":  req.Asset,
		"amount": req.Amount,
	})
}

// Allowance godoc
// GET /api/ledger/allowance?asset=USDC   (auth required)
//
// Reports how much of the asset the protocol may pull from the caller.
func (h *LedgerHandler) Allowance(c *gin.Context) {
	asset := c.Query("asset")
	if asset == "" {
		respondError(c, http.StatusBadRequest, "ERR_MISSING_ASSET", "asset query parameter is required")
		return
	}

	owner := middleware.GetAccount(c)
	amount, err := h.ledgerSvc.Allowance(c.Request.Context(), owner, asset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch allowance")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"owner":     owner,
		"asset":     asset,
		"allowance": amount,
	})
}

// FaucetRequest is the body for POST /api/ledger/faucet.
type FaucetRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// Faucet godoc
// POST /api/ledger/faucet   (auth required, development only)
func (h *LedgerHandler) Faucet(c *gin.Context) {
	var req FaucetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_BODY", "amount is required")
		return
	}

	account := middleware.GetAccount(c)
	if err := h.ledgerSvc.Faucet(c.Request.Context(), account, req.Amount); err != nil {
		switch err {
		case domain.ErrForbidden:
			respondError(c, http.StatusForbidden, "ERR_FAUCET_DISABLED", "faucet is disabled")
		case domain.ErrZeroAmount:
			respondError(c, http.StatusBadRequest, "ERR_ZERO_AMOUNT", err.Error())
		default:
			respondDomainError(c, err)
		}
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"account": account, "minted": req.Amount})
}
