// Package backoffice_test runs HTTP-level smoke tests for the owner router.
// No database needed: fee reads and the withdrawal timer live in process
// state, and the API-key gate rejects before any handler runs.
package backoffice_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/upsidefi/metaswap/internal/backoffice"
	"github.com/upsidefi/metaswap/internal/config"
	"github.com/upsidefi/metaswap/internal/domain"
	"github.com/upsidefi/metaswap/internal/service"
)

const testAPIKey = "test-owner-key"

func buildTestRouter(t *testing.T) http.Handler {
	t.Helper()

	feeState := service.NewFeeState(nil, domain.FeeInfo{
		TokenizeFeeDestination: "protocol:owner",
		SwapFeeStartingBp:      9900,
		SwapFeeDecayBp:         100,
		SwapFeeDecayInterval:   6,
		SwapFeeFinalBp:         100,
		SwapFeeDeployerBp:      1000,
		SwapFeeSellBp:          100,
	})
	treasurySvc := service.NewTreasuryService(nil, nil, nil, nil, feeState,
		"USDC", "protocol:owner", 14*24*time.Hour)

	return backoffice.SetupBackofficeRouter(backoffice.BackofficeDeps{
		TreasurySvc: treasurySvc,
		Cfg: &config.Config{
			Server: config.ServerConfig{
				Env:              "development",
				BackofficeAPIKey: testAPIKey,
			},
		},
	})
}

func do(t *testing.T, h http.Handler, method, path, body, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAdmin_NoKey_Returns401(t *testing.T) {
	h := buildTestRouter(t)
	for _, path := range []string{"/admin/fees", "/admin/treasury/timer"} {
		rr := do(t, h, http.MethodGet, path, "", "")
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without api key = %d, want 401", path, rr.Code)
		}
	}
}

func TestAdmin_WrongKey_Returns401(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/admin/fees", "", "wrong-key")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("GET /admin/fees with wrong key = %d, want 401", rr.Code)
	}
}

func TestGetFees_ReturnsConfiguration(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/admin/fees", "", testAPIKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /admin/fees = %d, want 200", rr.Code)
	}

	var body struct {
		Success bool           `json:"success"`
		Data    domain.FeeInfo `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.SwapFeeStartingBp != 9900 {
		t.Errorf("starting bp = %d, want 9900", body.Data.SwapFeeStartingBp)
	}
}

func TestUpdateFees_InvalidRejected(t *testing.T) {
	h := buildTestRouter(t)
	// Zero decay interval must never be installable.
	payload := `{
		"tokenize_fee_enabled": false,
		"tokenize_fee_destination": "protocol:owner",
		"swap_fee_starting_bp": 9900,
		"swap_fee_decay_bp": 100,
		"swap_fee_decay_interval_sec": 0,
		"swap_fee_final_bp": 100,
		"swap_fee_deployer_bp": 1000,
		"swap_fee_sell_bp": 100
	}`
	rr := do(t, h, http.MethodPut, "/admin/fees", payload, testAPIKey)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("PUT /admin/fees with zero interval = %d, want 400", rr.Code)
	}
}

func TestUpdateFees_ValidApplied(t *testing.T) {
	h := buildTestRouter(t)
	payload := `{
		"tokenize_fee_enabled": false,
		"tokenize_fee_destination": "protocol:owner",
		"swap_fee_starting_bp": 5000,
		"swap_fee_decay_bp": 50,
		"swap_fee_decay_interval_sec": 10,
		"swap_fee_final_bp": 50,
		"swap_fee_deployer_bp": 500,
		"swap_fee_sell_bp": 50
	}`
	rr := do(t, h, http.MethodPut, "/admin/fees", payload, testAPIKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT /admin/fees = %d, want 200 — body: %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/admin/fees", "", testAPIKey)
	var body struct {
		Data domain.FeeInfo `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.SwapFeeStartingBp != 5000 {
		t.Errorf("starting bp after update = %d, want 5000", body.Data.SwapFeeStartingBp)
	}
}

func TestTimer_ArmAndStatus(t *testing.T) {
	h := buildTestRouter(t)

	rr := do(t, h, http.MethodGet, "/admin/treasury/timer", "", testAPIKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET timer = %d, want 200", rr.Code)
	}
	var status struct {
		Data service.TimerStatus `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Data.Armed {
		t.Error("timer should boot idle")
	}

	rr = do(t, h, http.MethodPost, "/admin/treasury/arm", "", testAPIKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("POST arm = %d, want 200", rr.Code)
	}
	if err := json.NewDecoder(rr.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !status.Data.Armed {
		t.Error("timer should be armed after POST /admin/treasury/arm")
	}
}

func TestWithdraw_BeforeCooldown_Returns409(t *testing.T) {
	h := buildTestRouter(t)
	payload := `{"market_ids":["11111111-1111-1111-1111-111111111111"]}`
	rr := do(t, h, http.MethodPost, "/admin/treasury/withdraw", payload, testAPIKey)
	if rr.Code != http.StatusConflict {
		t.Errorf("withdraw with idle timer = %d, want 409", rr.Code)
	}
}
