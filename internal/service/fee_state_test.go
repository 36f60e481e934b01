package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/upsidefi/metaswap/internal/domain"
)

func testFees() domain.FeeInfo {
	return domain.FeeInfo{
		TokenizeFeeEnabled:     true,
		TokenizeFeeDestination: "acct:owner",
		SwapFeeStartingBp:      9900,
		SwapFeeDecayBp:         100,
		SwapFeeDecayInterval:   6,
		SwapFeeFinalBp:         100,
		SwapFeeDeployerBp:      1000,
		SwapFeeSellBp:          100,
	}
}

func TestFeeStateSetRejectsInvalid(t *testing.T) {
	state := NewFeeState(nil, testFees())

	bad := testFees()
	bad.SwapFeeDecayInterval = 0
	if err := state.Set(context.Background(), bad); !errors.Is(err, domain.ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting, got %v", err)
	}

	// The previous configuration must survive a rejected update intact.
	if got := state.Get(); got.SwapFeeDecayInterval != 6 {
		t.Errorf("previous config lost after rejected set: %+v", got)
	}
}

func TestFeeStateSetAppliesImmediately(t *testing.T) {
	state := NewFeeState(nil, testFees())

	next := testFees()
	next.SwapFeeStartingBp = 5000
	next.SwapFeeFinalBp = 50
	if err := state.Set(context.Background(), next); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := state.Get(); got.SwapFeeStartingBp != 5000 || got.SwapFeeFinalBp != 50 {
		t.Errorf("update not visible: %+v", got)
	}
}

func TestFeeStateInitInMemory(t *testing.T) {
	state := NewFeeState(nil, testFees())
	if err := state.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	bad := NewFeeState(nil, domain.FeeInfo{})
	if err := bad.Init(context.Background()); !errors.Is(err, domain.ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting for zero seed config, got %v", err)
	}
}

// Run with -race: concurrent reads during a write must not trip the detector,
// and readers must only ever observe complete configurations.
func TestFeeStateConcurrentAccess(t *testing.T) {
	state := NewFeeState(nil, testFees())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				info := state.Get()
				if info.SwapFeeStartingBp < info.SwapFeeFinalBp {
					t.Error("observed torn fee configuration")
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			next := testFees()
			next.SwapFeeStartingBp = 9900 - int64(j)
			if err := state.Set(context.Background(), next); err != nil {
				t.Errorf("Set: %v", err)
				return
			}
		}
	}()
	wg.Wait()
}
