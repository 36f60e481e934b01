package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/upsidefi/metaswap/internal/domain"
)

// newTestExchange builds an ExchangeService with no database. Every test
// here exercises paths that return before any query runs.
func newTestExchange() *ExchangeService {
	return NewExchangeService(nil, nil, nil, nil, NewFeeState(nil, testFees()), "USDC")
}

func TestPreviewRejectsInvalidSide(t *testing.T) {
	svc := newTestExchange()

	for _, side := range []string{"", "hold", "BUY", "short"} {
		_, err := svc.Preview(context.Background(), uuid.New(),
			domain.SwapSide(side), decimal.NewFromInt(1_000_000))
		if !errors.Is(err, domain.ErrInvalidSide) {
			t.Errorf("Preview(side=%q) err = %v, want ErrInvalidSide", side, err)
		}
	}
}

func TestSwapRejectsInvalidSide(t *testing.T) {
	svc := newTestExchange()

	_, err := svc.Swap(context.Background(), SwapRequest{
		MarketID: uuid.New(),
		Trader:   "acct:trader",
		Side:     domain.SwapSide("hold"),
		AmountIn: decimal.NewFromInt(1_000_000),
	})
	if !errors.Is(err, domain.ErrInvalidSide) {
		t.Fatalf("Swap with bad side err = %v, want ErrInvalidSide", err)
	}
}
