package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/upsidefi/metaswap/internal/domain"
	"github.com/upsidefi/metaswap/internal/repository"
)

// Broadcaster pushes market updates to connected websocket clients. Kept as
// a one-method interface so services stay testable without a running hub.
type Broadcaster interface {
	BroadcastMarketUpdate(summary domain.MarketSummary)
}

// ExchangeService executes swaps against market bonding curves. All pricing
// comes from the pure domain computation; this layer adds locking, ledger
// movement, and the fee routing side effects.
type ExchangeService struct {
	db      *sqlx.DB
	markets *repository.MarketRepository
	ledger  *repository.LedgerRepository
	sink    *repository.SinkRepository
	fees    *FeeState

	referenceAsset string
	broadcaster    Broadcaster
	now            func() time.Time
}

// NewExchangeService creates a new ExchangeService.
func NewExchangeService(
	db *sqlx.DB,
	markets *repository.MarketRepository,
	ledger *repository.LedgerRepository,
	sink *repository.SinkRepository,
	fees *FeeState,
	referenceAsset string,
) *ExchangeService {
	return &ExchangeService{
		db:             db,
		markets:        markets,
		ledger:         ledger,
		sink:           sink,
		fees:           fees,
		referenceAsset: referenceAsset,
		now:            time.Now,
	}
}

// SetBroadcaster wires the websocket hub after construction (the hub needs
// the router, the router needs the services).
func (s *ExchangeService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SwapRequest is the caller's side of a swap: trader account, direction,
// exact input, and the minimum acceptable output.
type SwapRequest struct {
	MarketID     uuid.UUID
	Trader       string
	Side         domain.SwapSide
	AmountIn     decimal.Decimal
	MinAmountOut decimal.Decimal
}

// SwapResult is the committed outcome returned to the trader.
type SwapResult struct {
	Quote  domain.SwapQuote     `json:"quote"`
	Market domain.MarketSummary `json:"market"`
}

// Preview prices a swap against the current reserves without committing
// anything. The numbers are exact for an immediately-following swap against
// unchanged reserves.
func (s *ExchangeService) Preview(ctx context.Context, marketID uuid.UUID, side domain.SwapSide, amountIn decimal.Decimal) (*domain.SwapQuote, error) {
	if !side.IsValid() {
		return nil, domain.ErrInvalidSide
	}
	market, err := s.markets.GetByID(ctx, marketID)
	if err != nil {
		return nil, err
	}
	quote, err := market.ComputeSwap(s.fees.Get(), side, amountIn, s.now())
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// Swap executes a swap atomically: the trader's input moves into the
// protocol reserve, fees route to the deployer and the staking sink, the
// output moves to the trader, and the reserves update. Any failure rolls the
// whole thing back.
func (s *ExchangeService) Swap(ctx context.Context, req SwapRequest) (*SwapResult, error) {
	if !req.Side.IsValid() {
		return nil, domain.ErrInvalidSide
	}

	// 1. Begin transaction
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("exchange_service.Swap begin: %w", err)
	}
	defer tx.Rollback()

	// 2. Lock the market row; concurrent swaps on one market serialize here
	market, err := s.markets.GetForUpdate(ctx, tx, req.MarketID)
	if err != nil {
		return nil, err
	}

	// 3. Price the swap against the locked reserves
	fees := s.fees.Get()
	now := s.now()
	quote, err := market.ComputeSwap(fees, req.Side, req.AmountIn, now)
	if err != nil {
		return nil, err
	}

	// 4. Slippage guard
	if quote.AmountOut.LessThan(req.MinAmountOut) {
		return nil, domain.ErrSlippageExceeded
	}

	// 5. Move assets and route fees
	switch req.Side {
	case domain.SideBuy:
		err = s.settleBuy(ctx, tx, market, req.Trader, quote)
	case domain.SideSell:
		err = s.settleSell(ctx, tx, market, req.Trader, quote)
	default:
		return nil, domain.ErrInvalidSide
	}
	if err != nil {
		return nil, err
	}

	// 6. Persist the post-swap reserves
	if err = s.markets.UpdateReserves(ctx, tx, market.ID, quote.NewUsdcReserve, quote.NewTokenReserve); err != nil {
		return nil, err
	}

	// 7. Commit
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("exchange_service.Swap commit: %w", err)
	}

	market.UsdcReserve = quote.NewUsdcReserve
	market.TokenReserve = quote.NewTokenReserve
	summary := market.ToSummary(fees, now)

	slog.Info("swap executed",
		"market_id", market.ID,
		"side", quote.Side,
		"amount_in", quote.AmountIn,
		"amount_out", quote.AmountOut,
		"fee_bp", quote.FeeBp)

	// 8. Notify after commit; a missed broadcast never undoes a swap
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMarketUpdate(summary)
	}

	return &SwapResult{Quote: quote, Market: summary}, nil
}

// settleBuy pulls the gross reference amount from the trader's allowance,
// forwards the sink share, accrues the deployer share inside the reserve, and
// pushes the bought tokens out.
func (s *ExchangeService) settleBuy(ctx context.Context, tx *sqlx.Tx, market *domain.Market, trader string, q domain.SwapQuote) error {
	err := s.ledger.TransferFrom(ctx, tx, s.referenceAsset,
		trader, domain.ProtocolReserveAccount, domain.ProtocolReserveAccount, q.AmountIn)
	if err != nil {
		return err
	}

	if q.SinkFee.IsPositive() {
		err = s.ledger.Transfer(ctx, tx, s.referenceAsset,
			domain.ProtocolReserveAccount, domain.FeeSinkAccount, q.SinkFee)
		if err != nil {
			return err
		}
		if err = s.sink.Record(ctx, tx, market.ID, q.SinkFee); err != nil {
			return err
		}
	}

	// Deployer share stays in the reserve account until claimed.
	if q.DeployerFee.IsPositive() {
		if err = s.markets.AccrueDeployerFee(ctx, tx, market.ID, q.DeployerFee); err != nil {
			return err
		}
	}

	return s.ledger.Transfer(ctx, tx, market.TokenSymbol,
		domain.ProtocolReserveAccount, trader, q.AmountOut)
}

// settleSell pulls the gross token amount from the trader's allowance (the
// fee skim stays in the token reserve) and pushes the reference output out.
func (s *ExchangeService) settleSell(ctx context.Context, tx *sqlx.Tx, market *domain.Market, trader string, q domain.SwapQuote) error {
	err := s.ledger.TransferFrom(ctx, tx, market.TokenSymbol,
		trader, domain.ProtocolReserveAccount, domain.ProtocolReserveAccount, q.AmountIn)
	if err != nil {
		return err
	}
	return s.ledger.Transfer(ctx, tx, s.referenceAsset,
		domain.ProtocolReserveAccount, trader, q.AmountOut)
}
