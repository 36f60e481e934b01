// Package scheduler runs the background goroutine that pushes fee-decay
// ticks for young markets to WebSocket clients, so UIs can show the buy fee
// counting down without polling the quote endpoint.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/upsidefi/metaswap/internal/repository"
	"github.com/upsidefi/metaswap/internal/service"
	"github.com/upsidefi/metaswap/internal/ws"
)

// WsHub defines the broadcast operations the Scheduler needs from the
// WebSocket hub. Declared here so this package does not depend on the hub
// implementation.
type WsHub interface {
	BroadcastFeeTick(msg ws.FeeTickMessage)
	ConnectedCount() int
}

// Scheduler owns the fee-tick loop. Call Start(ctx) once from main(); cancel
// the context to shut it down.
type Scheduler struct {
	markets  *repository.MarketRepository
	fees     *service.FeeState
	hub      WsHub
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler broadcasting every interval.
func NewScheduler(markets *repository.MarketRepository, fees *service.FeeState, hub WsHub, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Scheduler{
		markets:  markets,
		fees:     fees,
		hub:      hub,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the fee-tick loop in its own goroutine and returns.
func (s *Scheduler) Start(ctx context.Context) {
	go s.feeTickLoop(ctx)
	s.logger.Info("scheduler started", "interval", s.interval)
}

func (s *Scheduler) feeTickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("feeTickLoop: shutting down")
			return
		case <-ticker.C:
			if s.hub.ConnectedCount() == 0 {
				continue
			}
			if err := s.broadcastTick(ctx); err != nil {
				s.logger.Error("feeTickLoop: tick failed", "err", err)
			}
		}
	}
}

// broadcastTick finds markets still inside the decay window and pushes their
// current buy fee. Markets past full decay keep a flat fee, so there is
// nothing left to announce for them.
func (s *Scheduler) broadcastTick(ctx context.Context) error {
	fees := s.fees.Get()
	now := time.Now()

	steps := (fees.SwapFeeStartingBp - fees.SwapFeeFinalBp) / max(fees.SwapFeeDecayBp, 1)
	window := time.Duration((steps+1)*fees.SwapFeeDecayInterval) * time.Second
	cutoff := now.Add(-window)

	markets, err := s.markets.ListCreatedAfter(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(markets) == 0 {
		return nil
	}

	msg := ws.FeeTickMessage{
		Type:      ws.MsgTypeFeeTick,
		Markets:   make([]ws.MarketFeeTick, 0, len(markets)),
		Timestamp: now,
	}
	for i := range markets {
		m := &markets[i]
		msg.Markets = append(msg.Markets, ws.MarketFeeTick{
			MarketID: m.ID,
			BuyFeeBp: fees.ComputeTimeFee(m.CreatedAt, now),
			AgeSec:   int64(now.Sub(m.CreatedAt).Seconds()),
		})
	}
	s.hub.BroadcastFeeTick(msg)
	return nil
}
