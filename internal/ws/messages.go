// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs broadcast to connected clients.
package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/upsidefi/metaswap/internal/domain"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypeMarketUpdate MsgType = "market_update"
	MsgTypeNewMarket    MsgType = "new_market"
	MsgTypeFeeTick      MsgType = "fee_tick"
	MsgTypeError        MsgType = "error"
)

// ──────────────────────────────────────────────────────────────────────────────
// MarketUpdateMessage — broadcast after every committed swap.
// ──────────────────────────────────────────────────────────────────────────────

// MarketUpdateMessage carries the post-swap reserves, spot price, and the
// current buy-side fee for one market.
type MarketUpdateMessage struct {
	Type      MsgType              `json:"type"`
	Market    domain.MarketSummary `json:"market"`
	Timestamp time.Time            `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// NewMarketMessage — broadcast when a URL is tokenized.
// ──────────────────────────────────────────────────────────────────────────────

// NewMarketMessage announces a freshly minted market.
type NewMarketMessage struct {
	Type        MsgType         `json:"type"`
	MarketID    uuid.UUID       `json:"market_id"`
	URL         string          `json:"url"`
	TokenSymbol string          `json:"token_symbol"`
	SpotPrice   decimal.Decimal `json:"spot_price"`
	Timestamp   time.Time       `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// FeeTickMessage — periodic fee decay notification.
// ──────────────────────────────────────────────────────────────────────────────

// FeeTickMessage tells clients the current buy fees of young markets, so UIs
// can show the decay countdown without polling.
type FeeTickMessage struct {
	Type      MsgType         `json:"type"`
	Markets   []MarketFeeTick `json:"markets"`
	Timestamp time.Time       `json:"timestamp"`
}

// MarketFeeTick is the per-market entry of a FeeTickMessage.
type MarketFeeTick struct {
	MarketID uuid.UUID `json:"market_id"`
	BuyFeeBp int64     `json:"buy_fee_bp"`
	AgeSec   int64     `json:"age_sec"`
}

// ──────────────────────────────────────────────────────────────────────────────
// ErrorMessage — sent to a single client on a non-fatal error.
// ──────────────────────────────────────────────────────────────────────────────

// ErrorMessage is sent directly to one client (not broadcast).
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
