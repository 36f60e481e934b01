package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a custody handle on the external ledger. The address is the key
// under which balances and allowances are recorded.
type Account struct {
	ID        uuid.UUID `json:"id"         db:"id"`
	Address   string    `json:"address"    db:"address"`
	Label     string    `json:"label"      db:"label"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Reserved ledger account addresses used by the protocol itself.
const (
	// ProtocolReserveAccount custodies every market's reserves and accrued
	// deployer fees.
	ProtocolReserveAccount = "protocol:reserve"

	// FeeSinkAccount receives the protocol share of buy-side swap fees
	// (the staking contract stand-in). Its internal accounting is opaque.
	FeeSinkAccount = "staking:sink"
)
