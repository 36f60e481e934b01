package domain

import (
	"time"
)

// ──────────────────────────────────────────────────────────────────────────────
// Withdrawal cooldown timer
// ──────────────────────────────────────────────────────────────────────────────

// WithdrawTimer is the single process-wide timer gating owner liquidity
// withdrawals. It is an explicit two-state value: idle, or armed with the
// timestamp arming happened at.
//
// Defined contract (not hardened away): re-arming while armed restarts the
// cooldown, and a successful withdrawal does not disarm the timer — once the
// cooldown has elapsed the window stays open until the owner re-arms.
type WithdrawTimer struct {
	armed   bool
	startAt time.Time
}

// Arm sets the timer to Armed(now). Always succeeds and always resets the
// clock, even when already armed.
func (t *WithdrawTimer) Arm(now time.Time) {
	t.armed = true
	t.startAt = now
}

// IsArmed reports whether the timer has been armed.
func (t *WithdrawTimer) IsArmed() bool {
	return t.armed
}

// StartTime returns the timestamp of the most recent arming. Zero value when
// the timer is idle.
func (t *WithdrawTimer) StartTime() time.Time {
	if !t.armed {
		return time.Time{}
	}
	return t.startAt
}

// IsElapsed reports whether the timer is armed and at least cooldown has
// passed since arming.
func (t *WithdrawTimer) IsElapsed(now time.Time, cooldown time.Duration) bool {
	return t.armed && !now.Before(t.startAt.Add(cooldown))
}

// CheckElapsed returns ErrCooldownTimerNotEnded unless the timer is armed and
// the cooldown has elapsed. Called at the top of every withdrawal.
func (t *WithdrawTimer) CheckElapsed(now time.Time, cooldown time.Duration) error {
	if !t.IsElapsed(now, cooldown) {
		return ErrCooldownTimerNotEnded
	}
	return nil
}
