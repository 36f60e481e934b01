package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/upsidefi/metaswap/internal/domain"
)

const cooldown = 14 * 24 * time.Hour

func TestWithdrawTimer_IdleBlocksWithdrawal(t *testing.T) {
	var timer domain.WithdrawTimer
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if timer.IsArmed() {
		t.Fatal("zero-value timer must be idle")
	}
	if err := timer.CheckElapsed(now, cooldown); !errors.Is(err, domain.ErrCooldownTimerNotEnded) {
		t.Errorf("idle timer CheckElapsed = %v, want ErrCooldownTimerNotEnded", err)
	}
}

func TestWithdrawTimer_ArmedButNotElapsed(t *testing.T) {
	var timer domain.WithdrawTimer
	armedAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	timer.Arm(armedAt)

	if !timer.IsArmed() {
		t.Fatal("timer should be armed")
	}
	if !timer.StartTime().Equal(armedAt) {
		t.Errorf("StartTime = %v, want %v", timer.StartTime(), armedAt)
	}

	justBefore := armedAt.Add(cooldown - time.Second)
	if err := timer.CheckElapsed(justBefore, cooldown); !errors.Is(err, domain.ErrCooldownTimerNotEnded) {
		t.Errorf("before cooldown CheckElapsed = %v, want ErrCooldownTimerNotEnded", err)
	}
}

func TestWithdrawTimer_ElapsedAllowsWithdrawal(t *testing.T) {
	var timer domain.WithdrawTimer
	armedAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	timer.Arm(armedAt)

	exactly := armedAt.Add(cooldown)
	if err := timer.CheckElapsed(exactly, cooldown); err != nil {
		t.Errorf("at exactly cooldown CheckElapsed = %v, want nil", err)
	}
	if err := timer.CheckElapsed(exactly.Add(time.Hour), cooldown); err != nil {
		t.Errorf("after cooldown CheckElapsed = %v, want nil", err)
	}
}

// Re-arming restarts the wait from the new timestamp; the original arm time is
// not preserved.
func TestWithdrawTimer_ReArmResetsClock(t *testing.T) {
	var timer domain.WithdrawTimer
	first := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	timer.Arm(first)

	second := first.Add(cooldown) // would have been elapsed
	timer.Arm(second)

	if err := timer.CheckElapsed(second.Add(time.Minute), cooldown); !errors.Is(err, domain.ErrCooldownTimerNotEnded) {
		t.Errorf("re-armed timer must restart the cooldown, got %v", err)
	}
	if err := timer.CheckElapsed(second.Add(cooldown), cooldown); err != nil {
		t.Errorf("re-armed timer should elapse from the new start, got %v", err)
	}
}

// An elapsed timer stays open: checking repeatedly keeps succeeding until the
// owner re-arms. Defined contract, not single-shot.
func TestWithdrawTimer_NotSingleShot(t *testing.T) {
	var timer domain.WithdrawTimer
	armedAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	timer.Arm(armedAt)

	open := armedAt.Add(cooldown + time.Second)
	for i := 0; i < 3; i++ {
		if err := timer.CheckElapsed(open, cooldown); err != nil {
			t.Fatalf("check %d after elapse = %v, want nil", i, err)
		}
	}
	if !timer.IsArmed() {
		t.Error("successful checks must not disarm the timer")
	}
}
