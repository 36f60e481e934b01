package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/upsidefi/metaswap/internal/domain"
	"github.com/upsidefi/metaswap/internal/repository"
)

// feeCacheTTL bounds how stale a process's view of the fee configuration can
// be. Owner updates written by the back-office reach the API server within
// one TTL.
const feeCacheTTL = 500 * time.Millisecond

// FeeState is the process-wide view of the fee configuration. The canonical
// copy lives in the fee_settings row; each process keeps a short-lived cache
// in front of it because every quote and swap reads the fees. A nil
// repository (tests) makes the state purely in-memory.
type FeeState struct {
	repo *repository.SettingsRepository

	mu        sync.RWMutex
	info      domain.FeeInfo
	fetchedAt time.Time

	now func() time.Time
}

// NewFeeState creates a FeeState seeded with initial. Callers should Init()
// it before serving so a persisted configuration overrides the seed.
func NewFeeState(repo *repository.SettingsRepository, initial domain.FeeInfo) *FeeState {
	return &FeeState{
		repo: repo,
		info: initial,
		now:  time.Now,
	}
}

// Init loads the persisted configuration, or persists the seed when no row
// exists yet (first boot).
func (f *FeeState) Init(ctx context.Context) error {
	if f.repo == nil {
		return f.info.Validate()
	}

	stored, ok, err := f.repo.LoadFees(ctx)
	if err != nil {
		return err
	}
	if !ok {
		if err := f.info.Validate(); err != nil {
			return err
		}
		return f.repo.SaveFees(ctx, f.info)
	}
	if err := stored.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	f.info = stored
	f.fetchedAt = f.now()
	f.mu.Unlock()
	return nil
}

// Get returns the current fee configuration, refreshing from the settings
// row when the cache has expired. A failed refresh serves the cached copy —
// stale fees beat no fees.
func (f *FeeState) Get() domain.FeeInfo {
	f.mu.RLock()
	info, fetchedAt := f.info, f.fetchedAt
	f.mu.RUnlock()

	if f.repo == nil || f.now().Sub(fetchedAt) < feeCacheTTL {
		return info
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	stored, ok, err := f.repo.LoadFees(ctx)
	if err != nil || !ok {
		if err != nil {
			slog.Warn("fee settings refresh failed, serving cached", "err", err)
		}
		return info
	}

	f.mu.Lock()
	f.info = stored
	f.fetchedAt = f.now()
	f.mu.Unlock()
	return stored
}

// Set validates, persists, and installs a new fee configuration. Invalid
// settings are rejected atomically: either every field applies or none does.
func (f *FeeState) Set(ctx context.Context, info domain.FeeInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	if f.repo != nil {
		if err := f.repo.SaveFees(ctx, info); err != nil {
			return err
		}
	}

	f.mu.Lock()
	f.info = info
	f.fetchedAt = f.now()
	f.mu.Unlock()
	return nil
}
