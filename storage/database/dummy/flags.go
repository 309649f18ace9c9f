package dummydb

import (
	"context"
	"sync"
	"time"

	"github.com/eduai/backend/core"
)

// DeliveredFlags keeps the credential-delivered flags in memory.
type DeliveredFlags struct {
	mu    sync.Mutex
	ttl   time.Duration
	flags map[string]time.Time // {key: expiry}
}

func NewDeliveredFlags(ttl time.Duration) *DeliveredFlags {
	return &DeliveredFlags{ttl: ttl, flags: make(map[string]time.Time)}
}

func (f *DeliveredFlags) MarkDelivered(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := core.NowFunc()
	if exp, ok := f.flags[key]; ok && (f.ttl <= 0 || now.Before(exp)) {
		return false, nil
	}
	f.flags[key] = now.Add(f.ttl)
	return true, nil
}

func (f *DeliveredFlags) Unmark(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.flags, key)
	return nil
}
