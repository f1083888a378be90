// Package snapshot provides the durable key-value storage the store
// persists its state snapshots into. Backends share a tiny KV contract;
// which one is used is a deployment choice.
package snapshot

import (
	"context"
	"sync"
)

type KV interface {
	// Get returns the stored value for key, reporting false when the key
	// has never been written.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Ping(ctx context.Context) error
}

// MemKV is the in-process backend, used by tests and throwaway runs.
type MemKV struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemKV() *MemKV {
	return &MemKV{m: make(map[string][]byte)}
}

func (s *MemKV) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *MemKV) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	s.m[key] = v
	return nil
}

func (s *MemKV) Ping(ctx context.Context) error { return nil }
