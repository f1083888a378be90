package bookstore

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Snapshot keys. Each is written on every mutation and restored
// independently; a missing or corrupt snapshot never blocks the others.
const (
	keyCart      = "cart"
	keyPurchased = "purchasedBooks"
	keyStocks    = "booksStocks"
)

// PersistState writes the cart, purchased copies, and stock-by-id
// snapshots. Failures are logged and swallowed; persistence never fails
// the mutation that triggered it.
func (s *Store) PersistState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
}

func (s *Store) persistLocked() {
	s.saveSnapshot(keyCart, s.cart)
	s.saveSnapshot(keyPurchased, s.purchased)

	stocks := make(map[int64]int, len(s.books))
	for _, b := range s.books {
		stocks[b.ID] = b.Stock
	}
	s.saveSnapshot(keyStocks, stocks)
}

func (s *Store) saveSnapshot(key string, v any) {
	b, err := json.Marshal(v)
	if err == nil {
		err = s.kv.Set(key, b)
	}
	if err != nil {
		s.log.Warn("snapshot write failed", zap.String("key", key), zap.Error(err))
	}
}

// RestoreState rehydrates the cart and purchased copies from their
// snapshots, best effort per key. The stock overlay happens in Initialize,
// once the catalog exists to overlay onto.
func (s *Store) RestoreState() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cart []CartLine
	if s.loadSnapshot(keyCart, &cart) {
		s.cart = cart
		s.log.Info("cart restored", zap.Int("lines", len(cart)))
	}

	var purchased []PurchasedCopy
	if s.loadSnapshot(keyPurchased, &purchased) {
		s.purchased = purchased
		s.log.Info("library restored", zap.Int("copies", len(purchased)))
	}
}

// loadSnapshot reads one key into v. Any failure, read or decode, is
// treated as "no saved data".
func (s *Store) loadSnapshot(key string, v any) bool {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		s.log.Warn("snapshot read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.log.Warn("snapshot decode failed, ignoring", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}
