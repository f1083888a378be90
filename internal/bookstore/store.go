// Package bookstore holds the catalog/cart/library state container: the
// authoritative in-memory state, its derived views, and the mutating
// operations that enforce the stock invariants and snapshot the state to
// durable storage.
package bookstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HerencsarMichal/citacka/internal/snapshot"
)

// CatalogSource supplies the catalog once at initialization.
type CatalogSource interface {
	Load(ctx context.Context) ([]Book, error)
}

// ContentFetcher resolves a book's filename to its text.
type ContentFetcher interface {
	Fetch(ctx context.Context, filename string) (string, error)
}

// Store is the state container. All operations hold the lock for their
// full span, so each one observes and produces consistent state; that is
// what makes checkout all-or-nothing.
type Store struct {
	mu      sync.RWMutex
	log     *zap.Logger
	kv      snapshot.KV
	content ContentFetcher

	books     []Book
	cart      []CartLine
	purchased []PurchasedCopy
	loading   bool
	loadErr   error
}

func New(kv snapshot.KV, content ContentFetcher, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{log: log, kv: kv, content: content}
}

// Initialize obtains the catalog from src. On success missing filenames get
// defaults and persisted stock levels are overlaid; on failure the catalog
// is reset to empty and the error is kept for Err. The loading flag is
// cleared on every exit path and no error escapes.
func (s *Store) Initialize(ctx context.Context, src CatalogSource) {
	s.mu.Lock()
	s.loading = true
	s.loadErr = nil
	s.mu.Unlock()

	books, err := src.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.loading = false }()

	if err != nil {
		s.books = nil
		s.loadErr = fmt.Errorf("%w: %v", ErrDataLoad, err)
		s.log.Error("catalog load failed", zap.Error(err))
		return
	}

	for i := range books {
		if books[i].Filename == "" {
			books[i].Filename = fmt.Sprintf("Book%d.txt", books[i].ID)
		}
	}

	var stocks map[int64]int
	if s.loadSnapshot(keyStocks, &stocks) {
		for i := range books {
			if v, ok := stocks[books[i].ID]; ok {
				books[i].Stock = v
			}
		}
	}

	s.books = books
	s.log.Info("catalog loaded", zap.Int("books", len(books)))
}

// Loading reports whether an Initialize call is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the failure of the last Initialize, if any.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// --- derived views ---

func (s *Store) Books() []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Book, len(s.books))
	copy(out, s.books)
	return out
}

func (s *Store) Book(id int64) (Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.findBook(id)
	if b == nil {
		return Book{}, false
	}
	return *b, true
}

// AvailableBooks is the catalog filtered to stock > 0.
func (s *Store) AvailableBooks() []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Book, 0, len(s.books))
	for _, b := range s.books {
		if b.Stock > 0 {
			out = append(out, b)
		}
	}
	return out
}

func (s *Store) Cart() []CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CartLine, len(s.cart))
	copy(out, s.cart)
	return out
}

// CartItemCount is the sum of quantities across cart lines.
func (s *Store) CartItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, line := range s.cart {
		total += line.Quantity
	}
	return total
}

// CartTotalCents prices the cart against the current catalog. Lines whose
// book is gone contribute zero.
func (s *Store) CartTotalCents() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cartTotalLocked()
}

func (s *Store) cartTotalLocked() int64 {
	var total int64
	for _, line := range s.cart {
		if b := s.findBook(line.BookID); b != nil {
			total += b.PriceCents * int64(line.Quantity)
		}
	}
	return total
}

// Library merges each purchased copy with its book's descriptive fields.
func (s *Store) Library() []LibraryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LibraryEntry, 0, len(s.purchased))
	for _, c := range s.purchased {
		e := LibraryEntry{
			CopyID:      c.CopyID,
			BookID:      c.BookID,
			PurchasedAt: c.PurchasedAt,
			Status:      c.Status,
			Progress:    c.Progress,
		}
		if b := s.findBook(c.BookID); b != nil {
			e.Title = b.Title
			e.Author = b.Author
			e.Genre = b.Genre
			e.Description = b.Description
			e.PriceCents = b.PriceCents
			e.Filename = b.Filename
		}
		out = append(out, e)
	}
	return out
}

func (s *Store) IsInCart(bookID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLine(bookID) != nil
}

func (s *Store) IsPurchased(bookID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.purchased {
		if c.BookID == bookID {
			return true
		}
	}
	return false
}

// --- mutations ---

// AddToCart adds quantity units of a book to the cart, merging into an
// existing line. The stock check is against the prospective line total,
// not just the delta. Quantities below one mean one.
func (s *Store) AddToCart(bookID int64, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.findBook(bookID)
	if b == nil {
		return fmt.Errorf("book %d: %w", bookID, ErrNotFound)
	}

	want := quantity
	line := s.findLine(bookID)
	if line != nil {
		want += line.Quantity
	}
	if want > b.Stock {
		return fmt.Errorf("%q: %w: requested %d, in stock %d", b.Title, ErrInsufficientStock, want, b.Stock)
	}

	if line != nil {
		line.Quantity = want
	} else {
		s.cart = append(s.cart, CartLine{
			BookID:   bookID,
			Quantity: quantity,
			AddedAt:  time.Now().UTC(),
		})
	}

	s.persistLocked()
	return nil
}

// RemoveFromCart drops the line for bookID. Removing an absent line is a
// no-op, not an error.
func (s *Store) RemoveFromCart(bookID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeLineLocked(bookID) {
		s.persistLocked()
	}
}

func (s *Store) removeLineLocked(bookID int64) bool {
	for i, line := range s.cart {
		if line.BookID == bookID {
			s.cart = append(s.cart[:i], s.cart[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateCartQuantity sets a line's quantity exactly. Zero or negative
// means remove.
func (s *Store) UpdateCartQuantity(bookID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := s.findLine(bookID)
	b := s.findBook(bookID)
	if line == nil || b == nil {
		return fmt.Errorf("cart line for book %d: %w", bookID, ErrNotFound)
	}

	if quantity <= 0 {
		s.removeLineLocked(bookID)
		s.persistLocked()
		return nil
	}

	if quantity > b.Stock {
		return fmt.Errorf("%q: %w: requested %d, in stock %d", b.Title, ErrInsufficientStock, quantity, b.Stock)
	}

	line.Quantity = quantity
	s.persistLocked()
	return nil
}

// ClearCart unconditionally empties the cart.
func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
	s.persistLocked()
}

// Checkout validates every line against current stock before touching
// anything; only after the whole cart passes are stocks decremented and
// one purchased copy appended per unit. On any failure no state changes.
func (s *Store) Checkout() (OrderSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cart) == 0 {
		return OrderSummary{}, ErrEmptyCart
	}

	for _, line := range s.cart {
		b := s.findBook(line.BookID)
		if b == nil {
			return OrderSummary{}, fmt.Errorf("unknown book %d: %w", line.BookID, ErrInsufficientStock)
		}
		if line.Quantity > b.Stock {
			return OrderSummary{}, fmt.Errorf("%q: %w: requested %d, in stock %d", b.Title, ErrInsufficientStock, line.Quantity, b.Stock)
		}
	}

	now := time.Now().UTC()
	total := s.cartTotalLocked()

	for _, line := range s.cart {
		b := s.findBook(line.BookID)
		b.Stock -= line.Quantity

		for i := 0; i < line.Quantity; i++ {
			s.purchased = append(s.purchased, PurchasedCopy{
				CopyID:      "c_" + uuid.NewString(),
				BookID:      line.BookID,
				PurchasedAt: now,
				Status:      StatusPlanned,
				Progress:    0,
			})
		}
	}

	summary := OrderSummary{
		OrderID:    "o_" + uuid.NewString(),
		Lines:      make([]CartLine, len(s.cart)),
		TotalCents: total,
		PlacedAt:   now,
	}
	copy(summary.Lines, s.cart)

	s.cart = nil
	s.persistLocked()

	s.log.Info("checkout completed",
		zap.String("order_id", summary.OrderID),
		zap.Int("lines", len(summary.Lines)),
		zap.Int64("total_cents", summary.TotalCents),
	)
	return summary, nil
}

// UpdateReadingProgress updates the first purchased copy of bookID.
// With several copies of one title only that first copy is addressable
// this way; UpdateCopyProgress reaches an exact copy.
func (s *Store) UpdateReadingProgress(bookID int64, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.purchased {
		if s.purchased[i].BookID == bookID {
			s.setProgressLocked(&s.purchased[i], progress)
			return nil
		}
	}
	return fmt.Errorf("purchased copy of book %d: %w", bookID, ErrNotFound)
}

// UpdateCopyProgress updates one copy by its unique id.
func (s *Store) UpdateCopyProgress(copyID string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.purchased {
		if s.purchased[i].CopyID == copyID {
			s.setProgressLocked(&s.purchased[i], progress)
			return nil
		}
	}
	return fmt.Errorf("copy %s: %w", copyID, ErrNotFound)
}

func (s *Store) setProgressLocked(c *PurchasedCopy, progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	c.Progress = progress
	c.Status = StatusForProgress(progress)
	s.persistLocked()
}

// LoadBookContent returns the book together with its text. Content already
// resident on the book is returned as is; otherwise the fetcher is asked.
// A failed fetch degrades to nil content, it never fails the call.
func (s *Store) LoadBookContent(ctx context.Context, bookID int64) (BookContent, bool) {
	b, ok := s.Book(bookID)
	if !ok {
		return BookContent{}, false
	}

	if b.Content != "" {
		c := b.Content
		return BookContent{Book: b, Content: &c}, true
	}

	if s.content != nil {
		text, err := s.content.Fetch(ctx, b.Filename)
		if err != nil {
			s.log.Warn("book content fetch failed",
				zap.Int64("book_id", bookID),
				zap.String("filename", b.Filename),
				zap.Error(err),
			)
			return BookContent{Book: b}, true
		}
		return BookContent{Book: b, Content: &text}, true
	}

	return BookContent{Book: b}, true
}

// --- lookups (callers hold the lock) ---

func (s *Store) findBook(id int64) *Book {
	for i := range s.books {
		if s.books[i].ID == id {
			return &s.books[i]
		}
	}
	return nil
}

func (s *Store) findLine(bookID int64) *CartLine {
	for i := range s.cart {
		if s.cart[i].BookID == bookID {
			return &s.cart[i]
		}
	}
	return nil
}
