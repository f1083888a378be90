// Package catalog supplies the store's catalog and book texts. The two
// Source implementations cover the observed deployment variants: a
// structured data file and a deterministic generator.
package catalog

import (
	"fmt"

	"github.com/HerencsarMichal/citacka/internal/bookstore"
)

// validate enforces what the store assumes about every catalog record:
// unique ids, non-negative price, non-negative stock.
func validate(books []bookstore.Book) error {
	seen := make(map[int64]struct{}, len(books))
	for _, b := range books {
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("duplicate book id %d", b.ID)
		}
		seen[b.ID] = struct{}{}

		if b.PriceCents < 0 {
			return fmt.Errorf("book %d: negative price", b.ID)
		}
		if b.Stock < 0 {
			return fmt.Errorf("book %d: negative stock", b.ID)
		}
	}
	return nil
}
