package bookstore

import "time"

// Book is a catalog entry. Stock is the only field mutated after load,
// and only by checkout or the persisted-stock overlay.
type Book struct {
	ID          int64  `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Author      string `json:"author" yaml:"author"`
	Genre       string `json:"genre" yaml:"genre"`
	Description string `json:"description" yaml:"description"`
	PriceCents  int64  `json:"price_cents" yaml:"price_cents"`
	Stock       int    `json:"stock" yaml:"stock"`
	Filename    string `json:"filename,omitempty" yaml:"filename,omitempty"`
	Content     string `json:"content,omitempty" yaml:"content,omitempty"`
}

// CartLine references a book by id; at most one line per book.
type CartLine struct {
	BookID   int64     `json:"book_id"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"added_at"`
}

type ReadStatus string

const (
	StatusPlanned   ReadStatus = "planned"
	StatusReading   ReadStatus = "reading"
	StatusCompleted ReadStatus = "completed"
)

// StatusForProgress derives the reading status a copy must carry for a
// given progress value.
func StatusForProgress(progress int) ReadStatus {
	switch {
	case progress >= 100:
		return StatusCompleted
	case progress > 0:
		return StatusReading
	default:
		return StatusPlanned
	}
}

// PurchasedCopy is one owned unit of a book. Buying N copies of a title
// yields N records, each with its own progress.
type PurchasedCopy struct {
	CopyID      string     `json:"copy_id"`
	BookID      int64      `json:"book_id"`
	PurchasedAt time.Time  `json:"purchased_at"`
	Status      ReadStatus `json:"status"`
	Progress    int        `json:"progress"`
}

// LibraryEntry joins a purchased copy with the descriptive fields of its
// book. Copy fields win; a copy whose book is gone from the catalog keeps
// zero-valued book fields rather than being dropped.
type LibraryEntry struct {
	CopyID      string     `json:"copy_id"`
	BookID      int64      `json:"book_id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Genre       string     `json:"genre"`
	Description string     `json:"description"`
	PriceCents  int64      `json:"price_cents"`
	Filename    string     `json:"filename,omitempty"`
	PurchasedAt time.Time  `json:"purchased_at"`
	Status      ReadStatus `json:"status"`
	Progress    int        `json:"progress"`
}

// OrderSummary is the ephemeral checkout receipt; it is returned to the
// caller and never persisted.
type OrderSummary struct {
	OrderID    string     `json:"order_id"`
	Lines      []CartLine `json:"lines"`
	TotalCents int64      `json:"total_cents"`
	PlacedAt   time.Time  `json:"placed_at"`
}

// BookContent is a book together with its text, when the text could be
// loaded. Content is nil when the fetch failed or no content exists.
type BookContent struct {
	Book    Book    `json:"book"`
	Content *string `json:"content"`
}
