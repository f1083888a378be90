package catalog

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/HerencsarMichal/citacka/internal/bookstore"
)

// GeneratedSource synthesizes a catalog of Size books from fixed word
// lists. The same seed always yields the same catalog.
type GeneratedSource struct {
	Size int
	Seed int64
}

var (
	genAdjectives = []string{
		"Silent", "Crimson", "Forgotten", "Endless", "Hollow",
		"Golden", "Distant", "Broken", "Hidden", "Burning",
	}
	genNouns = []string{
		"Garden", "River", "Mountain", "Library", "Voyage",
		"Kingdom", "Winter", "Mirror", "Harbor", "Orchard",
	}
	genFirstNames = []string{
		"Anna", "Viktor", "Milena", "Jozef", "Clara", "Tomas", "Elena", "Martin",
	}
	genLastNames = []string{
		"Kovac", "Horvath", "Novak", "Urban", "Bielik", "Sloboda", "Marek",
	}
	genGenres = []string{
		"fantasy", "sci-fi", "mystery", "romance", "history", "poetry",
	}
)

func (g GeneratedSource) Load(ctx context.Context) ([]bookstore.Book, error) {
	size := g.Size
	if size <= 0 {
		size = 12
	}

	rng := rand.New(rand.NewSource(g.Seed))
	books := make([]bookstore.Book, 0, size)

	for i := 0; i < size; i++ {
		adj := genAdjectives[rng.Intn(len(genAdjectives))]
		noun := genNouns[rng.Intn(len(genNouns))]
		author := genFirstNames[rng.Intn(len(genFirstNames))] + " " +
			genLastNames[rng.Intn(len(genLastNames))]
		genre := genGenres[rng.Intn(len(genGenres))]

		books = append(books, bookstore.Book{
			ID:          int64(i + 1),
			Title:       fmt.Sprintf("The %s %s", adj, noun),
			Author:      author,
			Genre:       genre,
			Description: fmt.Sprintf("A %s tale about the %s %s.", genre, adj, noun),
			PriceCents:  int64(399 + rng.Intn(2200)),
			Stock:       1 + rng.Intn(9),
		})
	}

	return books, nil
}
