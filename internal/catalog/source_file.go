package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HerencsarMichal/citacka/internal/bookstore"
)

// FileSource loads the catalog from a JSON or YAML file holding an array
// of book records.
type FileSource struct {
	Path string
}

func (f FileSource) Load(ctx context.Context) ([]bookstore.Book, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var books []bookstore.Book
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &books)
	default:
		err = json.Unmarshal(raw, &books)
	}
	if err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", filepath.Base(f.Path), err)
	}

	if err := validate(books); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return books, nil
}
