// Package seed loads the demo catalog shipped with the binary.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"hezora/internal/domain"
)

//go:embed books.yaml
var defaultCatalog []byte

type bookSeed struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	File        string `yaml:"file"`
}

type catalogFile struct {
	Books []bookSeed `yaml:"books"`
}

type bookUpserter interface {
	Upsert(ctx context.Context, book domain.Book) (*domain.Book, error)
}

// Default returns the embedded demo catalog.
func Default() []byte {
	return defaultCatalog
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) ([]domain.Book, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	books := make([]domain.Book, 0, len(file.Books))
	for i, s := range file.Books {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			return nil, fmt.Errorf("book %d: title is required", i+1)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(s.Price))
		if err != nil {
			return nil, fmt.Errorf("book %q: price %q: %w", title, s.Price, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("book %q: price must not be negative", title)
		}
		books = append(books, domain.Book{
			Title:       title,
			Description: strings.TrimSpace(s.Description),
			Price:       price,
			FilePath:    strings.TrimSpace(s.File),
		})
	}
	return books, nil
}

// Apply upserts every book of the catalog document, keyed by title. It is
// idempotent.
func Apply(ctx context.Context, repo bookUpserter, data []byte) (int, error) {
	books, err := Parse(data)
	if err != nil {
		return 0, err
	}
	for _, b := range books {
		if _, err := repo.Upsert(ctx, b); err != nil {
			return 0, fmt.Errorf("upsert book %q: %w", b.Title, err)
		}
	}
	return len(books), nil
}
