package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"hezora/internal/domain"
)

type BookWriter interface {
	Upsert(ctx context.Context, book domain.Book) (*domain.Book, error)
}

// CSVImporter reads catalog CSV files and inserts or updates books by title.
//
// Recognised columns: title, description, price, file (alias file_path).
// Column order does not matter; unknown columns are ignored.
type CSVImporter struct {
	reader   *csv.Reader
	bookRepo BookWriter
}

func NewCSVImporter(r io.Reader, repo BookWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:   csvr,
		bookRepo: repo,
	}
}

type csvRow struct {
	line        int
	Title       string
	Description string
	Price       string
	File        string
}

// Run parses CSV rows and upserts one book per non-empty row. It stops at the
// first invalid row and reports how many books were written before it.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["title"]; !ok {
		return 0, errors.New("missing required column \"title\"")
	}
	if _, ok := index["price"]; !ok {
		return 0, errors.New("missing required column \"price\"")
	}

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		line, _ := i.reader.FieldPos(0)
		row := parseRow(record, index, line)
		if row == nil {
			continue
		}
		if err := i.save(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Title == "" {
		return fmt.Errorf("line %d: title is required", row.line)
	}
	price, err := decimal.NewFromString(row.Price)
	if err != nil {
		return fmt.Errorf("line %d: invalid price %q for %q", row.line, row.Price, row.Title)
	}
	if price.IsNegative() {
		return fmt.Errorf("line %d: negative price for %q", row.line, row.Title)
	}

	b := domain.Book{
		Title:       row.Title,
		Description: row.Description,
		Price:       price.Round(2),
		FilePath:    row.File,
	}

	if _, err := i.bookRepo.Upsert(ctx, b); err != nil {
		return fmt.Errorf("upsert book %q: %w", row.Title, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if pos, ok := idx["file_path"]; ok {
		if _, dup := idx["file"]; !dup {
			idx["file"] = pos
		}
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) *csvRow {
	row := &csvRow{
		line:        line,
		Title:       pick(record, index, "title"),
		Description: pick(record, index, "description"),
		Price:       pick(record, index, "price"),
		File:        pick(record, index, "file"),
	}
	if row.Title == "" && row.Price == "" && row.Description == "" && row.File == "" {
		return nil
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
