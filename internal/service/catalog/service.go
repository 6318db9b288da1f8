package catalog

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"hezora/internal/domain"
	bookrepo "hezora/internal/repository/book"
)

// ErrMissingAsset means the book has no file or the file is gone from disk.
var ErrMissingAsset = errors.New("book asset missing")

type Service struct {
	repo      bookrepo.Repository
	mediaRoot string
}

func New(repo bookrepo.Repository, mediaRoot string) *Service {
	return &Service{repo: repo, mediaRoot: mediaRoot}
}

// List returns the catalog, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Book, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Book, error) {
	return s.repo.GetByID(ctx, id)
}

// Asset resolves the file behind a book. It returns domain.ErrNotFound for an
// unknown book and ErrMissingAsset when the file is unset, absent, or would
// resolve outside the media root.
func (s *Service) Asset(ctx context.Context, id int64) (*domain.Book, string, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !book.HasFile() {
		return book, "", ErrMissingAsset
	}
	path, ok := s.resolve(book.FilePath)
	if !ok {
		return book, "", ErrMissingAsset
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return book, "", ErrMissingAsset
		}
		return book, "", err
	}
	if info.IsDir() {
		return book, "", ErrMissingAsset
	}
	return book, path, nil
}

func (s *Service) resolve(rel string) (string, bool) {
	root, err := filepath.Abs(s.mediaRoot)
	if err != nil {
		return "", false
	}
	path := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
	if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

// DownloadName is the attachment filename offered for a book's file.
func DownloadName(b domain.Book) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', '\n', '\r':
			return '_'
		}
		return r
	}, strings.TrimSpace(b.Title))
	if name == "" {
		name = "book"
	}
	return name + ".pdf"
}
