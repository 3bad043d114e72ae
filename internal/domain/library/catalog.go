package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"library-engine/internal/domain/catalog"
	"library-engine/internal/pkg/apperrors"
)

func (s *service) AddBook(ctx context.Context, title, author, isbn string) (*catalog.Item, error) {
	return s.addItem(ctx, catalog.NewBook(title, author, isbn))
}

func (s *service) AddCD(ctx context.Context, title, artist, id string) (*catalog.Item, error) {
	return s.addItem(ctx, catalog.NewCD(title, artist, id))
}

func (s *service) addItem(ctx context.Context, item *catalog.Item) (*catalog.Item, error) {
	if item.ID == "" {
		return nil, apperrors.NewValidationError("id", "identifier is required")
	}
	if item.Title == "" {
		return nil, apperrors.NewValidationError("title", "title is required")
	}
	if strings.Contains(item.Title+item.Creator+item.ID, ",") {
		return nil, apperrors.NewValidationError("title", "commas are not allowed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sh := s.shelfFor(item.Kind)
	if !sh.add(item) {
		s.logger.WarnContext(ctx, "Rejected duplicate catalog item", "kind", item.Kind.String(), "id", item.ID)
		return nil, fmt.Errorf("%w: %s %s", apperrors.ErrAlreadyExists, item.Kind, item.ID)
	}

	if err := s.catalogRepo(item.Kind).SaveAll(ctx, sh.all()); err != nil {
		sh.remove(item.ID)
		s.logger.ErrorContext(ctx, "Failed to persist catalog", "kind", item.Kind.String(), slog.Any("error", err))
		return nil, err
	}

	s.logger.InfoContext(ctx, "Catalog item added", "kind", item.Kind.String(), "id", item.ID)
	return item.Clone(), nil
}

func (s *service) Book(ctx context.Context, isbn string) (*catalog.Item, error) {
	return s.item(ctx, catalog.KindBook, isbn)
}

func (s *service) CD(ctx context.Context, id string) (*catalog.Item, error) {
	return s.item(ctx, catalog.KindCD, id)
}

func (s *service) item(_ context.Context, kind catalog.Kind, id string) (*catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.shelfFor(kind).get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, kind, id)
	}
	return item.Clone(), nil
}

func (s *service) Books(_ context.Context) []*catalog.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.books.all())
}

func (s *service) CDs(_ context.Context) []*catalog.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.cds.all())
}

// SearchBooks matches title substrings and exact author or ISBN. A blank
// keyword returns the whole shelf.
func (s *service) SearchBooks(_ context.Context, keyword string) []*catalog.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.books.search(keyword))
}

func (s *service) SearchCDs(_ context.Context, keyword string) []*catalog.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.cds.search(keyword))
}
