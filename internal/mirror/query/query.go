// Package query is the read path over the docmirror store, consumed by the
// CLI listing and the dashboard.
package query

import (
	"context"
	"time"

	"github.com/docmirror/docmirror/internal/mirror/db"
	"github.com/docmirror/docmirror/internal/mirror/schema"
	"github.com/rs/zerolog"
)

// Filter narrows Find results.
type Filter struct {
	Folder string
	Since  time.Time
	Limit  int
}

// Store is the part of db.DB the read path needs.
type Store interface {
	ListDocuments(ctx context.Context, filter db.ListFilter) ([]schema.DocumentView, error)
}

// Service answers document queries.
type Service struct {
	store  Store
	logger zerolog.Logger
}

// New creates a Service. A nil logger disables logging.
func New(store Store, logger *zerolog.Logger) *Service {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "query").Logger()
	}
	return &Service{store: store, logger: l}
}

// ListDocuments returns every document with its folder name. A store
// failure is logged and yields an empty result rather than an error.
func (s *Service) ListDocuments(ctx context.Context) []schema.DocumentView {
	docs, err := s.store.ListDocuments(ctx, db.ListFilter{})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to retrieve documents from store")
		return []schema.DocumentView{}
	}
	return docs
}

// Find returns documents matching filter and reports store failures.
func (s *Service) Find(ctx context.Context, filter Filter) ([]schema.DocumentView, error) {
	return s.store.ListDocuments(ctx, db.ListFilter{
		Folder: filter.Folder,
		Since:  filter.Since,
		Limit:  filter.Limit,
	})
}
