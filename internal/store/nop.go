package store

import (
	"context"

	"github.com/amishk599/jobscout/internal/model"
)

// NopStore is a no-op store used in dry-run mode. It holds nothing, so every
// job appears new on each run.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) ExistingKeys(context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (s *NopStore) Append(context.Context, []model.AnnotatedJob) error { return nil }

func (s *NopStore) MarkReviewed(context.Context, []string) (int, error) { return 0, nil }

func (s *NopStore) PruneReviewed(context.Context) (int, error) { return 0, nil }

func (s *NopStore) Close() error { return nil }
