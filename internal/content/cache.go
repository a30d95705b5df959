package content

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/pathforge/internal/store"
)

// Cache holds generated sections per (plan, module).
type Cache interface {
	Load(ctx context.Context, planID, moduleID string) (map[Kind]Section, error)
	Store(ctx context.Context, planID, moduleID string, s Section) error
}

// StoreCache persists sections in a store.ContentRepo.
type StoreCache struct {
	repo store.ContentRepo
}

// NewStoreCache creates a Cache backed by repo.
func NewStoreCache(repo store.ContentRepo) *StoreCache {
	return &StoreCache{repo: repo}
}

// Load implements Cache.
func (c *StoreCache) Load(ctx context.Context, planID, moduleID string) (map[Kind]Section, error) {
	records, err := c.repo.List(ctx, planID, moduleID)
	if err != nil {
		return nil, err
	}
	out := make(map[Kind]Section, len(records))
	for _, r := range records {
		var s Section
		if err := json.Unmarshal(r.Body, &s); err != nil {
			return nil, fmt.Errorf("decode cached %s section: %w", r.Kind, err)
		}
		s.Kind = Kind(r.Kind)
		out[s.Kind] = s
	}
	return out, nil
}

// Store implements Cache.
func (c *StoreCache) Store(ctx context.Context, planID, moduleID string, s Section) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode %s section: %w", s.Kind, err)
	}
	return c.repo.Put(ctx, &store.ContentRecord{
		PlanID:   planID,
		ModuleID: moduleID,
		Kind:     string(s.Kind),
		Body:     body,
	})
}
