package profiles

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/soltixdb/sst/internal/models"
)

// MemoryStore keeps profiles in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]models.Profile)}
}

func (s *MemoryStore) Put(_ context.Context, p *models.Profile) error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.profiles[p.Name]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	s.profiles[p.Name] = *p
	return nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return &p, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		p := p
		list = append(list, &p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.profiles, name)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
