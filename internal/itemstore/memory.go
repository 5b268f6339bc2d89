package itemstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// MemoryStore is an in-process Store used for tests and fixture replay.
type MemoryStore struct {
	mu      sync.Mutex
	items   map[string]types.Item
	lessons map[string]LessonInfo
	now     func() time.Time
}

// LessonInfo is the lesson context attached to items for candidate generation.
type LessonInfo struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NewMemoryStore creates a store holding copies of items.
func NewMemoryStore(items ...types.Item) *MemoryStore {
	s := &MemoryStore{
		items:   make(map[string]types.Item, len(items)),
		lessons: make(map[string]LessonInfo),
		now:     time.Now,
	}
	for _, item := range items {
		s.items[item.ID] = item.Clone()
	}
	return s
}

// LoadMemoryStore reads a JSON array of items from path.
func LoadMemoryStore(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read items file %s: %w", path, err)
	}
	var items []types.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse items JSON: %w", err)
	}
	return NewMemoryStore(items...), nil
}

// SetClock overrides the clock used to stamp UpdatedAt on writes.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// PutLesson registers lesson context for LessonContext lookups.
func (s *MemoryStore) PutLesson(lessonID string, info LessonInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lessons[lessonID] = info
}

// Put inserts or replaces an item verbatim, including its UpdatedAt.
// It simulates an external author editing the corpus.
func (s *MemoryStore) Put(item types.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item.Clone()
}

// Delete removes an item, simulating an external deletion.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// ListAll implements Store.
func (s *MemoryStore) ListAll(_ context.Context, filter Filter) ([]types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Item, 0, len(s.items))
	for _, item := range s.items {
		if filter.Matches(item) {
			out = append(out, item.Clone())
		}
	}
	SortByUpdatedAt(out)
	return out, nil
}

// GetByID implements Store.
func (s *MemoryStore) GetByID(_ context.Context, id string) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, &NotFoundError{ItemID: id}
	}
	cp := item.Clone()
	return &cp, nil
}

// ApplyPatch implements Store.
func (s *MemoryStore) ApplyPatch(_ context.Context, id string, patch types.ItemPatch) (*types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, &NotFoundError{ItemID: id}
	}

	updated := patch.ApplyTo(item)
	stamp := s.now().UTC()
	if !stamp.After(item.UpdatedAt) {
		stamp = item.UpdatedAt.Add(time.Nanosecond)
	}
	updated.UpdatedAt = stamp
	s.items[id] = updated

	cp := updated.Clone()
	return &cp, nil
}

// LessonContext returns lesson title and body, or empty strings when unknown.
func (s *MemoryStore) LessonContext(_ context.Context, lessonID string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := s.lessons[lessonID]
	return info.Title, info.Body, nil
}
