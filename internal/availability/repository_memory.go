package availability

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	records map[int64]Record
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[int64]Record),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Upsert(
	ctx context.Context,
	entry Entry,
	updatedBy string,
) (*Record, error) {
	if entry.MenuItemID == nil {
		return nil, ErrMissingMenuItemID
	}

	rec := Record{
		Entry:     copyEntry(entry),
		UpdatedAt: r.now().UTC(),
		UpdatedBy: updatedBy,
	}

	r.mu.Lock()
	r.records[*entry.MenuItemID] = rec
	r.mu.Unlock()

	out := rec
	out.Entry = copyEntry(rec.Entry)
	return &out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, menuItemID int64) (*Record, error) {
	r.mu.RLock()
	rec, ok := r.records[menuItemID]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	rec.Entry = copyEntry(rec.Entry)
	return &rec, nil
}

func (r *MemoryRepository) GetMany(ctx context.Context, ids []int64) (map[int64]Record, error) {
	out := make(map[int64]Record, len(ids))

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range ids {
		if rec, ok := r.records[id]; ok {
			rec.Entry = copyEntry(rec.Entry)
			out[id] = rec
		}
	}
	return out, nil
}

func (r *MemoryRepository) List(ctx context.Context, filter *State) ([]Record, error) {
	r.mu.RLock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		if filter != nil && rec.State() != *filter {
			continue
		}
		rec.Entry = copyEntry(rec.Entry)
		out = append(out, rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return *out[i].MenuItemID < *out[j].MenuItemID
	})
	return out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, menuItemID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[menuItemID]; !ok {
		return ErrNotFound
	}
	delete(r.records, menuItemID)
	return nil
}

// copyEntry detaches the pointers so callers cannot mutate stored rows.
func copyEntry(e Entry) Entry {
	var out Entry
	if e.MenuItemID != nil {
		out.MenuItemID = ItemID(*e.MenuItemID)
	}
	if e.Available != nil {
		out.Available = Bool(*e.Available)
	}
	return out
}
