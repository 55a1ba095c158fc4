package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const MaxCheckIDs = 200

var (
	ErrEmptyBatch       = errors.New("at least one entry is required")
	ErrTooManyIDs       = fmt.Errorf("at most %d menu item ids per check", MaxCheckIDs)
	ErrSnapshotDisabled = errors.New("snapshot storage is not configured")
)

// ValidateMenuItemID is the single id rule shared by every read and write.
func ValidateMenuItemID(id int64) error {
	if id <= 0 {
		return ErrInvalidMenuItemID
	}
	return nil
}

func validateEntry(e Entry) error {
	if e.MenuItemID == nil {
		return ErrMissingMenuItemID
	}
	return ValidateMenuItemID(*e.MenuItemID)
}

// Storage is the object store snapshots are written to.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

type Service struct {
	repo    Repository
	storage Storage
	now     func() time.Time
}

// NewService wires the service. storage may be nil, in which case
// ExportSnapshot returns ErrSnapshotDisabled.
func NewService(repo Repository, storage Storage) *Service {
	return &Service{repo: repo, storage: storage, now: time.Now}
}

// --------------------------------------------------
// Write side
// --------------------------------------------------

func (s *Service) Update(
	ctx context.Context,
	entry Entry,
	actor string,
) (*Record, error) {
	if err := validateEntry(entry); err != nil {
		return nil, err
	}

	rec, err := s.repo.Upsert(ctx, entry, actor)
	if err != nil {
		return nil, fmt.Errorf("store availability for item %d: %w", *entry.MenuItemID, err)
	}

	log.Info().
		Int64("menu_item_id", *entry.MenuItemID).
		Str("state", entry.State().String()).
		Str("actor", actor).
		Msg("availability updated")

	return rec, nil
}

// UpdateBatch checks every entry before writing any of them.
func (s *Service) UpdateBatch(
	ctx context.Context,
	entries []Entry,
	actor string,
) ([]Record, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}

	for i, e := range entries {
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	out := make([]Record, 0, len(entries))
	for _, e := range entries {
		rec, err := s.repo.Upsert(ctx, e, actor)
		if err != nil {
			return out, fmt.Errorf("store availability for item %d: %w", *e.MenuItemID, err)
		}
		out = append(out, *rec)
	}

	log.Info().
		Int("count", len(out)).
		Str("actor", actor).
		Msg("availability batch updated")

	return out, nil
}

// Clear forgets the stored state; the item reads as unknown afterwards.
func (s *Service) Clear(ctx context.Context, menuItemID int64) error {
	if err := ValidateMenuItemID(menuItemID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, menuItemID)
}

// --------------------------------------------------
// Read side
// --------------------------------------------------

// Lookup never reports ErrNotFound. An item nobody has reported on comes
// back with a nil Available and a nil record.
func (s *Service) Lookup(
	ctx context.Context,
	menuItemID int64,
) (Entry, *Record, error) {
	if err := ValidateMenuItemID(menuItemID); err != nil {
		return Entry{}, nil, err
	}

	rec, err := s.repo.Get(ctx, menuItemID)
	if errors.Is(err, ErrNotFound) {
		return NewEntry(ItemID(menuItemID), nil), nil, nil
	}
	if err != nil {
		return Entry{}, nil, err
	}
	return rec.Entry, rec, nil
}

// Check resolves ids in request order with a single repository read.
func (s *Service) Check(ctx context.Context, ids []int64) ([]Entry, error) {
	if len(ids) > MaxCheckIDs {
		return nil, ErrTooManyIDs
	}
	for _, id := range ids {
		if err := ValidateMenuItemID(id); err != nil {
			return nil, fmt.Errorf("menu item %d: %w", id, err)
		}
	}

	stored, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		if rec, ok := stored[id]; ok {
			out = append(out, rec.Entry)
			continue
		}
		out = append(out, NewEntry(ItemID(id), nil))
	}
	return out, nil
}

// List returns stored records, optionally narrowed to one state.
func (s *Service) List(ctx context.Context, filter *State) ([]Record, error) {
	return s.repo.List(ctx, filter)
}

// --------------------------------------------------
// Snapshot export
// --------------------------------------------------

type snapshotDoc struct {
	ExportedAt time.Time `json:"exported_at"`
	Items      []Record  `json:"items"`
}

func (s *Service) ExportSnapshot(ctx context.Context) (*SnapshotResult, error) {
	if s.storage == nil {
		return nil, ErrSnapshotDisabled
	}

	records, err := s.repo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}

	exportedAt := s.now().UTC()
	body, err := json.Marshal(snapshotDoc{ExportedAt: exportedAt, Items: records})
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf(
		"availability/snapshots/%s-%s.json",
		exportedAt.Format("20060102T150405Z"),
		uuid.New().String(),
	)

	url, err := s.storage.Put(ctx, key, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}

	log.Info().
		Str("key", key).
		Int("items", len(records)).
		Msg("availability snapshot exported")

	return &SnapshotResult{
		Key:        key,
		URL:        url,
		ItemCount:  len(records),
		ExportedAt: exportedAt,
	}, nil
}
