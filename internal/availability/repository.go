package availability

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("availability not found")
	ErrMissingMenuItemID = errors.New("menuItemId is required")
	ErrInvalidMenuItemID = errors.New("menuItemId must be positive")
)

// Repository defines all storage operations for availability entries.
// Implementations key rows by menu item id.
type Repository interface {

	// Insert or replace the stored state for entry.MenuItemID
	Upsert(
		ctx context.Context,
		entry Entry,
		updatedBy string,
	) (*Record, error)

	// ErrNotFound when nothing has been stored for the id
	Get(ctx context.Context, menuItemID int64) (*Record, error)

	// Stored rows among ids, keyed by menu item id. Missing ids are
	// simply absent from the map.
	GetMany(ctx context.Context, ids []int64) (map[int64]Record, error)

	// Ordered by menu item id. A nil filter returns every row.
	List(ctx context.Context, filter *State) ([]Record, error)

	Delete(ctx context.Context, menuItemID int64) error
}
