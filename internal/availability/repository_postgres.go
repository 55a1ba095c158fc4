package availability

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// --------------------------------------------------
// UPSERT (ONE ROW PER MENU ITEM)
// --------------------------------------------------
func (r *PostgresRepository) Upsert(
	ctx context.Context,
	entry Entry,
	updatedBy string,
) (*Record, error) {
	if entry.MenuItemID == nil {
		return nil, ErrMissingMenuItemID
	}

	var (
		id  int64
		rec Record
	)

	// available stays NULL when the kitchen sent no value
	err := r.db.QueryRow(ctx, `
		INSERT INTO menu_item_availability (
			menu_item_id,
			available,
			updated_by,
			updated_at
		)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (menu_item_id)
		DO UPDATE SET
			available = EXCLUDED.available,
			updated_by = EXCLUDED.updated_by,
			updated_at = now()
		RETURNING menu_item_id, available, updated_by, updated_at
	`,
		*entry.MenuItemID,
		entry.Available,
		updatedBy,
	).Scan(
		&id,
		&rec.Available,
		&rec.UpdatedBy,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.MenuItemID = &id
	return &rec, nil
}

// --------------------------------------------------
// GET
// --------------------------------------------------
func (r *PostgresRepository) Get(
	ctx context.Context,
	menuItemID int64,
) (*Record, error) {

	var (
		id  int64
		rec Record
	)

	err := r.db.QueryRow(ctx, `
		SELECT menu_item_id, available, updated_by, updated_at
		FROM menu_item_availability
		WHERE menu_item_id = $1
	`, menuItemID).Scan(&id, &rec.Available, &rec.UpdatedBy, &rec.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rec.MenuItemID = &id
	return &rec, nil
}

// --------------------------------------------------
// GET MANY
// --------------------------------------------------
func (r *PostgresRepository) GetMany(
	ctx context.Context,
	ids []int64,
) (map[int64]Record, error) {
	out := make(map[int64]Record, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT menu_item_id, available, updated_by, updated_at
		FROM menu_item_availability
		WHERE menu_item_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out[*rec.MenuItemID] = rec
	}

	return out, rows.Err()
}

// --------------------------------------------------
// LIST
// --------------------------------------------------

// stateClause maps a filter onto a predicate over the available column so
// the idx_menu_item_availability_available index can serve it.
func stateClause(filter *State) string {
	if filter == nil {
		return ""
	}
	switch *filter {
	case StateAvailable:
		return "WHERE available = true"
	case StateUnavailable:
		return "WHERE available = false"
	default:
		return "WHERE available IS NULL"
	}
}

func (r *PostgresRepository) List(ctx context.Context, filter *State) ([]Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT menu_item_id, available, updated_by, updated_at
		FROM menu_item_availability
		`+stateClause(filter)+`
		ORDER BY menu_item_id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		id  int64
		rec Record
	)
	if err := row.Scan(
		&id,
		&rec.Available,
		&rec.UpdatedBy,
		&rec.UpdatedAt,
	); err != nil {
		return Record{}, err
	}
	rec.MenuItemID = &id
	return rec, nil
}

// --------------------------------------------------
// DELETE
// --------------------------------------------------
func (r *PostgresRepository) Delete(ctx context.Context, menuItemID int64) error {
	cmd, err := r.db.Exec(ctx, `
		DELETE FROM menu_item_availability
		WHERE menu_item_id = $1
	`, menuItemID)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
