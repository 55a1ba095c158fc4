package availability

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------
// Fakes
// --------------------------------------------------

type fakeStorage struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (f *fakeStorage) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.key = key
	f.contentType = contentType
	f.body, _ = io.ReadAll(body)
	return "https://cdn.example.com/" + key, nil
}

type countingRepository struct {
	*MemoryRepository
	gets, getManys int
}

func (r *countingRepository) Get(ctx context.Context, id int64) (*Record, error) {
	r.gets++
	return r.MemoryRepository.Get(ctx, id)
}

func (r *countingRepository) GetMany(ctx context.Context, ids []int64) (map[int64]Record, error) {
	r.getManys++
	return r.MemoryRepository.GetMany(ctx, ids)
}

type failingRepository struct {
	*MemoryRepository
	failOn int64
}

func (r *failingRepository) Upsert(ctx context.Context, entry Entry, updatedBy string) (*Record, error) {
	if entry.MenuItemID != nil && *entry.MenuItemID == r.failOn {
		return nil, errors.New("db down")
	}
	return r.MemoryRepository.Upsert(ctx, entry, updatedBy)
}

func newTestService() (*Service, *MemoryRepository) {
	repo := NewMemoryRepository()
	return NewService(repo, nil), repo
}

// --------------------------------------------------
// Update
// --------------------------------------------------

func TestUpdate_StoresTriState(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Update(ctx, NewEntry(ItemID(1), Bool(true)), "chef-1")
	require.NoError(t, err)
	_, err = svc.Update(ctx, NewEntry(ItemID(2), Bool(false)), "chef-1")
	require.NoError(t, err)
	_, err = svc.Update(ctx, NewEntry(ItemID(3), nil), "chef-1")
	require.NoError(t, err)

	rec, err := repo.Get(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, rec.Available)
	assert.Equal(t, "chef-1", rec.UpdatedBy)
	assert.False(t, rec.UpdatedAt.IsZero())

	rec, err = repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, StateUnavailable, rec.State())
}

func TestUpdate_RequiresMenuItemID(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Update(context.Background(), NewEntry(nil, Bool(true)), "chef-1")
	assert.ErrorIs(t, err, ErrMissingMenuItemID)
}

func TestUpdate_RejectsNonPositiveID(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	for _, id := range []int64{0, -5} {
		_, err := svc.Update(ctx, NewEntry(ItemID(id), Bool(true)), "chef-1")
		assert.ErrorIs(t, err, ErrInvalidMenuItemID)
	}

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdate_Overwrites(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, _ = svc.Update(ctx, NewEntry(ItemID(9), Bool(true)), "chef-1")
	_, err := svc.Update(ctx, NewEntry(ItemID(9), Bool(false)), "chef-2")
	require.NoError(t, err)

	e, rec, err := svc.Lookup(ctx, 9)
	require.NoError(t, err)
	assert.False(t, e.IsAvailable())
	assert.Equal(t, "chef-2", rec.UpdatedBy)
}

func TestStoredEntryIsDetached(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	flag := Bool(true)
	_, err := svc.Update(ctx, NewEntry(ItemID(5), flag), "chef-1")
	require.NoError(t, err)

	*flag = false

	e, _, err := svc.Lookup(ctx, 5)
	require.NoError(t, err)
	assert.True(t, e.IsAvailable())
}

// --------------------------------------------------
// Batch
// --------------------------------------------------

func TestUpdateBatch(t *testing.T) {
	svc, _ := newTestService()

	records, err := svc.UpdateBatch(context.Background(), []Entry{
		NewEntry(ItemID(1), Bool(true)),
		NewEntry(ItemID(2), nil),
	}, "chef-1")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestUpdateBatch_ValidatesBeforeWriting(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.UpdateBatch(ctx, []Entry{
		NewEntry(ItemID(1), Bool(true)),
		NewEntry(nil, Bool(true)),
	}, "chef-1")
	assert.ErrorIs(t, err, ErrMissingMenuItemID)

	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBatch_RejectsNonPositiveID(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.UpdateBatch(ctx, []Entry{
		NewEntry(ItemID(1), Bool(true)),
		NewEntry(ItemID(-5), Bool(true)),
	}, "chef-1")
	assert.ErrorIs(t, err, ErrInvalidMenuItemID)

	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBatch_Empty(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.UpdateBatch(context.Background(), nil, "chef-1")
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestUpdateBatch_StoreError(t *testing.T) {
	repo := &failingRepository{MemoryRepository: NewMemoryRepository(), failOn: 2}
	svc := NewService(repo, nil)

	done, err := svc.UpdateBatch(context.Background(), []Entry{
		NewEntry(ItemID(1), Bool(true)),
		NewEntry(ItemID(2), Bool(true)),
	}, "chef-1")
	assert.Error(t, err)
	assert.Len(t, done, 1)
}

// --------------------------------------------------
// Reads
// --------------------------------------------------

func TestLookup_UnknownItemIsNotAvailable(t *testing.T) {
	svc, _ := newTestService()

	e, rec, err := svc.Lookup(context.Background(), 404)
	require.NoError(t, err)

	assert.Nil(t, rec)
	assert.Equal(t, int64(404), *e.MenuItemID)
	assert.Nil(t, e.Available)
	assert.False(t, e.IsAvailable())
}

func TestCheck_KeepsRequestOrder(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, _ = svc.Update(ctx, NewEntry(ItemID(1), Bool(true)), "chef-1")
	_, _ = svc.Update(ctx, NewEntry(ItemID(2), Bool(false)), "chef-1")

	entries, err := svc.Check(ctx, []int64{3, 1, 2, 1})
	require.NoError(t, err)
	require.Len(t, entries, 4)

	got := make([]State, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.State())
	}
	assert.Equal(t, []State{StateUnknown, StateAvailable, StateUnavailable, StateAvailable}, got)
}

func TestCheck_SingleRepositoryRead(t *testing.T) {
	repo := &countingRepository{MemoryRepository: NewMemoryRepository()}
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, _ = svc.Update(ctx, NewEntry(ItemID(1), Bool(true)), "chef-1")

	entries, err := svc.Check(ctx, []int64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	assert.Equal(t, 1, repo.getManys)
	assert.Zero(t, repo.gets)
}

func TestCheck_Limits(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Check(ctx, []int64{1, 0})
	assert.ErrorIs(t, err, ErrInvalidMenuItemID)

	ids := make([]int64, MaxCheckIDs+1)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	_, err = svc.Check(ctx, ids)
	assert.ErrorIs(t, err, ErrTooManyIDs)

	_, err = svc.Check(ctx, ids[:MaxCheckIDs])
	assert.NoError(t, err)
}

func TestList_Filter(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, _ = svc.UpdateBatch(ctx, []Entry{
		NewEntry(ItemID(3), Bool(true)),
		NewEntry(ItemID(1), Bool(false)),
		NewEntry(ItemID(2), nil),
		NewEntry(ItemID(4), Bool(true)),
	}, "chef-1")

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, int64(1), *all[0].MenuItemID)

	st := StateAvailable
	available, err := svc.List(ctx, &st)
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.Equal(t, int64(3), *available[0].MenuItemID)
	assert.Equal(t, int64(4), *available[1].MenuItemID)

	st = StateUnknown
	unknown, err := svc.List(ctx, &st)
	require.NoError(t, err)
	require.Len(t, unknown, 1)
	assert.Equal(t, int64(2), *unknown[0].MenuItemID)
}

func TestClear(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, _ = svc.Update(ctx, NewEntry(ItemID(8), Bool(true)), "chef-1")
	require.NoError(t, svc.Clear(ctx, 8))

	e, rec, err := svc.Lookup(ctx, 8)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, StateUnknown, e.State())

	assert.ErrorIs(t, svc.Clear(ctx, 8), ErrNotFound)
	assert.ErrorIs(t, svc.Clear(ctx, 0), ErrInvalidMenuItemID)
}

// --------------------------------------------------
// Snapshot
// --------------------------------------------------

func TestExportSnapshot(t *testing.T) {
	store := &fakeStorage{}
	svc := NewService(NewMemoryRepository(), store)
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	_, _ = svc.Update(ctx, NewEntry(ItemID(1), Bool(true)), "chef-1")
	_, _ = svc.Update(ctx, NewEntry(ItemID(2), nil), "chef-1")

	res, err := svc.ExportSnapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, res.ItemCount)
	assert.True(t, strings.HasPrefix(res.Key, "availability/snapshots/20261019T083000Z-"))
	assert.True(t, strings.HasSuffix(res.Key, ".json"))
	assert.Equal(t, "https://cdn.example.com/"+res.Key, res.URL)
	assert.Equal(t, "application/json", store.contentType)

	var doc struct {
		Items []struct {
			MenuItemID *int64 `json:"menuItemId"`
			Available  *bool  `json:"available"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(store.body, &doc))
	require.Len(t, doc.Items, 2)
	assert.True(t, *doc.Items[0].Available)
	assert.Nil(t, doc.Items[1].Available)
}

func TestExportSnapshot_Disabled(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ExportSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotDisabled)
}

func TestExportSnapshot_UploadError(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &fakeStorage{err: errors.New("bucket gone")})

	_, err := svc.ExportSnapshot(context.Background())
	assert.Error(t, err)
}
