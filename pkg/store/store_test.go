package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/logger"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "mirror.db"), logger.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(id int64, date string) models.Record {
	return models.Record{
		ExternalID: id,
		Venue:      "田径场健身房",
		HolderName: "张三",
		Date:       date,
		TimeSlot:   "19;20",
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	inserted, err := s.Insert(ctx, Orders, record(824, "2026-09-01"))
	require.NoError(t, err)
	assert.True(t, inserted)

	// A second insert of the same external id is a no-op, not an error.
	changed := record(824, "2026-09-01")
	changed.HolderName = "李四"
	inserted, err = s.Insert(ctx, Orders, changed)
	require.NoError(t, err)
	assert.False(t, inserted)

	recs, err := s.QueryByFilters(ctx, Orders, Filters{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "张三", recs[0].HolderName)
}

func TestFindMaxID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.FindMaxID(ctx, Orders)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, id := range []int64{824, 830, 826} {
		_, err := s.Insert(ctx, Orders, record(id, "2026-09-01"))
		require.NoError(t, err)
	}

	max, ok, err := s.FindMaxID(ctx, Orders)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(830), max)
}

func TestStoresAreIndependent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, Orders, record(824, "2026-09-01"))
	require.NoError(t, err)

	exists, err := s.Exists(ctx, Reservations, 824)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = s.Exists(ctx, Orders, 824)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteOlderThan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for id, date := range map[int64]string{
		824: "2026-08-30",
		825: "2026-08-31",
		826: "2026-09-01",
		827: "2026-09-02",
	} {
		_, err := s.Insert(ctx, Orders, record(id, date))
		require.NoError(t, err)
	}

	pruned, err := s.DeleteOlderThan(ctx, Orders, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	ids, err := s.ListIDs(ctx, Orders)
	require.NoError(t, err)
	assert.Equal(t, []int64{826, 827}, ids)
}

func TestDeleteBoth(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, Orders, record(824, "2026-09-01"))
	require.NoError(t, err)
	_, err = s.Insert(ctx, Reservations, record(824, "2026-09-01"))
	require.NoError(t, err)
	_, err = s.Insert(ctx, Orders, record(825, "2026-09-01"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteBoth(ctx, 824))

	for _, name := range []Name{Orders, Reservations} {
		exists, err := s.Exists(ctx, name, 824)
		require.NoError(t, err)
		assert.False(t, exists, "store %s", name)
	}

	exists, err := s.Exists(ctx, Orders, 825)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteBothMissingIDIsNoop(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.DeleteBoth(context.Background(), 999))
}

func TestQueryByFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rows := []models.Record{
		{ExternalID: 824, Venue: "田径场健身房", Date: "2026-09-01", TimeSlot: "19;20"},
		{ExternalID: 825, Venue: "体育馆三楼羽毛球馆1号场", Date: "2026-09-01", TimeSlot: "10"},
		{ExternalID: 826, Venue: "田径场健身房", Date: "2026-09-02", TimeSlot: "9"},
	}
	for _, r := range rows {
		_, err := s.Insert(ctx, Orders, r)
		require.NoError(t, err)
	}

	t.Run("by venue", func(t *testing.T) {
		recs, err := s.QueryByFilters(ctx, Orders, Filters{Venues: []string{"田径场健身房"}})
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("by date", func(t *testing.T) {
		recs, err := s.QueryByFilters(ctx, Orders, Filters{Date: "2026-09-02"})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, int64(826), recs[0].ExternalID)
	})

	t.Run("by slot substring", func(t *testing.T) {
		recs, err := s.QueryByFilters(ctx, Orders, Filters{TimeSlot: "20"})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, int64(824), recs[0].ExternalID)
	})

	t.Run("combined", func(t *testing.T) {
		recs, err := s.QueryByFilters(ctx, Orders, Filters{
			Venues: []string{"田径场健身房"},
			Date:   "2026-09-01",
		})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, int64(824), recs[0].ExternalID)
	})

	t.Run("no filters returns all", func(t *testing.T) {
		recs, err := s.QueryByFilters(ctx, Orders, Filters{})
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})
}

func TestUnknownStoreName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, Name("bogus"), record(1, "2026-09-01"))
	assert.Error(t, err)
	_, _, err = s.FindMaxID(ctx, Name("bogus"))
	assert.Error(t, err)
}
