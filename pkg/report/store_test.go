package report

import (
	"context"
	"testing"
	"time"

	"github.com/klokku/revenue/internal/test_utils"
	"github.com/klokku/revenue/pkg/period"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var june = period.NewMonth(2025, time.June)

func record(date, process, revenue string) Record {
	return Record{
		Date:            date,
		Process:         process,
		Location:        "Noida",
		ClusterHead:     "Asha",
		Pay:             "100",
		BillableMinutes: "240",
		BillableFTECap:  "2",
		TargetRevenue:   "200",
		Mandays:         "22",
		Revenue:         revenue,
		BillableRevenue: revenue,
		MTD:             revenue,
		Deficit:         "-0.05",
	}
}

func setupTestStore(t *testing.T) (context.Context, Store) {
	db := test_utils.SetupTestDB(t)
	return context.Background(), NewStore(db)
}

func TestStoreImpl_Save(t *testing.T) {
	t.Run("should list saved rows in report order", func(t *testing.T) {
		// given
		ctx, store := setupTestStore(t)
		records := []Record{
			record("02-06-2025", "X", "7"),
			record("03-06-2025", "X", "12"),
			record("02-06-2025", "A", "5"),
		}
		run := Run{ID: "run-1", Month: june.String(), CreatedAt: time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC), Rows: 3}

		// when
		err := store.Save(ctx, run, records)

		// then
		require.NoError(t, err)
		stored, err := store.ListRows(ctx, june)
		require.NoError(t, err)
		assert.Equal(t, records, stored)
	})

	t.Run("should replace the rows of a month on a second run", func(t *testing.T) {
		// given
		ctx, store := setupTestStore(t)
		first := Run{ID: "run-1", Month: june.String(), CreatedAt: time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)}
		second := Run{ID: "run-2", Month: june.String(), CreatedAt: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)}
		require.NoError(t, store.Save(ctx, first, []Record{
			record("02-06-2025", "X", "7"),
			record("02-06-2025", "Gone", "1"),
		}))

		// when
		err := store.Save(ctx, second, []Record{record("02-06-2025", "X", "9")})

		// then
		require.NoError(t, err)
		stored, err := store.ListRows(ctx, june)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "9", stored[0].Revenue)

		latest, err := store.LatestRun(ctx, june)
		require.NoError(t, err)
		assert.Equal(t, "run-2", latest.ID)
		assert.True(t, second.CreatedAt.Equal(latest.CreatedAt))
	})

	t.Run("should keep other months untouched", func(t *testing.T) {
		ctx, store := setupTestStore(t)
		july := period.NewMonth(2025, time.July)
		require.NoError(t, store.Save(ctx, Run{ID: "june", Month: june.String(), CreatedAt: time.Now()}, []Record{record("02-06-2025", "X", "7")}))
		require.NoError(t, store.Save(ctx, Run{ID: "july", Month: july.String(), CreatedAt: time.Now()}, []Record{record("01-07-2025", "X", "3")}))

		stored, err := store.ListRows(ctx, june)

		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "7", stored[0].Revenue)
	})
}

func TestStoreImpl_LatestRun_NotFound(t *testing.T) {
	ctx, store := setupTestStore(t)

	_, err := store.LatestRun(ctx, june)

	assert.ErrorIs(t, err, ErrRunNotFound)
}
