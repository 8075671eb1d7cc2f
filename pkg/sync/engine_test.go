package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/config"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/gymsite"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/logger"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/models"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/store"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/venues"
)

func approvedPage(venue, name, date, slots string) string {
	return `<html><body><div class="order">` +
		`<p>审核通过，可以进场</p>` +
		`<div><label>预约场馆</label><div>` + venue + `</div></div>` +
		`<div><label>预约姓名</label><div>` + name + `</div></div>` +
		`<div><label>预约时间</label>` +
		`<span style="font-weight:600;margin-right:1rem">` + date + `</span>` +
		`<em>` + slots + `</em></div>` +
		`</div></body></html>`
}

const notReadyPage = `<html><body><p>审核中</p></body></html>`
const cancelledPage = `<html><body><p>已退款，禁止进场</p></body></html>`

func testVenues() *venues.Map {
	return venues.New(
		map[int]string{1: "田径场健身房", 2: "体育馆三楼羽毛球馆1号场"},
		map[string][]string{},
	)
}

func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		ProbeWindow:  5,
		Concurrency:  2,
		RetriesPerID: 2,
		JitterMin:    time.Millisecond,
		JitterMax:    2 * time.Millisecond,
		SeedID:       823,
	}
}

// testEngine wires an engine against a stub site. bodies maps the id query
// parameter to the page served; unmapped ids are not ready.
func testEngine(t *testing.T, bodies map[string]string) (*Engine, *store.Store, func()) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if body, ok := bodies[r.URL.Query().Get("id")]; ok {
			w.Write([]byte(body))
			return
		}
		w.Write([]byte(notReadyPage))
	}))

	st, err := store.Open(filepath.Join(t.TempDir(), "mirror.db"), logger.NopLogger{})
	require.NoError(t, err)

	client := gymsite.NewClient(server.URL, 5*time.Second, nil, logger.NopLogger{})
	engine := NewEngine(client, st, testVenues(), testSyncConfig(), logger.NopLogger{})

	cleanup := func() {
		st.Close()
		server.Close()
	}
	return engine, st, cleanup
}

// futureDate returns a date guaranteed to survive age pruning.
func futureDate() string {
	return time.Now().AddDate(0, 0, 1).Format(models.DateLayout)
}

func TestReconcileDiscoversNewOrders(t *testing.T) {
	date := futureDate()
	engine, st, cleanup := testEngine(t, map[string]string{
		"824": approvedPage("田径场健身房", "张三", date, "19;20"),
		"826": approvedPage("体育馆三楼羽毛球馆1号场", "李四", date, "10"),
	})
	defer cleanup()
	ctx := context.Background()

	// The store is empty: the seed id anchors the probe window at 824..828.
	report, err := engine.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 3, report.NotReady)
	assert.Equal(t, 0, report.Failed)

	ids, err := st.ListIDs(ctx, store.Orders)
	require.NoError(t, err)
	assert.Equal(t, []int64{824, 826}, ids)

	// A second cycle anchors at 826 and discovers nothing new.
	report, err = engine.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Inserted)
	assert.Equal(t, 5, report.NotReady)

	ids, err = st.ListIDs(ctx, store.Orders)
	require.NoError(t, err)
	assert.Equal(t, []int64{824, 826}, ids)
}

func TestReconcilePrunesExpiredRecordsFirst(t *testing.T) {
	engine, st, cleanup := testEngine(t, nil)
	defer cleanup()
	ctx := context.Background()

	expired := models.Record{
		ExternalID: 700,
		Venue:      "田径场健身房",
		Date:       "2020-01-01",
		TimeSlot:   "10",
	}
	_, err := st.Insert(ctx, store.Orders, expired)
	require.NoError(t, err)
	_, err = st.Insert(ctx, store.Reservations, expired)
	require.NoError(t, err)

	report, err := engine.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Pruned)

	exists, err := st.Exists(ctx, store.Orders, 700)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReconcileSkipsUnknownVenues(t *testing.T) {
	date := futureDate()
	engine, st, cleanup := testEngine(t, map[string]string{
		"824": approvedPage("不存在的场馆", "张三", date, "19"),
	})
	defer cleanup()
	ctx := context.Background()

	report, err := engine.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Inserted)
	assert.Equal(t, 1, report.Failed)

	ids, err := st.ListIDs(ctx, store.Orders)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSweepRemovesOnlyExplicitlyCancelled(t *testing.T) {
	date := futureDate()
	engine, st, cleanup := testEngine(t, map[string]string{
		"824": cancelledPage,
		"826": approvedPage("田径场健身房", "张三", date, "19"),
		// 828 is unmapped: the not-ready body has no cancellation marker.
	})
	defer cleanup()
	ctx := context.Background()

	for _, id := range []int64{824, 826, 828} {
		_, err := st.Insert(ctx, store.Orders, models.Record{
			ExternalID: id,
			Venue:      "田径场健身房",
			Date:       date,
			TimeSlot:   "19",
		})
		require.NoError(t, err)
	}
	_, err := st.Insert(ctx, store.Reservations, models.Record{
		ExternalID: 824,
		Venue:      "田径场健身房",
		Date:       date,
		TimeSlot:   "19",
	})
	require.NoError(t, err)

	swept, err := engine.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	ids, err := st.ListIDs(ctx, store.Orders)
	require.NoError(t, err)
	assert.Equal(t, []int64{826, 828}, ids)

	// The matching reservation goes with the cancelled order.
	exists, err := st.Exists(ctx, store.Reservations, 824)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSweepLeavesRecordsOnFetchFailure(t *testing.T) {
	date := futureDate()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	st, err := store.Open(filepath.Join(t.TempDir(), "mirror.db"), logger.NopLogger{})
	require.NoError(t, err)
	defer st.Close()

	client := gymsite.NewClient(server.URL, 5*time.Second, nil, logger.NopLogger{})
	engine := NewEngine(client, st, testVenues(), testSyncConfig(), logger.NopLogger{})
	ctx := context.Background()

	_, err = st.Insert(ctx, store.Orders, models.Record{
		ExternalID: 824,
		Venue:      "田径场健身房",
		Date:       date,
		TimeSlot:   "19",
	})
	require.NoError(t, err)

	swept, err := engine.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	exists, err := st.Exists(ctx, store.Orders, 824)
	require.NoError(t, err)
	assert.True(t, exists)
}
