package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/domain"
	"github.com/Emzykings/PallyOps-Tracker/internal/schedule"
	"github.com/Emzykings/PallyOps-Tracker/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type batchFixture struct {
	*opFixture
	batches BatchService
	kv      *store.MemoryKV
}

func newBatchFixture(t *testing.T) *batchFixture {
	t.Helper()
	f := newOpFixture(t)
	kv := store.NewMemoryKV()
	bs := NewBatchService(f.repo, f.cal, schedule.DefaultSequence(), kv, time.Hour, zap.NewNop())
	return &batchFixture{opFixture: f, batches: bs, kv: kv}
}

// completeBatch runs every role of a batch to completion.
func (f *batchFixture) completeBatch(t *testing.T, date, batch string, total, onTime int) {
	t.Helper()
	for _, role := range schedule.DefaultRoles {
		f.start(t, date, batch, role, "u1")
		if role == schedule.DriverRole {
			_, err := f.svc.EndDriver(context.Background(), EndDriverRequest{
				OperationDate: date, Batch: batch, TotalOrders: total, OnTimeDeliveries: onTime, ActorID: "u1",
			})
			require.NoError(t, err)
			continue
		}
		f.end(t, date, batch, role, "u1")
	}
}

func TestBatchService_ListBatches(t *testing.T) {
	f := newBatchFixture(t)
	ctx := context.Background()

	f.start(t, testToday, "B", "Procurement", "u1")
	f.completeBatch(t, testToday, "C", 10, 8)

	list, err := f.batches.ListBatches(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, testToday, list.OperationDate)
	assert.Equal(t, "Wednesday", list.DayOfWeek)
	assert.False(t, list.IsRestrictedDay)
	assert.False(t, list.IsReadOnly)
	require.Len(t, list.Batches, 4)

	assert.Equal(t, domain.BatchRed, list.Batches[0].Status)
	assert.Equal(t, 0.0, list.Batches[0].ProgressPercentage)

	assert.Equal(t, domain.BatchYellow, list.Batches[1].Status)
	assert.Equal(t, 1, list.Batches[1].StartedCount)
	assert.Equal(t, 0, list.Batches[1].CompletedCount)

	assert.Equal(t, domain.BatchGreen, list.Batches[2].Status)
	assert.Equal(t, 100.0, list.Batches[2].ProgressPercentage)
	assert.Equal(t, 11, list.Batches[2].TotalRoles)
}

func TestBatchService_ListBatchesRestrictedPastDay(t *testing.T) {
	f := newBatchFixture(t)

	list, err := f.batches.ListBatches(context.Background(), "2024-01-15")
	require.NoError(t, err)
	assert.True(t, list.IsRestrictedDay)
	assert.True(t, list.IsReadOnly)
	require.Len(t, list.Batches, 3)
	assert.Equal(t, "C", list.Batches[2].Batch)
}

func TestBatchService_GetBatch(t *testing.T) {
	f := newBatchFixture(t)
	ctx := context.Background()
	f.start(t, testToday, "A", "Procurement", "u1")
	f.end(t, testToday, "A", "Procurement", "u1")

	detail, err := f.batches.GetBatch(ctx, testToday, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", detail.Batch)
	assert.Equal(t, domain.BatchYellow, detail.Status)
	assert.Equal(t, 9.09, detail.ProgressPercentage)

	_, err = f.batches.GetBatch(ctx, "2024-01-18", "D")
	requireKind(t, err, KindNotAvailable)

	_, err = f.batches.GetBatch(ctx, testToday, "Z")
	requireKind(t, err, KindValidation)
}

func TestBatchService_GetBatchRolesInSequenceOrder(t *testing.T) {
	f := newBatchFixture(t)
	f.start(t, testToday, "D", "QC-out", "u1")
	f.clock.Advance(7 * time.Minute)
	f.end(t, testToday, "D", "QC-out", "u2")
	f.start(t, testToday, "D", "Manifester", "u2")

	br, err := f.batches.GetBatchRoles(context.Background(), testToday, "D")
	require.NoError(t, err)
	assert.Equal(t, "January", br.Month)
	assert.Equal(t, 2024, br.Year)
	require.Len(t, br.Roles, 11)

	for i, rs := range br.Roles {
		assert.Equal(t, schedule.DefaultRoles[i], rs.Role)
		assert.Equal(t, i+1, rs.Order)
	}
	qc := br.Roles[6]
	assert.Equal(t, domain.StatusCompleted, qc.Status)
	assert.Equal(t, 7, *qc.DurationMinutes)
	assert.Equal(t, "Bayo Ade", *qc.CompletedBy)
	assert.Equal(t, domain.StatusInProgress, br.Roles[9].Status)
	assert.Equal(t, domain.StatusPending, br.Roles[0].Status)
	assert.Equal(t, 2, br.StartedCount)
	assert.Equal(t, 1, br.CompletedCount)
}

func TestBatchService_InitializeIsIdempotent(t *testing.T) {
	f := newBatchFixture(t)
	ctx := context.Background()

	res, err := f.batches.InitializeBatch(ctx, testToday, "A")
	require.NoError(t, err)
	assert.Equal(t, 11, res.Created)
	assert.Equal(t, 11, res.TotalRoles)

	res, err = f.batches.InitializeBatch(ctx, testToday, "A")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)

	recs, err := f.repo.ListOperations(ctx, f.cal.Today(), "A")
	require.NoError(t, err)
	require.Len(t, recs, 11)
	for _, r := range recs {
		assert.Equal(t, domain.StatusPending, r.Status())
	}

	detail, err := f.batches.GetBatch(ctx, testToday, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.BatchRed, detail.Status)

	// placeholders do not get in the way of starting
	f.start(t, testToday, "A", "Procurement", "u1")
}

func TestBatchService_InitializeGuards(t *testing.T) {
	f := newBatchFixture(t)
	ctx := context.Background()

	_, err := f.batches.InitializeBatch(ctx, testYesterday, "A")
	requireKind(t, err, KindReadOnly)

	_, err = f.batches.InitializeBatch(ctx, "2024-01-18", "D")
	requireKind(t, err, KindNotAvailable)

	_, err = f.batches.InitializeBatch(ctx, "", "A")
	requireKind(t, err, KindValidation)
}

func TestBatchService_DailySummary(t *testing.T) {
	f := newBatchFixture(t)
	ctx := context.Background()

	empty, err := f.batches.DailySummary(ctx, testToday)
	require.NoError(t, err)
	assert.Equal(t, 4, empty.TotalBatches)
	assert.Equal(t, 44, empty.TotalRoles)
	assert.Equal(t, 0.0, empty.OverallProgress)
	assert.Nil(t, empty.TotalOrdersDelivered)
	assert.Nil(t, empty.OverallOnTimePercentage, "no deliveries is not 0%")

	f.completeBatch(t, testToday, "A", 150, 142)
	f.completeBatch(t, testToday, "B", 50, 40)
	f.start(t, testToday, "C", "Procurement", "u1")

	sum, err := f.batches.DailySummary(ctx, testToday)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.CompletedBatches)
	assert.Equal(t, 22, sum.CompletedRoles)
	assert.Equal(t, 50.0, sum.OverallProgress)
	assert.Equal(t, 200, *sum.TotalOrdersDelivered)
	assert.Equal(t, 182, *sum.TotalOnTimeDeliveries)
	assert.Equal(t, 91.0, *sum.OverallOnTimePercentage)
	require.Len(t, sum.Batches, 4)
	assert.Equal(t, domain.BatchYellow, sum.Batches[2].Status)

	_, err = f.kv.Get(ctx, "pallyops:summary:"+testToday)
	assert.ErrorIs(t, err, store.ErrMiss, "today's summary is never cached")
}

func TestBatchService_DailySummaryZeroOrders(t *testing.T) {
	f := newBatchFixture(t)
	f.completeBatch(t, testToday, "A", 0, 0)

	sum, err := f.batches.DailySummary(context.Background(), testToday)
	require.NoError(t, err)
	assert.Nil(t, sum.TotalOrdersDelivered)
	assert.Nil(t, sum.OverallOnTimePercentage)
	assert.Equal(t, 1, sum.CompletedBatches)
}

func TestBatchService_DailySummaryCachesPastDates(t *testing.T) {
	f := newBatchFixture(t)
	ctx := context.Background()

	f.completeBatch(t, testToday, "A", 20, 15)
	f.clock.Advance(24 * time.Hour)

	sum, err := f.batches.DailySummary(ctx, testToday)
	require.NoError(t, err)
	assert.Equal(t, 75.0, *sum.OverallOnTimePercentage)

	raw, err := f.kv.Get(ctx, "pallyops:summary:"+testToday)
	require.NoError(t, err)
	var cached domain.DailySummary
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, sum.CompletedRoles, cached.CompletedRoles)

	// a poisoned entry is served as-is, proving the cache is read
	cached.CompletedBatches = 99
	poisoned, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, f.kv.Set(ctx, "pallyops:summary:"+testToday, string(poisoned), time.Hour))

	again, err := f.batches.DailySummary(ctx, testToday)
	require.NoError(t, err)
	assert.Equal(t, 99, again.CompletedBatches)

	// corrupt entries are recomputed
	require.NoError(t, f.kv.Set(ctx, "pallyops:summary:"+testToday, "{", time.Hour))
	again, err = f.batches.DailySummary(ctx, testToday)
	require.NoError(t, err)
	assert.Equal(t, 1, again.CompletedBatches)
}

func TestBatchService_DailyReport(t *testing.T) {
	f := newBatchFixture(t)
	f.completeBatch(t, testToday, "B", 12, 12)

	report, err := f.batches.DailyReport(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, testToday, report.Summary.OperationDate)
	require.Len(t, report.Batches, 4)
	assert.Equal(t, "B", report.Batches[1].Batch)
	assert.Equal(t, domain.BatchGreen, report.Batches[1].Status)
	assert.Equal(t, 100.0, *report.Batches[1].Roles[10].OnTimePercentage)
}
