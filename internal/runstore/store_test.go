package runstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"limitedseller/internal/pipeline"
	"limitedseller/lib/telemetry"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func setup(t testing.TB) (Store, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:runstore")

	store, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	return store, func() {
		store.Close()
		cleanup()
	}
}

func sampleReport(id string, started time.Time) pipeline.RunReport {
	item := pipeline.HeldItem{ID: 42, Name: "Sparkle Time Fedora", Category: pipeline.CategoryRestrictedCatalog}
	return pipeline.RunReport{
		RunID:       id,
		StartedAt:   started,
		FinishedAt:  started.Add(3 * time.Second),
		Candidates:  3,
		FilteredOut: 1,
		Attempted:   2,
		Listed:      1,
		Failed:      1,
		Outcomes: []pipeline.ItemOutcome{
			{Item: item, State: pipeline.StateListed, MarketPrice: 100, TargetPrice: 105},
			{
				Item:   pipeline.HeldItem{ID: 7, Name: "Valk", Category: pipeline.CategoryUserGeneratedRestricted},
				State:  pipeline.StateListingFailed,
				Reason: pipeline.ReasonRemoteRejected,
				Detail: "status 403",
			},
		},
	}
}

func TestSaveAndListRuns(t *testing.T) {
	store, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	cfg := pipeline.RunConfig{Strategy: pipeline.AboveMarket(decimal.RequireFromString("1.05"))}
	base := time.UnixMilli(1_720_000_000_000)
	require.NoError(t, store.SaveRun(ctx, sampleReport("older", base), cfg))
	require.NoError(t, store.SaveRun(ctx, sampleReport("newer", base.Add(time.Hour)), cfg))

	runs, err := store.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "newer", runs[0].ID)
	require.Equal(t, "older", runs[1].ID)
	require.Equal(t, base, runs[1].StartedAt)
	require.Equal(t, 1, runs[0].Listed)
	require.Equal(t, 1, runs[0].Failed)
	require.Equal(t, cfg.Strategy.String(), runs[0].Strategy)

	runs, err = store.Runs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	outcomes, err := store.Outcomes(ctx, "older")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.Equal(t, int64(42), outcomes[0].AssetID)
	require.Equal(t, "listed", outcomes[0].State)
	require.Equal(t, int64(105), outcomes[0].TargetPrice)
	require.Equal(t, "remote_rejected", outcomes[1].Reason)
	require.Equal(t, "UGC Limited", outcomes[1].Category)
}

func TestSaveRunIsAtomic(t *testing.T) {
	store, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	report := sampleReport("dup", time.Now())
	require.NoError(t, store.SaveRun(ctx, report, pipeline.RunConfig{}))
	require.Error(t, store.SaveRun(ctx, report, pipeline.RunConfig{}))

	outcomes, err := store.Outcomes(ctx, "dup")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
}

func TestBind(t *testing.T) {
	store, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, ok, err := store.Bound(ctx, "RBX-KEY")
	require.NoError(t, err)
	require.False(t, ok)

	hwid, err := store.Bind(ctx, "RBX-KEY", "machine-a")
	require.NoError(t, err)
	require.Equal(t, "machine-a", hwid)

	hwid, err = store.Bind(ctx, "RBX-KEY", "machine-b")
	require.NoError(t, err)
	require.Equal(t, "machine-a", hwid)

	hwid, ok, err = store.Bound(ctx, "RBX-KEY")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "machine-a", hwid)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
