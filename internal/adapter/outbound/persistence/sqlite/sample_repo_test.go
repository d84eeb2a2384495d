package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonny/anomaly-insight/internal/adapter/outbound/persistence/sqlite"
	"github.com/jonny/anomaly-insight/internal/domain/port/outbound"
)

func seedWorkloadTable(t *testing.T, store *sqlite.Store) {
	t.Helper()
	_, err := store.DB.Exec(`CREATE TABLE "cloud_workload_dataset" (
		timestamp DATETIME NOT NULL,
		"Error_Rate _%_" REAL,
		"CPU_Utilization _%_" REAL
	)`)
	if err != nil {
		t.Fatalf("creating workload table: %v", err)
	}

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := []struct {
		offset time.Duration
		value  any
	}{
		{0, 1.2},
		{time.Hour, 1.5},
		{2 * time.Hour, nil},
		{3 * time.Hour, 2.1},
	}
	for _, row := range rows {
		_, err := store.DB.Exec(
			`INSERT INTO "cloud_workload_dataset" (timestamp, "Error_Rate _%_") VALUES (?, ?)`,
			base.Add(row.offset), row.value,
		)
		if err != nil {
			t.Fatalf("seeding sample: %v", err)
		}
	}
}

func TestFetchSamples(t *testing.T) {
	store := newTestStore(t)
	seedWorkloadTable(t, store)
	repo := sqlite.NewSampleRepo(store)

	samples, err := repo.FetchSamples(context.Background(), "Error_Rate _%_", "cloud_workload_dataset", nil)
	if err != nil {
		t.Fatalf("FetchSamples: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples (null skipped), got %d", len(samples))
	}
	if samples[0] != 1.2 || samples[2] != 2.1 {
		t.Errorf("unexpected sample values %v", samples)
	}
}

func TestFetchSamplesTimeRange(t *testing.T) {
	store := newTestStore(t)
	seedWorkloadTable(t, store)
	repo := sqlite.NewSampleRepo(store)

	tr := &outbound.TimeRange{
		Start: time.Date(2025, 6, 1, 1, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC),
	}
	samples, err := repo.FetchSamples(context.Background(), "Error_Rate _%_", "cloud_workload_dataset", tr)
	if err != nil {
		t.Fatalf("FetchSamples: %v", err)
	}
	if len(samples) != 1 || samples[0] != 1.5 {
		t.Errorf("expected [1.5] within range, got %v", samples)
	}
}

func TestFetchSamplesRejectsBadIdentifiers(t *testing.T) {
	store := newTestStore(t)
	repo := sqlite.NewSampleRepo(store)

	if _, err := repo.FetchSamples(context.Background(), `col"; DROP TABLE x;--`, "cloud_workload_dataset", nil); err == nil {
		t.Error("expected error for malicious column name")
	}
	if _, err := repo.FetchSamples(context.Background(), "Error_Rate _%_", "", nil); err == nil {
		t.Error("expected error for empty table name")
	}
}
