//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"lymphos/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "lymphos.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreSaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	if err := store.SaveAntibody(ctx, model.Antibody{Antigen: model.Antigen{Value: 5}, Effort: 7}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.SaveAntibody(ctx, model.Antibody{Antigen: model.Antigen{Value: 5}, Effort: 9}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	record, ok, err := store.GetAntibodyRecord(ctx, 5)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted record")
	}
	if record.Effort != 7 {
		t.Fatalf("first-stored effort must win: got=%d want=7", record.Effort)
	}
}

func TestSQLiteStoreFindSynthesizesZeroEffort(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	if _, ok, err := store.FindAntibody(ctx, 5); err != nil || ok {
		t.Fatalf("unexpected hit before save: ok=%v err=%v", ok, err)
	}

	if err := store.SaveAntibody(ctx, model.Antibody{Antigen: model.Antigen{Value: 5}, Effort: 42}); err != nil {
		t.Fatalf("save: %v", err)
	}

	antibody, ok, err := store.FindAntibody(ctx, 5)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !ok {
		t.Fatal("expected hit after save")
	}
	if antibody.Effort != 0 {
		t.Fatalf("recalled antibody must have effort 0, got %d", antibody.Effort)
	}
}

func TestSQLiteStoreListAntibodyRecordsSorted(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	for _, value := range []int{9, 2, 5} {
		if err := store.SaveAntibody(ctx, model.Antibody{Antigen: model.Antigen{Value: value}, Effort: value + 1}); err != nil {
			t.Fatalf("save %d: %v", value, err)
		}
	}

	records, err := store.ListAntibodyRecords(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("unexpected record count: %d", len(records))
	}
	for i, want := range []int{2, 5, 9} {
		if records[i].Value != want {
			t.Fatalf("records not sorted by value: %+v", records)
		}
	}
}

func TestSQLiteStoreSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	input := model.SessionRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "s1",
		Source:          "console",
		Responses:       3,
		TotalEffort:     120,
	}
	if err := store.SaveSession(ctx, input); err != nil {
		t.Fatalf("save session: %v", err)
	}

	output, ok, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted session")
	}
	if output.Source != "console" || output.TotalEffort != 120 {
		t.Fatalf("unexpected session: %+v", output)
	}

	if _, ok, err := store.GetSession(ctx, "missing"); err != nil || ok {
		t.Fatalf("unexpected hit for missing session: ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStoreReset(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	if err := store.SaveAntibody(ctx, model.Antibody{Antigen: model.Antigen{Value: 5}, Effort: 7}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, ok, err := store.FindAntibody(ctx, 5); err != nil || ok {
		t.Fatalf("expected empty store after reset: ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "lymphos.db"))
	if err := store.SaveAntibody(context.Background(), model.Antibody{Antigen: model.Antigen{Value: 1}, Effort: 1}); err == nil {
		t.Fatal("expected error before init")
	}
}
