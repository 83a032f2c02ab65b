package stats

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteSessionArtifacts(t *testing.T) {
	baseDir := t.TempDir()

	artifacts := SessionArtifacts{
		Config: SessionConfig{SessionID: "s1", Source: "console", StoreKind: "memory", MaxAntigen: 100, Seed: 1},
		Responses: []ResponseEvent{
			{Value: 3, Effort: 42, Recalled: false},
			{Value: 3, Effort: 0, Recalled: true},
		},
		Summary: SessionSummary{Responses: 2, Produced: 1, Recalled: 1, TotalEffort: 42, MeanEffort: 21},
	}

	sessionDir, err := WriteSessionArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	if sessionDir != filepath.Join(baseDir, "s1") {
		t.Fatalf("unexpected session dir: %s", sessionDir)
	}

	for _, file := range []string{"config.json", "responses.json", "summary.json"} {
		if _, err := os.Stat(filepath.Join(sessionDir, file)); err != nil {
			t.Fatalf("missing artifact %s: %v", file, err)
		}
	}
}

func TestWriteSessionArtifactsRequiresID(t *testing.T) {
	if _, err := WriteSessionArtifacts(t.TempDir(), SessionArtifacts{}); err == nil {
		t.Fatal("expected error for missing session id")
	}
}

func TestSessionIndexNewestFirst(t *testing.T) {
	baseDir := t.TempDir()

	entries := []SessionIndexEntry{
		{SessionID: "old", CreatedAtUTC: "2026-08-25T10:00:00Z"},
		{SessionID: "new", CreatedAtUTC: "2026-08-25T12:00:00Z"},
		{SessionID: "mid", CreatedAtUTC: "2026-08-25T11:00:00Z"},
	}
	for _, entry := range entries {
		if err := AppendSessionIndex(baseDir, entry); err != nil {
			t.Fatalf("append %s: %v", entry.SessionID, err)
		}
	}

	listed, err := ListSessionIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("unexpected entry count: %d", len(listed))
	}
	for i, want := range []string{"new", "mid", "old"} {
		if listed[i].SessionID != want {
			t.Fatalf("index not newest-first: %+v", listed)
		}
	}
}

func TestAppendSessionIndexReplacesByID(t *testing.T) {
	baseDir := t.TempDir()

	if err := AppendSessionIndex(baseDir, SessionIndexEntry{SessionID: "s1", Responses: 1, CreatedAtUTC: "2026-08-25T10:00:00Z"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := AppendSessionIndex(baseDir, SessionIndexEntry{SessionID: "s1", Responses: 5, CreatedAtUTC: "2026-08-25T10:00:00Z"}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	listed, err := ListSessionIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected single entry, got %d", len(listed))
	}
	if listed[0].Responses != 5 {
		t.Fatalf("entry not replaced: %+v", listed[0])
	}
}

func TestListSessionIndexMissingFile(t *testing.T) {
	listed, err := ListSessionIndex(t.TempDir())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected empty index, got %d entries", len(listed))
	}
}

func TestExportSessionArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := t.TempDir()

	if _, err := WriteSessionArtifacts(baseDir, SessionArtifacts{
		Config:    SessionConfig{SessionID: "s1", Source: "api"},
		Responses: []ResponseEvent{{Value: 1, Effort: 3}},
		Summary:   SessionSummary{Responses: 1, Produced: 1, TotalEffort: 3, MeanEffort: 3},
	}); err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	dst, err := ExportSessionArtifacts(baseDir, "s1", outDir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, file := range []string{"config.json", "responses.json", "summary.json"} {
		if _, err := os.Stat(filepath.Join(dst, file)); err != nil {
			t.Fatalf("missing exported %s: %v", file, err)
		}
	}
}

func TestExportSessionArtifactsUnknownID(t *testing.T) {
	if _, err := ExportSessionArtifacts(t.TempDir(), "missing", t.TempDir()); err == nil {
		t.Fatal("expected error for unknown session id")
	}
}
