package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

const sessionIndexFile = "session_index.json"

type SessionConfig struct {
	SessionID  string `json:"session_id"`
	Source     string `json:"source"`
	StoreKind  string `json:"store_kind"`
	MaxAntigen int    `json:"max_antigen"`
	Seed       int64  `json:"seed"`
}

type ResponseEvent struct {
	Value    int    `json:"value"`
	Effort   int    `json:"effort"`
	Recalled bool   `json:"recalled"`
	AtUTC    string `json:"at_utc"`
}

type SessionSummary struct {
	Responses   int     `json:"responses"`
	Produced    int     `json:"produced"`
	Recalled    int     `json:"recalled"`
	Invalid     int     `json:"invalid"`
	TotalEffort int     `json:"total_effort"`
	MeanEffort  float64 `json:"mean_effort"`
}

type SessionArtifacts struct {
	Config    SessionConfig   `json:"config"`
	Responses []ResponseEvent `json:"responses"`
	Summary   SessionSummary  `json:"summary"`
}

type SessionIndexEntry struct {
	SessionID    string `json:"session_id"`
	Source       string `json:"source"`
	StoreKind    string `json:"store_kind"`
	MaxAntigen   int    `json:"max_antigen"`
	Seed         int64  `json:"seed"`
	Responses    int    `json:"responses"`
	Produced     int    `json:"produced"`
	Recalled     int    `json:"recalled"`
	Invalid      int    `json:"invalid"`
	TotalEffort  int    `json:"total_effort"`
	CreatedAtUTC string `json:"created_at_utc"`
}

func WriteSessionArtifacts(baseDir string, artifacts SessionArtifacts) (string, error) {
	if artifacts.Config.SessionID == "" {
		return "", fmt.Errorf("session id is required")
	}

	sessionDir := filepath.Join(baseDir, artifacts.Config.SessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(sessionDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(sessionDir, "responses.json"), artifacts.Responses); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(sessionDir, "summary.json"), artifacts.Summary); err != nil {
		return "", err
	}

	return sessionDir, nil
}

func AppendSessionIndex(baseDir string, entry SessionIndexEntry) error {
	if entry.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListSessionIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].SessionID == entry.SessionID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, sessionIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, sessionIndexFile), index)
}

func ListSessionIndex(baseDir string) ([]SessionIndexEntry, error) {
	path := filepath.Join(baseDir, sessionIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []SessionIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry SessionIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]SessionIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportSessionArtifacts(baseDir, sessionID, outDir string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session id is required")
	}

	src := filepath.Join(baseDir, sessionID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, sessionID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	files := []string{"config.json", "responses.json", "summary.json"}
	for _, file := range files {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}

	return dst, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
