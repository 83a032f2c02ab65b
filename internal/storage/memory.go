package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"lymphos/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	antibodies  map[int]model.AntibodyRecord
	sessions    map[string]model.SessionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.antibodies = make(map[int]model.AntibodyRecord)
	s.sessions = make(map[string]model.SessionRecord)
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}

// SaveAntibody inserts only when the antigen is absent. The check and insert
// happen under the store lock so concurrent callers cannot both win.
func (s *MemoryStore) SaveAntibody(_ context.Context, antibody model.Antibody) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.antibodies[antibody.Antigen.Value]; exists {
		return nil
	}
	s.antibodies[antibody.Antigen.Value] = model.AntibodyRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: CurrentSchemaVersion,
			CodecVersion:  CurrentCodecVersion,
		},
		Value:         antibody.Antigen.Value,
		Effort:        antibody.Effort,
		RecordedAtUTC: time.Now().UTC().Format(time.RFC3339Nano),
	}
	return nil
}

func (s *MemoryStore) FindAntibody(_ context.Context, value int) (model.Antibody, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.antibodies[value]; !ok {
		return model.Antibody{}, false, nil
	}
	return model.Antibody{Antigen: model.Antigen{Value: value}, Effort: 0}, true, nil
}

func (s *MemoryStore) GetAntibodyRecord(_ context.Context, value int) (model.AntibodyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.antibodies[value]
	return record, ok, nil
}

func (s *MemoryStore) ListAntibodyRecords(_ context.Context) ([]model.AntibodyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.AntibodyRecord, 0, len(s.antibodies))
	for _, record := range s.antibodies {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Value < out[j].Value
	})
	return out, nil
}

func (s *MemoryStore) SaveSession(_ context.Context, session model.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (model.SessionRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	return session, ok, nil
}
