package platform

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"lymphos/internal/lymph"
	"lymphos/internal/model"
	"lymphos/internal/storage"
)

type Config struct {
	Store      storage.Store
	MaxAntigen int
	Seed       int64
}

type StopReason string

const (
	StopReasonNormal   StopReason = "normal"
	StopReasonShutdown StopReason = "shutdown"
)

// System wires the store, generator, and service together. It is constructed
// explicitly and passed to driving adapters; there is no process-wide default
// instance.
type System struct {
	store storage.Store

	mu sync.RWMutex

	service        *lymph.Service
	maxAntigen     int
	started        bool
	lastStopReason StopReason

	config Config
}

func NewSystem(cfg Config) *System {
	maxAntigen := cfg.MaxAntigen
	if maxAntigen <= 0 {
		maxAntigen = lymph.DefaultMaxAntigenValue
	}
	return &System{
		store:          cfg.Store,
		maxAntigen:     maxAntigen,
		config:         cfg,
		lastStopReason: StopReasonNormal,
	}
}

func (s *System) Init(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("store is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if err := s.store.Init(ctx); err != nil {
		return err
	}

	seed := s.config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	generator := &lymph.Generator{
		Bound: s.maxAntigen,
		Rand:  rand.New(rand.NewSource(seed)),
	}
	service, err := lymph.NewService(s.store, generator)
	if err != nil {
		return err
	}

	s.service = service
	s.started = true
	return nil
}

func (s *System) Reset(ctx context.Context) error {
	_ = s.StopWithReason(StopReasonShutdown)
	if resetter, ok := s.store.(storage.Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			return err
		}
	}
	return s.Init(ctx)
}

// Respond recalls or produces the antibody for the given antigen value.
func (s *System) Respond(ctx context.Context, value int) (model.Antibody, error) {
	s.mu.RLock()
	service := s.service
	started := s.started
	s.mu.RUnlock()

	if !started {
		return model.Antibody{}, fmt.Errorf("system is not initialized")
	}
	return service.Respond(ctx, model.Antigen{Value: value})
}

func (s *System) Antibody(ctx context.Context, value int) (model.AntibodyRecord, bool, error) {
	if !s.Started() {
		return model.AntibodyRecord{}, false, fmt.Errorf("system is not initialized")
	}
	return s.store.GetAntibodyRecord(ctx, value)
}

func (s *System) Antibodies(ctx context.Context) ([]model.AntibodyRecord, error) {
	if !s.Started() {
		return nil, fmt.Errorf("system is not initialized")
	}
	return s.store.ListAntibodyRecords(ctx)
}

func (s *System) MaxAntigen() int {
	return s.maxAntigen
}

func (s *System) Stop() {
	_ = s.StopWithReason(StopReasonNormal)
}

func (s *System) Shutdown() {
	_ = s.StopWithReason(StopReasonShutdown)
}

func (s *System) StopWithReason(reason StopReason) error {
	if reason == "" {
		reason = StopReasonNormal
	}
	if !isValidStopReason(reason) {
		return fmt.Errorf("unsupported stop reason: %s", reason)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.service = nil
	s.lastStopReason = reason
	return nil
}

func (s *System) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *System) LastStopReason() StopReason {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastStopReason
}

func isValidStopReason(reason StopReason) bool {
	switch reason {
	case StopReasonNormal, StopReasonShutdown:
		return true
	default:
		return false
	}
}
