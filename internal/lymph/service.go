package lymph

import (
	"context"
	"fmt"

	"lymphos/internal/model"
)

// Store is the port the service drives. Find returns a zero-effort antibody on
// a hit; Save inserts only when the antigen is absent (first effort wins).
type Store interface {
	FindAntibody(ctx context.Context, value int) (model.Antibody, bool, error)
	SaveAntibody(ctx context.Context, antibody model.Antibody) error
}

// Service answers antigen requests by recalling a stored antibody or producing
// a fresh one.
type Service struct {
	store     Store
	generator *Generator
}

func NewService(store Store, generator *Generator) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	return &Service{store: store, generator: generator}, nil
}

// Respond looks the antigen up in the store, falls back to the generator on a
// miss, saves the result (a no-op for already-known antigens), and returns it.
// Invalid antigen values propagate as *model.InvalidAntigenError.
func (s *Service) Respond(ctx context.Context, antigen model.Antigen) (model.Antibody, error) {
	antibody, ok, err := s.store.FindAntibody(ctx, antigen.Value)
	if err != nil {
		return model.Antibody{}, fmt.Errorf("find antibody: %w", err)
	}
	if !ok {
		antibody, err = s.generator.Produce(ctx, antigen)
		if err != nil {
			return model.Antibody{}, err
		}
	}
	if err := s.store.SaveAntibody(ctx, antibody); err != nil {
		return model.Antibody{}, fmt.Errorf("save antibody: %w", err)
	}
	return antibody, nil
}
