package lymph

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"lymphos/internal/model"
)

// DefaultMaxAntigenValue bounds the antigen space when no override is given.
const DefaultMaxAntigenValue = 100

// Generator simulates antibody production: it draws uniform values in
// [0, Bound) until one matches the antigen, counting every draw as effort.
// Expected draw count equals Bound; no upper bound is enforced.
type Generator struct {
	Bound int
	Rand  *rand.Rand

	// mu serializes draws: rand.Rand is not safe for concurrent use and the
	// HTTP adapter calls Produce from multiple goroutines.
	mu sync.Mutex
}

func (g *Generator) Produce(ctx context.Context, antigen model.Antigen) (model.Antibody, error) {
	bound := g.Bound
	if bound <= 0 {
		bound = DefaultMaxAntigenValue
	}
	if antigen.Value < 0 || antigen.Value >= bound {
		return model.Antibody{}, &model.InvalidAntigenError{Value: antigen.Value}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Rand == nil {
		g.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	effort := 0
	for {
		if err := ctx.Err(); err != nil {
			return model.Antibody{}, err
		}
		effort++
		if g.Rand.Intn(bound) == antigen.Value {
			return model.Antibody{Antigen: antigen, Effort: effort}, nil
		}
	}
}
