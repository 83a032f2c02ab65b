package storage

import (
	"context"

	"lymphos/internal/model"
)

// Store defines persistence operations for antibodies and adapter sessions.
//
// SaveAntibody is insert-if-absent: the first effort stored for an antigen is
// permanent and later saves for the same antigen are no-ops. There is no
// delete. FindAntibody reports a hit as a zero-effort antibody regardless of
// the stored effort.
type Store interface {
	Init(ctx context.Context) error
	SaveAntibody(ctx context.Context, antibody model.Antibody) error
	FindAntibody(ctx context.Context, value int) (model.Antibody, bool, error)
	GetAntibodyRecord(ctx context.Context, value int) (model.AntibodyRecord, bool, error)
	ListAntibodyRecords(ctx context.Context) ([]model.AntibodyRecord, error)
	SaveSession(ctx context.Context, session model.SessionRecord) error
	GetSession(ctx context.Context, id string) (model.SessionRecord, bool, error)
}

// Resetter is implemented by stores that can drop all persisted state.
type Resetter interface {
	Reset(ctx context.Context) error
}
