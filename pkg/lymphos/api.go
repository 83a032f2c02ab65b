package lymphos

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"lymphos/internal/lymph"
	"lymphos/internal/model"
	"lymphos/internal/platform"
	"lymphos/internal/stats"
	"lymphos/internal/storage"
)

const (
	defaultSessionsDir = "sessions"
	defaultExportsDir  = "exports"
	defaultDBPath      = "lymphos.db"
)

type Options struct {
	StoreKind   string
	DBPath      string
	MaxAntigen  int
	Seed        int64
	SessionsDir string
	ExportsDir  string
}

type Client struct {
	store  storage.Store
	system *platform.System

	storeKind   string
	maxAntigen  int
	seed        int64
	sessionsDir string
	exportsDir  string
}

type RespondRequest struct {
	Value int
}

type RespondSummary struct {
	Value    int
	Effort   int
	Recalled bool
}

type SessionEvent struct {
	Value    int
	Effort   int
	Recalled bool
	AtUTC    string
}

type RecordSessionRequest struct {
	SessionID string
	Source    string
	Events    []SessionEvent
	Invalid   int
}

type RunSessionRequest struct {
	SessionID string
	Source    string
	Values    []int
}

type SessionSummary struct {
	SessionID    string
	ArtifactsDir string
	Responses    int
	Produced     int
	Recalled     int
	Invalid      int
	TotalEffort  int
}

type SessionsRequest struct {
	Limit int
}

type SessionItem struct {
	SessionID    string
	CreatedAtUTC string
	Source       string
	StoreKind    string
	Responses    int
	Produced     int
	Recalled     int
	Invalid      int
	TotalEffort  int
}

type ExportRequest struct {
	SessionID string
	Latest    bool
	OutDir    string
}

type ExportSummary struct {
	SessionID string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	maxAntigen := opts.MaxAntigen
	sessionsDir := opts.SessionsDir
	if sessionsDir == "" {
		sessionsDir = defaultSessionsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:       store,
		storeKind:   storeKind,
		maxAntigen:  maxAntigen,
		seed:        opts.Seed,
		sessionsDir: sessionsDir,
		exportsDir:  exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensureSystem(ctx)
	return err
}

func (c *Client) Reset(ctx context.Context) error {
	system, err := c.ensureSystem(ctx)
	if err != nil {
		return err
	}
	return system.Reset(ctx)
}

// MaxAntigen reports the exclusive upper bound on antigen values.
func (c *Client) MaxAntigen() int {
	if c.maxAntigen > 0 {
		return c.maxAntigen
	}
	return lymph.DefaultMaxAntigenValue
}

// System exposes the underlying composition root for adapters that drive it
// directly, such as the HTTP server.
func (c *Client) System(ctx context.Context) (*platform.System, error) {
	return c.ensureSystem(ctx)
}

func (c *Client) Respond(ctx context.Context, req RespondRequest) (RespondSummary, error) {
	system, err := c.ensureSystem(ctx)
	if err != nil {
		return RespondSummary{}, err
	}
	antibody, err := system.Respond(ctx, req.Value)
	if err != nil {
		return RespondSummary{}, err
	}
	return RespondSummary{
		Value:    antibody.Antigen.Value,
		Effort:   antibody.Effort,
		Recalled: antibody.Recalled(),
	}, nil
}

// RunSession responds to each value in order, counting invalid antigens
// instead of aborting, then records the session.
func (c *Client) RunSession(ctx context.Context, req RunSessionRequest) (SessionSummary, error) {
	if len(req.Values) == 0 {
		return SessionSummary{}, errors.New("session requires at least one value")
	}
	if _, err := c.ensureSystem(ctx); err != nil {
		return SessionSummary{}, err
	}

	events := make([]SessionEvent, 0, len(req.Values))
	invalid := 0
	for _, value := range req.Values {
		summary, err := c.Respond(ctx, RespondRequest{Value: value})
		if err != nil {
			var invalidErr *model.InvalidAntigenError
			if errors.As(err, &invalidErr) {
				invalid++
				continue
			}
			return SessionSummary{}, err
		}
		events = append(events, SessionEvent{
			Value:    summary.Value,
			Effort:   summary.Effort,
			Recalled: summary.Recalled,
			AtUTC:    time.Now().UTC().Format(time.RFC3339Nano),
		})
	}

	return c.RecordSession(ctx, RecordSessionRequest{
		SessionID: req.SessionID,
		Source:    req.Source,
		Events:    events,
		Invalid:   invalid,
	})
}

// RecordSession persists a session summary to the store and writes its
// artifacts plus an index entry under the sessions directory.
func (c *Client) RecordSession(ctx context.Context, req RecordSessionRequest) (SessionSummary, error) {
	if _, err := c.ensureSystem(ctx); err != nil {
		return SessionSummary{}, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	source := req.Source
	if source == "" {
		source = "api"
	}

	produced := 0
	recalled := 0
	totalEffort := 0
	responses := make([]stats.ResponseEvent, 0, len(req.Events))
	for _, event := range req.Events {
		if event.Recalled {
			recalled++
		} else {
			produced++
		}
		totalEffort += event.Effort
		responses = append(responses, stats.ResponseEvent{
			Value:    event.Value,
			Effort:   event.Effort,
			Recalled: event.Recalled,
			AtUTC:    event.AtUTC,
		})
	}
	meanEffort := 0.0
	if len(req.Events) > 0 {
		meanEffort = float64(totalEffort) / float64(len(req.Events))
	}

	now := time.Now().UTC()
	session := model.SessionRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:           sessionID,
		Source:       source,
		Responses:    len(req.Events),
		Produced:     produced,
		Recalled:     recalled,
		Invalid:      req.Invalid,
		TotalEffort:  totalEffort,
		StartedAtUTC: now.Format(time.RFC3339Nano),
	}
	if err := c.store.SaveSession(ctx, session); err != nil {
		return SessionSummary{}, err
	}

	sessionDir, err := stats.WriteSessionArtifacts(c.sessionsDir, stats.SessionArtifacts{
		Config: stats.SessionConfig{
			SessionID:  sessionID,
			Source:     source,
			StoreKind:  c.storeKind,
			MaxAntigen: c.MaxAntigen(),
			Seed:       c.seed,
		},
		Responses: responses,
		Summary: stats.SessionSummary{
			Responses:   len(req.Events),
			Produced:    produced,
			Recalled:    recalled,
			Invalid:     req.Invalid,
			TotalEffort: totalEffort,
			MeanEffort:  meanEffort,
		},
	})
	if err != nil {
		return SessionSummary{}, err
	}

	if err := stats.AppendSessionIndex(c.sessionsDir, stats.SessionIndexEntry{
		SessionID:    sessionID,
		Source:       source,
		StoreKind:    c.storeKind,
		MaxAntigen:   c.MaxAntigen(),
		Seed:         c.seed,
		Responses:    len(req.Events),
		Produced:     produced,
		Recalled:     recalled,
		Invalid:      req.Invalid,
		TotalEffort:  totalEffort,
		CreatedAtUTC: now.Format(time.RFC3339Nano),
	}); err != nil {
		return SessionSummary{}, err
	}

	return SessionSummary{
		SessionID:    sessionID,
		ArtifactsDir: filepath.Clean(sessionDir),
		Responses:    len(req.Events),
		Produced:     produced,
		Recalled:     recalled,
		Invalid:      req.Invalid,
		TotalEffort:  totalEffort,
	}, nil
}

func (c *Client) Sessions(_ context.Context, req SessionsRequest) ([]SessionItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListSessionIndex(c.sessionsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]SessionItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, SessionItem{
			SessionID:    e.SessionID,
			CreatedAtUTC: e.CreatedAtUTC,
			Source:       e.Source,
			StoreKind:    e.StoreKind,
			Responses:    e.Responses,
			Produced:     e.Produced,
			Recalled:     e.Recalled,
			Invalid:      e.Invalid,
			TotalEffort:  e.TotalEffort,
		})
	}
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.SessionID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either session id or latest")
	}
	if req.SessionID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires session id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	sessionID := req.SessionID
	if req.Latest {
		entries, err := stats.ListSessionIndex(c.sessionsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no sessions available to export")
		}
		sessionID = entries[0].SessionID
	}

	exportedDir, err := stats.ExportSessionArtifacts(c.sessionsDir, sessionID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{SessionID: sessionID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) Antibodies(ctx context.Context) ([]model.AntibodyRecord, error) {
	system, err := c.ensureSystem(ctx)
	if err != nil {
		return nil, err
	}
	return system.Antibodies(ctx)
}

func (c *Client) Antibody(ctx context.Context, value int) (model.AntibodyRecord, error) {
	system, err := c.ensureSystem(ctx)
	if err != nil {
		return model.AntibodyRecord{}, err
	}
	record, ok, err := system.Antibody(ctx, value)
	if err != nil {
		return model.AntibodyRecord{}, err
	}
	if !ok {
		return model.AntibodyRecord{}, fmt.Errorf("no antibody recorded for antigen %d", value)
	}
	return record, nil
}

func (c *Client) ensureSystem(ctx context.Context) (*platform.System, error) {
	if c.system != nil {
		return c.system, nil
	}
	system := platform.NewSystem(platform.Config{
		Store:      c.store,
		MaxAntigen: c.maxAntigen,
		Seed:       c.seed,
	})
	if err := system.Init(ctx); err != nil {
		return nil, err
	}
	c.system = system
	return c.system, nil
}
