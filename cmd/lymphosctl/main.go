package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"lymphos/internal/httpapi"
	"lymphos/internal/model"
	"lymphos/internal/platform"
	"lymphos/internal/storage"
	lymphapi "lymphos/pkg/lymphos"
)

const sessionsDir = "sessions"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "respond":
		return runRespond(ctx, args[1:])
	case "console":
		return runConsole(ctx, args[1:])
	case "session":
		return runSession(ctx, args[1:])
	case "sessions":
		return runSessions(ctx, args[1:])
	case "antibodies":
		return runAntibodies(ctx, args[1:])
	case "serve":
		return runServe(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "lymphos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	system := platform.NewSystem(platform.Config{Store: store})
	if err := system.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "lymphos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	system := platform.NewSystem(platform.Config{Store: store})
	if err := system.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRespond(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("respond", flag.ContinueOnError)
	value := fs.Int("value", -1, "antigen value")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "lymphos.db", "sqlite database path")
	maxAntigen := fs.Int("max", 0, "exclusive antigen upper bound (0 uses default)")
	seed := fs.Int64("seed", 0, "rng seed (0 uses a time-based seed)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := lymphapi.New(lymphapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		MaxAntigen: *maxAntigen,
		Seed:       *seed,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Respond(ctx, lymphapi.RespondRequest{Value: *value})
	if err != nil {
		return err
	}

	printAntibody(os.Stdout, summary)
	return nil
}

func runSession(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("session", flag.ContinueOnError)
	valuesSpec := fs.String("values", "", "comma-separated antigen values, e.g. 5,12,5")
	configPath := fs.String("config", "", "optional session config JSON path")
	sessionID := fs.String("session-id", "", "explicit session id (optional)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "lymphos.db", "sqlite database path")
	maxAntigen := fs.Int("max", 0, "exclusive antigen upper bound (0 uses default)")
	seed := fs.Int64("seed", 0, "rng seed (0 uses a time-based seed)")
	dir := fs.String("sessions-dir", sessionsDir, "session artifacts directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := loadOrDefaultSessionRequest(*configPath)
	if err != nil {
		return err
	}
	if *sessionID != "" {
		req.SessionID = *sessionID
	}
	if *valuesSpec != "" {
		values, err := parseValues(*valuesSpec)
		if err != nil {
			return err
		}
		req.Values = values
	}
	if req.Source == "" {
		req.Source = "cli"
	}

	client, err := lymphapi.New(lymphapi.Options{
		StoreKind:   *storeKind,
		DBPath:      *dbPath,
		MaxAntigen:  *maxAntigen,
		Seed:        *seed,
		SessionsDir: *dir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.RunSession(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("session=%s responses=%d produced=%d recalled=%d invalid=%d total_effort=%s artifacts=%s\n",
		summary.SessionID, summary.Responses, summary.Produced, summary.Recalled, summary.Invalid,
		humanize.Comma(int64(summary.TotalEffort)), summary.ArtifactsDir)
	return nil
}

func runSessions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum sessions to list")
	dir := fs.String("sessions-dir", sessionsDir, "session artifacts directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := lymphapi.New(lymphapi.Options{SessionsDir: *dir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Sessions(ctx, lymphapi.SessionsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no sessions recorded")
		return nil
	}

	for _, item := range items {
		fmt.Printf("%s  %s  source=%s store=%s responses=%d produced=%d recalled=%d invalid=%d total_effort=%s\n",
			item.SessionID, item.CreatedAtUTC, item.Source, item.StoreKind,
			item.Responses, item.Produced, item.Recalled, item.Invalid,
			humanize.Comma(int64(item.TotalEffort)))
	}
	return nil
}

func runAntibodies(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("antibodies", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "lymphos.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := lymphapi.New(lymphapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	records, err := client.Antibodies(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no antibodies recorded")
		return nil
	}

	for _, record := range records {
		fmt.Printf("antigen=%d effort=%s recorded_at=%s\n",
			record.Value, humanize.Comma(int64(record.Effort)), record.RecordedAtUTC)
	}
	return nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "listen address")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "lymphos.db", "sqlite database path")
	maxAntigen := fs.Int("max", 0, "exclusive antigen upper bound (0 uses default)")
	seed := fs.Int64("seed", 0, "rng seed (0 uses a time-based seed)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := lymphapi.New(lymphapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		MaxAntigen: *maxAntigen,
		Seed:       *seed,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	system, err := client.System(ctx)
	if err != nil {
		return err
	}
	server, err := httpapi.NewServer(system)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: *addr, Handler: server.Router()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	fmt.Printf("listening on %s store=%s max=%d\n", *addr, *storeKind, system.MaxAntigen())

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	system.Shutdown()
	return srv.Shutdown(shutdownCtx)
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	sessionID := fs.String("session-id", "", "session id to export")
	latest := fs.Bool("latest", false, "export the most recent session")
	outDir := fs.String("out", "", "output directory (defaults to exports/)")
	dir := fs.String("sessions-dir", sessionsDir, "session artifacts directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := lymphapi.New(lymphapi.Options{SessionsDir: *dir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, lymphapi.ExportRequest{
		SessionID: *sessionID,
		Latest:    *latest,
		OutDir:    *outDir,
	})
	if err != nil {
		return err
	}

	fmt.Printf("exported session=%s dir=%s\n", summary.SessionID, summary.Directory)
	return nil
}

func printAntibody(w io.Writer, summary lymphapi.RespondSummary) {
	if summary.Recalled {
		fmt.Fprintf(w, "antibody recalled for antigen %d (effort 0)\n", summary.Value)
		return
	}
	fmt.Fprintf(w, "antibody produced for antigen %d after %s trials\n",
		summary.Value, humanize.Comma(int64(summary.Effort)))
}

func isInvalidAntigen(err error) (*model.InvalidAntigenError, bool) {
	var invalid *model.InvalidAntigenError
	if errors.As(err, &invalid) {
		return invalid, true
	}
	return nil, false
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: lymphosctl <init|reset|respond|console|session|sessions|antibodies|serve|export> [flags]", msg)
}
