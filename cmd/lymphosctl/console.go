package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"lymphos/internal/storage"
	lymphapi "lymphos/pkg/lymphos"
)

func runConsole(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("console", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "lymphos.db", "sqlite database path")
	maxAntigen := fs.Int("max", 0, "exclusive antigen upper bound (0 uses default)")
	seed := fs.Int64("seed", 0, "rng seed (0 uses a time-based seed)")
	dir := fs.String("sessions-dir", sessionsDir, "session artifacts directory")
	if err := fs.Parse(args); err != nil {
		return err
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

	return consoleLoop(ctx, client, os.Stdin, os.Stdout)
}

// consoleLoop prompts for antigen values until the user enters 0 or input
// ends, then records the session. Invalid and non-integer input is reported
// and the loop continues.
func consoleLoop(ctx context.Context, client *lymphapi.Client, in io.Reader, out io.Writer) error {
	if err := client.Init(ctx); err != nil {
		return err
	}

	maxAntigen := client.MaxAntigen()
	scanner := bufio.NewScanner(in)
	events := []lymphapi.SessionEvent{}
	invalid := 0

	for {
		fmt.Fprintf(out, "\nEnter antigen value (%d to %d) or '0' to exit: ", 1, maxAntigen-1)
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		value, err := strconv.Atoi(text)
		if err != nil {
			fmt.Fprintln(out, "antigen value must be an integer")
			continue
		}
		if value == 0 {
			break
		}

		summary, err := client.Respond(ctx, lymphapi.RespondRequest{Value: value})
		if err != nil {
			if antigenErr, ok := isInvalidAntigen(err); ok {
				invalid++
				fmt.Fprintf(out, "invalid antigen value: %d\n", antigenErr.Value)
				continue
			}
			return err
		}

		events = append(events, lymphapi.SessionEvent{
			Value:    summary.Value,
			Effort:   summary.Effort,
			Recalled: summary.Recalled,
			AtUTC:    time.Now().UTC().Format(time.RFC3339Nano),
		})
		printAntibody(out, summary)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if len(events) == 0 && invalid == 0 {
		return nil
	}

	session, err := client.RecordSession(ctx, lymphapi.RecordSessionRequest{
		Source:  "console",
		Events:  events,
		Invalid: invalid,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "session %s recorded: %d responses (%d produced, %d recalled, %d invalid)\n",
		session.SessionID, session.Responses, session.Produced, session.Recalled, session.Invalid)
	return nil
}
