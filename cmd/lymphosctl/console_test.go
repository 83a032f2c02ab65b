package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	lymphapi "lymphos/pkg/lymphos"
)

func newConsoleClient(t *testing.T) *lymphapi.Client {
	t.Helper()
	client, err := lymphapi.New(lymphapi.Options{
		StoreKind:   "memory",
		MaxAntigen:  8,
		Seed:        1,
		SessionsDir: filepath.Join(t.TempDir(), "sessions"),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestConsoleLoopRespondsAndRecords(t *testing.T) {
	client := newConsoleClient(t)

	in := strings.NewReader("abc\n99\n3\n3\n0\n")
	var out strings.Builder
	if err := consoleLoop(context.Background(), client, in, &out); err != nil {
		t.Fatalf("console loop: %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "antigen value must be an integer") {
		t.Fatalf("missing non-integer message: %s", output)
	}
	if !strings.Contains(output, "invalid antigen value: 99") {
		t.Fatalf("missing invalid antigen message: %s", output)
	}
	if !strings.Contains(output, "antibody produced for antigen 3") {
		t.Fatalf("missing produced message: %s", output)
	}
	if !strings.Contains(output, "antibody recalled for antigen 3 (effort 0)") {
		t.Fatalf("missing recalled message: %s", output)
	}
	if !strings.Contains(output, "2 responses (1 produced, 1 recalled, 1 invalid)") {
		t.Fatalf("missing session summary: %s", output)
	}

	sessions, err := client.Sessions(context.Background(), lymphapi.SessionsRequest{})
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Source != "console" {
		t.Fatalf("expected one console session, got %+v", sessions)
	}
}

func TestConsoleLoopExitsOnZeroWithoutResponding(t *testing.T) {
	client := newConsoleClient(t)

	in := strings.NewReader("0\n")
	var out strings.Builder
	if err := consoleLoop(context.Background(), client, in, &out); err != nil {
		t.Fatalf("console loop: %v", err)
	}

	records, err := client.Antibodies(context.Background())
	if err != nil {
		t.Fatalf("antibodies: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("exit value must not trigger a response, got %d records", len(records))
	}

	sessions, err := client.Sessions(context.Background(), lymphapi.SessionsRequest{})
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("empty session must not be recorded, got %d", len(sessions))
	}
}

func TestConsoleLoopEndsOnEOF(t *testing.T) {
	client := newConsoleClient(t)

	in := strings.NewReader("5\n")
	var out strings.Builder
	if err := consoleLoop(context.Background(), client, in, &out); err != nil {
		t.Fatalf("console loop: %v", err)
	}

	sessions, err := client.Sessions(context.Background(), lymphapi.SessionsRequest{})
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Responses != 1 {
		t.Fatalf("expected one recorded response, got %+v", sessions)
	}
}
