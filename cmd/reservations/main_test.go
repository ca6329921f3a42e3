package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("RESERVATIONS_STORAGE_DRIVER", "sqlite")
	t.Setenv("RESERVATIONS_STORAGE_DSN", "file:"+filepath.Join(dir, "cli.db"))
	t.Setenv("RESERVATIONS_LOG_LEVEL", "error")
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func mustRunCLI(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("reservations %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestMigrateReportsDriver(t *testing.T) {
	setupCLI(t)

	out := mustRunCLI(t, "migrate")
	if !strings.Contains(out, "sqlite schema is up to date") {
		t.Fatalf("unexpected migrate output: %q", out)
	}
	// Running twice is a no-op.
	mustRunCLI(t, "migrate")
}

func TestRoomAddAndList(t *testing.T) {
	setupCLI(t)

	out := mustRunCLI(t, "room", "add", "Chapel", "--location", "North wing", "--sort-order", "2")
	if !strings.Contains(out, `Room "Chapel" created`) {
		t.Fatalf("unexpected add output: %q", out)
	}
	out = mustRunCLI(t, "room", "add", "Chapel", "--sort-order", "1")
	if !strings.Contains(out, `Room "Chapel" updated`) {
		t.Fatalf("expected second add to update, got %q", out)
	}
	mustRunCLI(t, "room", "add", "Storage", "--inactive")

	out = mustRunCLI(t, "room", "list")
	if !strings.Contains(out, "Chapel") || strings.Contains(out, "Storage") {
		t.Fatalf("active listing should show only Chapel, got:\n%s", out)
	}
	out = mustRunCLI(t, "room", "list", "--all")
	if !strings.Contains(out, "Storage") {
		t.Fatalf("--all listing should include inactive rooms, got:\n%s", out)
	}
}

func TestBlockLifecycle(t *testing.T) {
	setupCLI(t)
	mustRunCLI(t, "room", "add", "Chapel")

	out := mustRunCLI(t, "block", "add",
		"--room", "Chapel",
		"--start", "2025-03-04 09:00",
		"--end", "2025-03-04T12:00:00-06:00",
		"--reason", "Funeral")
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "Block" {
		t.Fatalf("unexpected block add output: %q", out)
	}
	blockID := fields[1]

	out = mustRunCLI(t, "block", "list", "--from", "2025-03-01", "--to", "2025-03-07")
	if !strings.Contains(out, blockID) || !strings.Contains(out, "2025-03-04 09:00") || !strings.Contains(out, "Funeral") {
		t.Fatalf("block missing from listing:\n%s", out)
	}

	mustRunCLI(t, "block", "delete", blockID)
	out = mustRunCLI(t, "block", "list", "--from", "2025-03-01", "--to", "2025-03-07")
	if !strings.Contains(out, "No blocks found") {
		t.Fatalf("expected empty listing after delete, got:\n%s", out)
	}

	if _, err := runCLI(t, "block", "add", "--room", "Nowhere", "--start", "2025-03-04 09:00", "--end", "2025-03-04 10:00"); err == nil {
		t.Fatal("expected unknown room to fail")
	}
	if _, err := runCLI(t, "block", "add", "--start", "yesterday", "--end", "2025-03-04 10:00"); err == nil {
		t.Fatal("expected unparseable start to fail")
	}
}

func TestDeviceCommands(t *testing.T) {
	setupCLI(t)

	out := mustRunCLI(t, "device", "add", "front-desk")
	if !strings.Contains(out, `Device "front-desk" registered`) || !strings.Contains(out, "Key: ") {
		t.Fatalf("unexpected device add output: %q", out)
	}

	mustRunCLI(t, "device", "disable", "front-desk")
	out = mustRunCLI(t, "device", "list")
	if !strings.Contains(out, "front-desk") || !strings.Contains(out, "false") {
		t.Fatalf("expected disabled device in listing:\n%s", out)
	}

	mustRunCLI(t, "device", "enable", "front-desk")
	out = mustRunCLI(t, "device", "list")
	if !strings.Contains(out, "true") {
		t.Fatalf("expected enabled device in listing:\n%s", out)
	}

	if _, err := runCLI(t, "device", "disable", "missing"); err == nil {
		t.Fatal("expected unknown device to fail")
	}
}

func TestSeedCommand(t *testing.T) {
	dir := setupCLI(t)

	path := filepath.Join(dir, "catalog.toml")
	catalog := `
[[rooms]]
name = "Chapel"

[[rooms]]
name = "Fellowship Hall"
sort_order = 1

[[blocks]]
room = "Chapel"
start = 2025-03-04T09:00:00-06:00
end = 2025-03-04T12:00:00-06:00
reason = "Funeral"
`
	if err := os.WriteFile(path, []byte(catalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	out := mustRunCLI(t, "seed", path)
	if !strings.Contains(out, "rooms: 2 created, 0 updated; blocks: 1 created, 0 already present") {
		t.Fatalf("unexpected first seed output: %q", out)
	}
	out = mustRunCLI(t, "seed", path)
	if !strings.Contains(out, "rooms: 0 created, 2 updated; blocks: 0 created, 1 already present") {
		t.Fatalf("unexpected second seed output: %q", out)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	setupCLI(t)
	t.Setenv("RESERVATIONS_STORAGE_DRIVER", "oracle")

	if _, err := runCLI(t, "room", "list"); err == nil {
		t.Fatal("expected unsupported driver to fail")
	}
}
