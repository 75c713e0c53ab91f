package cli

import (
	"bytes"
	stdcontext "context"
	"os"
	"path/filepath"
	stdruntime "runtime"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"github.com/tad-network/tadsim/internal/registry"
)

const testTopology = `version: "1"
topology:
  name: test
nodes:
  - port: 4044
    rpcPort: 8555
    databasePath: db/node-1.sqlite
`

func writeTopology(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "topology.yaml")
	if err := os.WriteFile(path, []byte(testTopology), 0o644); err != nil {
		t.Fatalf("write topology: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root, _ := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(stdcontext.Background())
	return buf.String(), err
}

func TestLoadTopologyFallsBackToBuiltin(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})

	_, ctx := newRootCommand()
	doc, err := ctx.loadTopology()
	if err != nil {
		t.Fatalf("loadTopology: %v", err)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("expected builtin two-node topology, got %d nodes", len(doc.Nodes))
	}
	if doc.Meta.RootDir == "" {
		t.Fatal("expected default root dir to be resolved")
	}
}

func TestLoadTopologyRootDirOverride(t *testing.T) {
	dir := t.TempDir()
	file := writeTopology(t, dir)
	rootDir := filepath.Join(dir, "run")

	ctx := &context{topologyFile: &file, rootDir: &rootDir}
	doc, err := ctx.loadTopology()
	if err != nil {
		t.Fatalf("loadTopology: %v", err)
	}
	if doc.Meta.RootDir != rootDir {
		t.Fatalf("expected root dir %q, got %q", rootDir, doc.Meta.RootDir)
	}
}

func TestUpReportsFirstSpawnFailure(t *testing.T) {
	if stdruntime.GOOS == "windows" {
		t.Skip("requires unix process semantics")
	}
	dir := t.TempDir()
	file := writeTopology(t, dir)
	rootDir := filepath.Join(dir, "run")

	out, err := runCommand(t, "up", "-f", file, "--root-dir", rootDir)
	if err == nil {
		t.Fatalf("expected error for missing binaries, output:\n%s", out)
	}
	if !strings.Contains(err.Error(), "start farmer") {
		t.Fatalf("expected first failure to name the farmer, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(rootDir, "registry.db")); statErr != nil {
		t.Fatalf("expected registry database under root dir: %v", statErr)
	}
}

func TestUpFailsWhenRunLockHeld(t *testing.T) {
	if stdruntime.GOOS == "windows" {
		t.Skip("requires unix process semantics")
	}
	dir := t.TempDir()
	file := writeTopology(t, dir)
	rootDir := filepath.Join(dir, "run")
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	lock := flock.New(filepath.Join(rootDir, "tadsim.lock"))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("acquire test lock: locked=%v err=%v", locked, err)
	}
	defer lock.Close()

	_, err = runCommand(t, "up", "-f", file, "--root-dir", rootDir)
	if err == nil || !strings.Contains(err.Error(), "another tadsim run holds") {
		t.Fatalf("expected lock contention error, got %v", err)
	}
}

func TestDownWithoutLeftovers(t *testing.T) {
	if stdruntime.GOOS == "windows" {
		t.Skip("requires unix process semantics")
	}
	dir := t.TempDir()
	file := writeTopology(t, dir)

	out, err := runCommand(t, "down", "-f", file, "--root-dir", filepath.Join(dir, "run"))
	if err != nil {
		t.Fatalf("down: %v", err)
	}
	if !strings.Contains(out, "No leftover processes found.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestStatusWithoutRun(t *testing.T) {
	dir := t.TempDir()
	file := writeTopology(t, dir)

	out, err := runCommand(t, "status", "-f", file, "--root-dir", filepath.Join(dir, "run"))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "No run recorded.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestStatusListsRecordedProcesses(t *testing.T) {
	dir := t.TempDir()
	file := writeTopology(t, dir)
	rootDir := filepath.Join(dir, "run")
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	reg, err := registry.Open(stdcontext.Background(), filepath.Join(rootDir, "registry.db"))
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	if err := reg.Record(stdcontext.Background(), registry.Record{Name: "farmer", PID: 4242, Status: registry.StatusStopped}); err != nil {
		t.Fatalf("record: %v", err)
	}
	reg.Close()

	out, err := runCommand(t, "status", "-f", file, "--root-dir", rootDir)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "farmer") || !strings.Contains(out, "stopped") {
		t.Fatalf("expected farmer record in output:\n%s", out)
	}
}
