package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTopology(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write topology: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTopology(t, `
version: "1"
nodes:
  - port: 4044
    rpcPort: 8555
    databasePath: db/node-1.sqlite
  - port: 8002
    rpcPort: 8556
    databasePath: db/node-2.sqlite
`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if doc.Meta.Name != DefaultNetworkName {
		t.Fatalf("name not defaulted: got %q", doc.Meta.Name)
	}
	if doc.Services.Farmer.Port != DefaultFarmerPort {
		t.Fatalf("farmer port not defaulted: got %d", doc.Services.Farmer.Port)
	}
	if doc.Services.Farmer.RPCPort != DefaultFarmerRPCPort {
		t.Fatalf("farmer rpc port not defaulted: got %d", doc.Services.Farmer.RPCPort)
	}
	if doc.Services.Introducer.Host != DefaultIntroducer {
		t.Fatalf("introducer host not defaulted: got %q", doc.Services.Introducer.Host)
	}
	if doc.Services.Introducer.Port != SimIntroducerPort {
		t.Fatalf("introducer port not defaulted: got %d", doc.Services.Introducer.Port)
	}
	if doc.Nodes[0].Binary != NodeBinary {
		t.Fatalf("node binary not defaulted: got %q", doc.Nodes[0].Binary)
	}
	if doc.Startup.NodeDelay.Duration != 5*time.Second {
		t.Fatalf("node delay not defaulted: got %v", doc.Startup.NodeDelay.Duration)
	}
	if doc.Shutdown.StopTimeout.Duration != 10*time.Second {
		t.Fatalf("stop timeout not defaulted: got %v", doc.Shutdown.StopTimeout.Duration)
	}
	if doc.Logging.Level != "INFO" {
		t.Fatalf("log level not defaulted: got %q", doc.Logging.Level)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeTopology(t, `
version: "1"
bogus: true
nodes:
  - port: 4044
    rpcPort: 8555
    databasePath: db/node-1.sqlite
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected decode error for unknown field")
	}
}

func TestLoadResolvesRootDirRelativeToFile(t *testing.T) {
	path := writeTopology(t, `
version: "1"
topology:
  rootDir: run
nodes:
  - port: 4044
    rpcPort: 8555
    databasePath: db/node-1.sqlite
`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := filepath.Join(filepath.Dir(path), "run")
	if doc.Meta.RootDir != want {
		t.Fatalf("root dir not resolved: got %q want %q", doc.Meta.RootDir, want)
	}
}

func TestLoadSurfacesValidationErrors(t *testing.T) {
	path := writeTopology(t, `
version: "1"
nodes:
  - port: 4044
    rpcPort: 8555
    databasePath: db/node-1.sqlite
  - port: 4044
    rpcPort: 8556
    databasePath: db/node-2.sqlite
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected port collision error")
	}
	if !strings.Contains(err.Error(), "4044") {
		t.Fatalf("error does not name the colliding port: %v", err)
	}
}

func TestDefaultTopologyIsValid(t *testing.T) {
	doc := Default()
	if err := doc.Validate(); err != nil {
		t.Fatalf("default topology invalid: %v", err)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("default topology should launch two nodes, got %d", len(doc.Nodes))
	}
	if doc.Nodes[0].Port == doc.Nodes[1].Port {
		t.Fatal("default node ports collide")
	}
}
