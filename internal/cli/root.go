package cli

import (
	stdcontext "context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tad-network/tadsim/internal/config"
)

const defaultTopologyFile = "topology.yaml"

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	var topologyFile string
	var rootDir string

	root := &cobra.Command{
		Use:   "tadsim",
		Short: "Local simulation network launcher",
	}

	root.PersistentFlags().
		StringVarP(&topologyFile, "file", "f", defaultTopologyFile, "Path to topology definition")
	root.PersistentFlags().
		StringVar(&rootDir, "root-dir", "", "Run root directory (databases, registry, lock)")

	ctx := &context{topologyFile: &topologyFile, rootDir: &rootDir}
	root.AddCommand(newUpCmd(ctx))
	root.AddCommand(newDownCmd(ctx))
	root.AddCommand(newStatusCmd(ctx))

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type context struct {
	topologyFile *string
	rootDir      *string
}

// loadTopology reads the topology file named by --file. When the flag is left
// at its default and no such file exists, the built-in two-node simulation
// topology is used instead. --root-dir overrides the document's root.
func (c *context) loadTopology() (*config.Topology, error) {
	doc, err := c.readTopology()
	if err != nil {
		return nil, err
	}
	if *c.rootDir != "" {
		abs, err := filepath.Abs(*c.rootDir)
		if err != nil {
			return nil, fmt.Errorf("resolve root dir: %w", err)
		}
		doc.Meta.RootDir = abs
	}
	if doc.Meta.RootDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve default root dir: %w", err)
		}
		doc.Meta.RootDir = filepath.Join(home, ".tadsim", doc.Meta.Name)
	}
	return doc, nil
}

func (c *context) readTopology() (*config.Topology, error) {
	path := *c.topologyFile
	if path == defaultTopologyFile {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

func (c *context) registryPath(doc *config.Topology) string {
	return filepath.Join(doc.Meta.RootDir, "registry.db")
}

func (c *context) lockPath(doc *config.Topology) string {
	return filepath.Join(doc.Meta.RootDir, "tadsim.lock")
}
