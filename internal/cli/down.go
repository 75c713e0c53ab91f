package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tad-network/tadsim/internal/config"
	"github.com/tad-network/tadsim/internal/registry"
	"github.com/tad-network/tadsim/internal/sweep"
)

func newDownCmd(ctx *context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Kill processes left behind by a previous run",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ctx.loadTopology()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			killed := 0

			// Exact identifiers first: the registry knows what the last run
			// spawned even if those binaries were since renamed.
			if _, err := os.Stat(ctx.registryPath(doc)); err == nil {
				reg, err := registry.Open(cmd.Context(), ctx.registryPath(doc))
				if err != nil {
					return err
				}
				records, err := reg.List(cmd.Context())
				if err != nil {
					reg.Close()
					return err
				}
				for _, rec := range records {
					if rec.Status != registry.StatusRunning {
						continue
					}
					if err := sweep.Kill(rec.PID); err == nil {
						fmt.Fprintf(out, "killed %s (pid %d)\n", rec.Name, rec.PID)
						killed++
					}
				}
				if err := reg.Clear(cmd.Context()); err != nil {
					reg.Close()
					return err
				}
				reg.Close()
			}

			swept, err := sweep.New(config.NodeBinary, config.VDFBinary).Run()
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			for _, proc := range swept {
				fmt.Fprintf(out, "swept %s (pid %d)\n", proc.Comm, proc.PID)
			}

			if killed == 0 && len(swept) == 0 {
				fmt.Fprintln(out, "No leftover processes found.")
			}
			return nil
		},
	}
	return cmd
}
