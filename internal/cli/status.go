package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tad-network/tadsim/internal/registry"
	"github.com/tad-network/tadsim/internal/sweep"
)

func newStatusCmd(ctx *context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report the processes recorded by the last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ctx.loadTopology()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, err := os.Stat(ctx.registryPath(doc)); os.IsNotExist(err) {
				fmt.Fprintln(out, "No run recorded.")
				return nil
			}

			reg, err := registry.Open(cmd.Context(), ctx.registryPath(doc))
			if err != nil {
				return err
			}
			defer reg.Close()

			records, err := reg.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No run recorded.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROCESS\tPID\tSTATUS\tALIVE\tUPDATED")
			for _, rec := range records {
				aliveCol := "no"
				if rec.Status == registry.StatusRunning && sweep.Alive(rec.PID) {
					aliveCol = "yes"
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
					rec.Name, rec.PID, rec.Status, aliveCol,
					rec.UpdatedAt.Local().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	return cmd
}
