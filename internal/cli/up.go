package cli

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tad-network/tadsim/internal/config"
	"github.com/tad-network/tadsim/internal/launcher"
	"github.com/tad-network/tadsim/internal/logmux"
	"github.com/tad-network/tadsim/internal/metrics"
	"github.com/tad-network/tadsim/internal/registry"
	"github.com/tad-network/tadsim/internal/runtime/process"
	"github.com/tad-network/tadsim/internal/sweep"
	"github.com/tad-network/tadsim/internal/topology"
)

const eventBuffer = 256

func newUpCmd(ctx *context) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Launch the simulation network and block until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ctx.loadTopology()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(doc.Meta.RootDir, 0o755); err != nil {
				return fmt.Errorf("create root dir: %w", err)
			}

			lock := flock.New(ctx.lockPath(doc))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another tadsim run holds %s", lock.Path())
			}
			defer lock.Close()

			reg, err := registry.Open(cmd.Context(), ctx.registryPath(doc))
			if err != nil {
				return err
			}
			defer reg.Close()

			if metricsAddr != "" {
				ln, err := net.Listen("tcp", metricsAddr)
				if err != nil {
					return fmt.Errorf("listen on metrics addr: %w", err)
				}
				defer ln.Close()
				srv := &http.Server{
					Handler: promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}),
				}
				go srv.Serve(ln)
				defer srv.Close()
			}

			events := make(chan launcher.Event, eventBuffer)
			mux := logmux.New(eventBuffer)
			mux.Add(events)

			var printer sync.WaitGroup
			printer.Add(1)
			go func() {
				defer printer.Done()
				renderEvents(cmd.OutOrStdout(), cmd.ErrOrStderr(), mux.Output())
			}()

			sup := launcher.New(launcher.Options{
				Runtime:      process.New(),
				Plan:         topology.Build(doc),
				Sweeper:      sweep.New(config.NodeBinary, config.VDFBinary),
				Registry:     reg,
				Events:       events,
				Probe:        doc.Startup.Probe,
				DisableProbe: doc.Startup.DisableProbe,
				NodeDelay:    doc.Startup.NodeDelay.Duration,
				StopTimeout:  doc.Shutdown.StopTimeout.Duration,
				Dir:          doc.Meta.RootDir,
			})

			runErr := sup.Run(cmd.Context())

			close(events)
			mux.Close()
			printer.Wait()
			return runErr
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}
