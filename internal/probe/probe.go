// Package probe implements the TCP readiness check the supervisor runs
// against a freshly started full node before launching the next one.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/tad-network/tadsim/internal/config"
)

// Runner executes a TCP readiness probe according to the configured
// thresholds. A probe succeeds when the target address accepts a connection.
type Runner struct {
	address string
	spec    *config.ProbeSpec
	dialer  func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewTCP constructs a runner probing the provided address.
func NewTCP(address string, spec *config.ProbeSpec) *Runner {
	return &Runner{
		address: address,
		spec:    spec.Clone(),
		dialer:  (&net.Dialer{}).DialContext,
	}
}

// Run blocks until the probe succeeds according to the configured thresholds
// or returns an error once the failure threshold is exceeded.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.spec == nil {
		return errors.New("probe: missing configuration")
	}

	spec := r.spec
	successNeeded := spec.SuccessThreshold
	if successNeeded <= 0 {
		successNeeded = 1
	}
	failureAllowed := spec.FailureThreshold
	if failureAllowed <= 0 {
		failureAllowed = 1
	}
	interval := spec.Interval.Duration

	if gp := spec.GracePeriod.Duration; gp > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(gp):
		}
	}

	successes := 0
	failures := 0
	var lastErr error

	for {
		attemptCtx := ctx
		cancel := func() {}
		if timeout := spec.Timeout.Duration; timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		}

		err := r.dial(attemptCtx)
		cancel()

		if err == nil {
			successes++
			failures = 0
			if successes >= successNeeded {
				return nil
			}
		} else {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			successes = 0
			failures++
			lastErr = err
			if failures >= failureAllowed {
				return fmt.Errorf("probe %s failed after %d consecutive errors: %w", r.address, failures, lastErr)
			}
		}

		if interval <= 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (r *Runner) dial(ctx context.Context) error {
	conn, err := r.dialer(ctx, "tcp", r.address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", r.address, err)
	}
	return conn.Close()
}
