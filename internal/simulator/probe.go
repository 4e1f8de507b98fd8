package simulator

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/mkoetter/carlactl/internal/model"
)

// dialTimeout bounds a single probe attempt.
const dialTimeout = 1 * time.Second

// probeInterval paces readiness probing. CARLA needs tens of seconds to
// come up; hammering the port faster than this buys nothing.
const probeInterval = 500 * time.Millisecond

// Probe reports whether the simulator's RPC port currently accepts TCP
// connections.
func Probe(host string, port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), dialTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// WaitReady blocks until the simulator's RPC port accepts connections or
// the timeout expires. Probe attempts are rate limited to probeInterval.
//
// Returns a CLIError with ExitSimulatorUnreachable on timeout or context
// cancellation.
func WaitReady(ctx context.Context, host string, port int, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(probeInterval), 1)
	for {
		if err := limiter.Wait(waitCtx); err != nil {
			return model.WrapCLIError(model.ExitSimulatorUnreachable,
				fmt.Sprintf("simulator at %s:%d did not become ready within %s", host, port, timeout),
				err)
		}
		if Probe(host, port) {
			return nil
		}
	}
}
