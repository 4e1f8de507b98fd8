package simulator

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoetter/carlactl/internal/model"
)

// listen opens a TCP listener on an ephemeral localhost port and returns
// its port number.
func listen(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	return ln, ln.Addr().(*net.TCPAddr).Port
}

// TestProbe verifies the reachability check against a live listener and
// a closed port.
func TestProbe(t *testing.T) {
	ln, port := listen(t)

	assert.True(t, Probe("127.0.0.1", port))

	ln.Close()
	assert.False(t, Probe("127.0.0.1", port))
}

// TestWaitReady_ImmediateSuccess verifies WaitReady returns promptly when
// the port is already open.
func TestWaitReady_ImmediateSuccess(t *testing.T) {
	_, port := listen(t)

	err := WaitReady(context.Background(), "127.0.0.1", port, 5*time.Second)

	assert.NoError(t, err)
}

// TestWaitReady_BecomesReady verifies polling picks up a port that opens
// after a delay, the normal case for a booting simulator.
func TestWaitReady_BecomesReady(t *testing.T) {
	// Reserve a port, close it, then re-listen on it shortly after
	// WaitReady starts polling.
	ln, port := listen(t)
	ln.Close()

	go func() {
		time.Sleep(300 * time.Millisecond)
		late, err := net.Listen("tcp", ln.Addr().String())
		if err == nil {
			time.Sleep(3 * time.Second)
			late.Close()
		}
	}()

	err := WaitReady(context.Background(), "127.0.0.1", port, 10*time.Second)

	assert.NoError(t, err)
}

// TestWaitReady_Timeout verifies the unreachable exit code on timeout.
func TestWaitReady_Timeout(t *testing.T) {
	ln, port := listen(t)
	ln.Close() // nothing listening

	err := WaitReady(context.Background(), "127.0.0.1", port, 1200*time.Millisecond)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitSimulatorUnreachable, cliErr.Code)
}

// TestWaitReady_ContextCancelled verifies caller cancellation wins over
// the timeout.
func TestWaitReady_ContextCancelled(t *testing.T) {
	ln, port := listen(t)
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := WaitReady(ctx, "127.0.0.1", port, 30*time.Second)

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "cancellation should end the wait early")
}
