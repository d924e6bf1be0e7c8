package shutdown

import (
	"context"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"feedcache/pkg/state/logger"
	"feedcache/pkg/telemetry"
)

// ShutdownApp stops background work, then flushes and closes the store.
// stopFlusher blocks until the flusher goroutine has exited. stopFlusher and
// st may be nil.
func ShutdownApp(stopFlusher context.CancelFunc, st io.Closer) error {
	logger.Info("shutdown_requested")

	if stopFlusher != nil {
		logger.Info("shutdown_stopping_flusher")
		stopFlusher()
	}

	var err error
	if st != nil {
		logger.Info("shutdown_closing_store")
		if err = st.Close(); err != nil {
			logger.Error("shutdown_store_close_failed", "error", err)
		}
	}

	telemetry.Close()
	logger.Info("shutdown_complete")
	return err
}

// SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM. A
// SIGPIPE dumps goroutine stacks before cancelling.
func SetupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sigpipe := make(chan os.Signal, 1)
	signal.Notify(sigpipe, syscall.SIGPIPE)

	go func() {
		defer signal.Stop(sigc)
		defer signal.Stop(sigpipe)
		select {
		case s := <-sigc:
			logger.Info("signal_received", "signal", s.String(), "msg", "shutdown requested")
		case s := <-sigpipe:
			logger.Info("signal_received", "signal", s.String(), "msg", "SIGPIPE - dumping goroutine stacks")
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			logger.Info("goroutine_stack_dump", "dump", string(buf[:n]))
		case <-ctx.Done():
			return
		}
		cancel()
	}()

	return ctx, cancel
}
