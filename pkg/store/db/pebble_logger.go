package db

import (
	"fmt"
	"os"

	"feedcache/pkg/state/logger"
)

// pebbleLogger routes pebble's own log lines into the process logger.
type pebbleLogger struct{}

func (pebbleLogger) Infof(format string, args ...interface{}) {
	logger.Debug("pebble", "msg", fmt.Sprintf(format, args...))
}

func (pebbleLogger) Errorf(format string, args ...interface{}) {
	logger.Error("pebble", "msg", fmt.Sprintf(format, args...))
}

func (pebbleLogger) Fatalf(format string, args ...interface{}) {
	logger.Error("pebble_fatal", "msg", fmt.Sprintf(format, args...))
	os.Exit(1)
}
