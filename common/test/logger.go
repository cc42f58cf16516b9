// Package test provides helpers shared by this module's tests.
package test

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/codecomet-io/codecomet-go/common/logger"
)

// NewLogger returns a logger writing through t.Log.
func NewLogger(t *testing.T) *logger.Logger {
	return logger.NewLogger(zaptest.NewLogger(t))
}

// NewObservedLogger returns a logger whose entries can be inspected.
func NewObservedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.NewLogger(zap.New(core)), logs
}
