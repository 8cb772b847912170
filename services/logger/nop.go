package logsvc

import "github.com/kelna-terese/EvalX/core"

type nopLogger struct{}

var _ core.Logger = nopLogger{} // interface compliance check

// NewNopLogger returns a Logger that discards everything; Fatal does not exit.
func NewNopLogger() core.Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}
