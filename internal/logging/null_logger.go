package logging

import "github.com/hfsrb/hfsrb/pkg/hfsrb"

var _ hfsrb.Logger = (*NullLogger)(nil)

// NullLogger discards everything. Services under test and library callers
// that do not want compile or mapping chatter use it.
type NullLogger struct{}

func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Verbose(format string, args ...interface{}) {}

func (l *NullLogger) Info(format string, args ...interface{}) {}

func (l *NullLogger) Error(format string, args ...interface{}) {}
