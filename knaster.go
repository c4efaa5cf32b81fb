package knaster

import (
	"sync"

	"github.com/rs/xid"
)

// Logger is the interface graph events and audio diagnostics are logged
// through. If no logger is provided, a silent logger is used.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
}

type silentLogger struct{}

func (silentLogger) Debug(args ...interface{}) {}

func (silentLogger) Info(args ...interface{}) {}

var defaultLogger silentLogger

// newUID returns a new unique id value.
func newUID() string {
	return xid.New().String()
}

// SingleUse guards components that cannot be reused. The first call returns
// nil, every call after that returns ErrSingleUseReused.
func SingleUse(once *sync.Once) error {
	err := ErrSingleUseReused
	once.Do(func() {
		err = nil
	})
	return err
}
