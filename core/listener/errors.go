package listener

import (
	"errors"
	"fmt"
	"net"
)

// ErrShutdownRace marks an error caused by the listener being stopped while an
// operation was pending on it.
var ErrShutdownRace = errors.New("listener is shutting down")

// IsShutdownRace reports whether err is the expected result of a Stop racing
// with a pending Accept or an open connection.
func IsShutdownRace(err error) bool {
	return errors.Is(err, ErrShutdownRace) || errors.Is(err, net.ErrClosed)
}

// BindError reports that the listener could not be bound to its address.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}
