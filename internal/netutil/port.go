// Package netutil picks the address the control surface listens on.
package netutil

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
)

// ErrNoAddr is returned when neither the preferred address nor any candidate
// can be bound.
var ErrNoAddr = errors.New("no available enabler bind addresses")

// Listen binds the preferred address, falling back to candidates in order when
// autoFallback is set. Holding the listener avoids a race between probing a
// port and serving on it.
func Listen(preferred string, candidates []string, autoFallback bool) (net.Listener, error) {
	if preferred != "" {
		ln, err := net.Listen("tcp", preferred)
		if err == nil {
			return ln, nil
		}
		if !autoFallback {
			return nil, fmt.Errorf("preferred bind address in use: %s: %w", preferred, err)
		}
		slog.Warn("preferred bind address unavailable, trying candidates", "addr", preferred, "error", err)
	}

	for _, addr := range candidates {
		if addr == preferred {
			continue
		}
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
		slog.Debug("candidate bind address unavailable", "addr", addr, "error", err)
	}

	return nil, ErrNoAddr
}
