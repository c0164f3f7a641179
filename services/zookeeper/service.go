// Package zookeeper maintains the Zookeeper session used to discover Kafka
// brokers for the event queue. Deployments that list brokers directly never
// open a session.
package zookeeper

import (
	"errors"
	"strings"
	"time"

	"github.com/samuel/go-zookeeper/zk"
	"go.uber.org/zap"
)

// ErrNoServers indicates an empty quorum address list.
var ErrNoServers = errors.New("zookeeper: no servers to connect to")

// Session holds an open Zookeeper connection. The underlying library keeps
// the session alive across individual server failures; a Session stays usable
// until Close.
type Session struct {
	// Addrs is the quorum this session was dialed against.
	Addrs []string
	// Conn is the open connection.
	Conn *zk.Conn
}

// Connect opens a session against the quorum. Connection establishment is
// asynchronous; watches set through the returned session fire once the
// connection is up. Session state changes are logged as they happen.
func Connect(addrs []string, timeout time.Duration, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	addrs = NormalizeAddrs(addrs)
	if len(addrs) == 0 {
		return nil, ErrNoServers
	}

	conn, sessionEvents, err := zk.Connect(addrs, timeout)
	if err != nil {
		return nil, err
	}

	go func() {
		for ev := range sessionEvents {
			logger.Info("zk session event",
				zap.String("type", ev.Type.String()),
				zap.String("state", ev.State.String()),
				zap.String("server", ev.Server))
		}
	}()

	return &Session{Addrs: addrs, Conn: conn}, nil
}

// Close releases the session and its ephemeral state.
func (s *Session) Close() {
	s.Conn.Close()
}

// NormalizeAddrs trims whitespace and drops empty entries. Address lists
// commonly arrive from a comma split of an environment variable, which leaves
// stray spaces and empty strings behind.
func NormalizeAddrs(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}
