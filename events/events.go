// Package events carries the four notifications spec.md §6 names —
// query, query-response, query-error, start — from the runner and pool to
// whatever sink a Client configured. The default sink logs through
// logxi, exactly as the teacher's sqlx-runner/init.go sets up its
// package-level logger in init().
package events

import (
	"strings"
	"time"

	logxi "github.com/mgutz/logxi/v1"
)

var logger logxi.Logger

func init() {
	logger = logxi.New("sequel:events")
	logxi.AddIgnoreFilter(func(f logxi.Frame) bool {
		return strings.Contains(f.Method(), "sqlkit/sequel/events")
	})
}

// Kind tags which of spec.md §6's four event names this is.
type Kind string

const (
	Query         Kind = "query"
	QueryResponse Kind = "query-response"
	QueryError    Kind = "query-error"
	Start         Kind = "start"
)

// Event is the payload spec.md §6 specifies: `{uid, txId, sql, bindings, method}`.
type Event struct {
	Kind     Kind
	UID      string
	TxID     string
	SQL      string
	Bindings []interface{}
	Method   string
	Err      error
	Elapsed  time.Duration
}

// Sink receives every Emit call. A Client without a configured sink uses
// the package-level logxi sink below.
type Sink func(Event)

// DefaultSink logs an Event through logxi at a level appropriate to its
// Kind: query/start at Debug, query-response at Info, query-error at Warn.
func DefaultSink(e Event) {
	switch e.Kind {
	case QueryError:
		logger.Warn("query-error", "uid", e.UID, "txId", e.TxID, "sql", e.SQL, "err", e.Err)
	case QueryResponse:
		logger.Info("query-response", "uid", e.UID, "txId", e.TxID, "method", e.Method, "elapsed", e.Elapsed)
	default:
		logger.Debug(string(e.Kind), "uid", e.UID, "txId", e.TxID, "sql", e.SQL, "method", e.Method)
	}
}

// Bus fans one Emit call out to every subscribed Sink. The zero value has
// no sinks, so Emit on it does nothing; NewBus subscribes DefaultSink.
type Bus struct {
	sinks []Sink
}

// NewBus builds a Bus subscribed to DefaultSink plus any extra sinks the
// caller supplies (e.g. a custom `log` option, spec.md §6 "Configuration").
func NewBus(extra ...Sink) *Bus {
	return &Bus{sinks: append([]Sink{DefaultSink}, extra...)}
}

// Emit fans e out to every subscribed sink.
func (b *Bus) Emit(e Event) {
	for _, s := range b.sinks {
		s(e)
	}
}
