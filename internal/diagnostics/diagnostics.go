// Package diagnostics records the non-fatal events emitted when an estimate
// falls back from the generative API to the simulation.
package diagnostics

import (
	"context"
	"log"
	"time"
)

type Kind string

const (
	KindClientFailure     Kind = "client_failure"
	KindExtractionFailure Kind = "extraction_failure"
)

type Event struct {
	ID          int64     `json:"id,omitempty" db:"id"`
	Time        time.Time `json:"time" db:"-"`
	Kind        Kind      `json:"kind" db:"kind"`
	ProjectType string    `json:"project_type" db:"project_type"`
	Reason      string    `json:"reason" db:"reason"`
}

// Sink receives fallback events. Implementations must not block the
// estimate for long and must be safe for concurrent use.
type Sink interface {
	Record(ctx context.Context, ev Event)
}

// Lister is implemented by sinks that can return recent events.
type Lister interface {
	Recent(ctx context.Context, limit int) ([]Event, error)
}

type Nop struct{}

func (Nop) Record(context.Context, Event) {}

type LogSink struct{}

func (LogSink) Record(_ context.Context, ev Event) {
	log.Printf("estimate fallback kind=%s project_type=%s reason=%s", ev.Kind, ev.ProjectType, ev.Reason)
}

type multi []Sink

// Multi fans each event out to every sink in order.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Record(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Record(ctx, ev)
	}
}
