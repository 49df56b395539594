package leads

import (
	"context"
	"errors"
	"sync"
)

// ErrUnavailable marks a sink that could not be initialised at startup.
var ErrUnavailable = errors.New("lead storage unavailable")

// Outcome is the result of one Record call: a stored id, or the failure.
type Outcome struct {
	ID  string
	Err error
}

func (o Outcome) OK() bool { return o.Err == nil }

func stored(id string) Outcome { return Outcome{ID: id} }

func failed(err error) Outcome { return Outcome{Err: err} }

// Sink is an append-only lead store. Record never panics; every failure is
// reported through the Outcome.
type Sink interface {
	Name() string
	Record(ctx context.Context, lead Lead) Outcome
}

// Pinger is implemented by sinks that can check their backend without
// writing.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks sink's backend when it can be checked; other sinks are
// assumed ready.
func Ping(ctx context.Context, sink Sink) error {
	if p, ok := sink.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Unavailable stands in for a sink whose backend failed to start, so chat
// keeps working and persistence reports the outage.
type Unavailable struct {
	Reason error
}

func (Unavailable) Name() string { return "unavailable" }

func (u Unavailable) Record(context.Context, Lead) Outcome {
	if u.Reason != nil {
		return failed(errors.Join(ErrUnavailable, u.Reason))
	}
	return failed(ErrUnavailable)
}

func (u Unavailable) Ping(ctx context.Context) error {
	return u.Record(ctx, Lead{}).Err
}

// MemorySink keeps leads in process; used in development and tests.
type MemorySink struct {
	mu    sync.Mutex
	leads []Lead
	Fail  error
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (*MemorySink) Name() string { return "memory" }

func (m *MemorySink) Record(ctx context.Context, lead Lead) Outcome {
	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return failed(m.Fail)
	}
	m.leads = append(m.leads, lead)
	return stored(lead.ID)
}

// Leads returns a snapshot of everything recorded so far.
func (m *MemorySink) Leads() []Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Lead(nil), m.leads...)
}
