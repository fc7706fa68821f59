// Package provider implements the external-value protocol (spec.md
// §4.8): synchronous-provider and asynchronous-request modes by which
// the interpreter obtains values it cannot compute itself. Grounded on
// the teacher's hardware device bus (KTStephano-GVM vm/devices.go),
// whose HardwareDevice.TrySend(InteractionID, cmd, data)/Response
// pattern is the direct ancestor of this package's request/response
// correlation — generalized from the teacher's device-bus interaction
// IDs to google/uuid request IDs and from a polling channel loop to a
// deadline-bounded oneshot-per-request wait, per spec.md §9's
// "async request/response -> task-and-channel" design note.
package provider

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Provider is the synchronous-provider contract (spec.md §4.8 table).
// All methods may block briefly (e.g. a simulated hardware read) but
// must not themselves suspend the interpreter's cooperative scheduler.
type Provider interface {
	DigitalRead(pin int32) (int32, error)
	AnalogRead(pin int32) (int32, error)
	Millis() (uint32, error)
	Micros() (uint32, error)
	LibrarySensor(library, method string, param int32) (int32, error)
}

// ErrNoProvider is returned internally when synchronous mode has no
// configured Provider; callers translate it to a ConfigurationError
// command and the sentinel value (spec.md §4.8).
var ErrNoProvider = errors.New("external value requested without provider")

// ErrTimeout is returned when an asynchronous request's deadline
// elapses before handle_response is called.
var ErrTimeout = errors.New("external value request timed out")

// SentinelInt is the value substituted for any failed external read
// (spec.md §4.8: "return a sentinel (-1)").
const SentinelInt int32 = -1

// SentinelUint is the unsigned counterpart used for millis/micros
// failures, since those calls report via uint32.
const SentinelUint uint32 = 0xFFFFFFFF

// Kind names which external value a request resolves. No code in this
// module reads it; the caller already knows which typed method it
// invoked.
type Kind string

const (
	KindDigitalRead    Kind = "digital_read"
	KindAnalogRead     Kind = "analog_read"
	KindMillis         Kind = "millis"
	KindMicros         Kind = "micros"
	KindLibrarySensor  Kind = "library_sensor"
)

// pending is one in-flight asynchronous request awaiting a response.
type pending struct {
	result chan Response
}

// Response is what the host supplies to HandleResponse: either a value
// or an error (spec.md §4.8: "handle_response(request_id, value | error)").
type Response struct {
	Value int32
	Err   error
}

// AsyncBroker correlates emitted *_REQUEST commands with the host's
// later HandleResponse calls, one oneshot channel per request_id
// (spec.md §9's task-and-channel design note). Safe for concurrent use
// since HandleResponse is invoked from whatever goroutine the host's
// transport uses while Await runs on the interpreter's execution
// goroutine.
type AsyncBroker struct {
	timeout time.Duration

	mu      sync.Mutex
	waiting map[string]*pending
}

// NewAsyncBroker returns a broker with the given default deadline
// (spec.md §4.8: "default 5000 ms").
func NewAsyncBroker(timeout time.Duration) *AsyncBroker {
	if timeout <= 0 {
		timeout = 5000 * time.Millisecond
	}
	return &AsyncBroker{timeout: timeout, waiting: make(map[string]*pending)}
}

// NewRequestID mints a fresh request_id (spec.md §4.8).
func (b *AsyncBroker) NewRequestID() string {
	return uuid.NewString()
}

// Await registers requestID as in-flight and blocks until the host
// calls HandleResponse with a matching id, ctx is cancelled, or the
// broker's deadline elapses — whichever comes first. On timeout it
// returns ErrTimeout and the sentinel; the registration is cleared so
// a subsequent late HandleResponse call for the same id is silently
// discarded (spec.md §4.8: "late responses are discarded").
func (b *AsyncBroker) Await(ctx context.Context, requestID string) (int32, error) {
	p := &pending{result: make(chan Response, 1)}

	b.mu.Lock()
	b.waiting[requestID] = p
	b.mu.Unlock()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case resp := <-p.result:
		return resp.Value, resp.Err
	case <-timer.C:
		b.clear(requestID)
		return SentinelInt, ErrTimeout
	case <-ctx.Done():
		b.clear(requestID)
		return SentinelInt, ctx.Err()
	}
}

// HandleResponse fulfils a pending request. If no request is waiting
// under requestID (already timed out, already answered, or never
// issued), the response is discarded and ok is false.
func (b *AsyncBroker) HandleResponse(requestID string, value int32, err error) (ok bool) {
	b.mu.Lock()
	p, found := b.waiting[requestID]
	if found {
		delete(b.waiting, requestID)
	}
	b.mu.Unlock()
	if !found {
		return false
	}
	p.result <- Response{Value: value, Err: err}
	return true
}

func (b *AsyncBroker) clear(requestID string) {
	b.mu.Lock()
	delete(b.waiting, requestID)
	b.mu.Unlock()
}

// Pending reports how many requests are currently awaiting a response.
func (b *AsyncBroker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.waiting)
}

// Cancel drops every pending request (spec.md §5: "explicit
// cancellation by the host ... must drop pending requests and stop
// emission cleanly"), waking any Await callers with ErrTimeout.
func (b *AsyncBroker) Cancel() {
	b.mu.Lock()
	waiting := b.waiting
	b.waiting = make(map[string]*pending)
	b.mu.Unlock()
	for _, p := range waiting {
		select {
		case p.result <- Response{Value: SentinelInt, Err: ErrTimeout}:
		default:
		}
	}
}
