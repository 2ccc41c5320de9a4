// Package recorder captures update-cycle activity into sessions that
// can be exported for offline inspection.
//
// A Recorder plugs into the engine as its cycle observer. While
// recording it buffers one event per cycle, bounded by capacity with
// the oldest events dropped first. Stop seals the buffer into a
// Session which a Store exports as JSON, either to local disk or to
// S3.
package recorder

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/tessera-ui/tessera/pkg/runtime"
)

// Sentinel errors for recorder state transitions.
var (
	ErrNotRecording     = errors.New("recorder: no recording in progress")
	ErrAlreadyRecording = errors.New("recorder: recording already in progress")
)

const defaultCapacity = 4096

// Event is one recorded update cycle.
type Event struct {
	Seq         uint64        `json:"seq"`
	At          time.Time     `json:"at"`
	Trigger     string        `json:"trigger"`
	BindingRuns int           `json:"binding_runs"`
	PropUpdates int           `json:"prop_updates"`
	Rebuilds    int           `json:"rebuilds"`
	LayoutPass  bool          `json:"layout_pass"`
	Duration    time.Duration `json:"duration_ns"`
	Errors      int           `json:"errors"`
}

// Session is one sealed recording.
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	StoppedAt time.Time `json:"stopped_at"`
	Dropped   int       `json:"dropped"`
	Events    []Event   `json:"events"`
}

type recorderState uint8

const (
	stateIdle recorderState = iota
	stateRecording
	statePaused
)

// Recorder buffers cycle events between Start and Stop.
type Recorder struct {
	mu       sync.Mutex
	state    recorderState
	capacity int
	events   []Event
	dropped  int
	started  time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithCapacity bounds the in-memory event buffer.
func WithCapacity(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// New creates an idle recorder.
func New(opts ...RecorderOption) *Recorder {
	r := &Recorder{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Observe is the engine cycle observer. Events arriving while the
// recorder is idle or paused are discarded.
func (r *Recorder) Observe(info runtime.CycleInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateRecording {
		return
	}
	if len(r.events) >= r.capacity {
		r.events = r.events[1:]
		r.dropped++
	}
	r.events = append(r.events, Event{
		Seq:         info.Seq,
		At:          time.Now(),
		Trigger:     info.Trigger,
		BindingRuns: info.BindingRuns,
		PropUpdates: info.PropUpdates,
		Rebuilds:    info.Rebuilds,
		LayoutPass:  info.LayoutPass,
		Duration:    info.Duration,
		Errors:      info.Errors,
	})
}

// Start begins a new recording.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateIdle {
		return ErrAlreadyRecording
	}
	r.state = stateRecording
	r.events = nil
	r.dropped = 0
	r.started = time.Now()
	return nil
}

// Pause suspends event capture without sealing the session.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateRecording {
		return ErrNotRecording
	}
	r.state = statePaused
	return nil
}

// Resume continues a paused recording.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != statePaused {
		return ErrNotRecording
	}
	r.state = stateRecording
	return nil
}

// Stop seals and returns the session.
func (r *Recorder) Stop() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateIdle {
		return nil, ErrNotRecording
	}
	session := &Session{
		ID:        newSessionID(),
		StartedAt: r.started,
		StoppedAt: time.Now(),
		Dropped:   r.dropped,
		Events:    r.events,
	}
	r.state = stateIdle
	r.events = nil
	r.dropped = 0
	return session, nil
}

// Recording reports whether events are currently captured.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateRecording
}

// Len returns the number of buffered events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return time.Now().UTC().Format("20060102T150405.000000000")
	}
	return hex.EncodeToString(b)
}
