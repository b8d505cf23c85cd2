package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

var (
	ErrEmptyText      = errors.New("text is empty")
	ErrSubmitInFlight = errors.New("a request is already in flight")
	// ErrSuperseded is returned by a Submit whose request was overtaken by
	// Close; its response is dropped.
	ErrSuperseded = errors.New("request superseded")
)

// Status is the request lifecycle position.
type Status int

const (
	StatusIdle Status = iota
	StatusSubmitting
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitting:
		return "submitting"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is a snapshot of the lifecycle. Handle is set only when Ready,
// Reason only when Failed.
type State struct {
	Status Status
	Handle *Handle
	Reason string
}

// Synthesizer turns text into audio bytes. *Client satisfies it.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Clipboard reads the system clipboard.
type Clipboard interface {
	ReadText() (string, error)
}

// Lifecycle holds the text being edited and the state of the single
// outstanding synthesis request.
type Lifecycle struct {
	synth    Synthesizer
	store    AudioStore
	playback *Playback

	// swap orders handle installs against discards; taken before mu.
	swap sync.Mutex

	mu       sync.Mutex
	text     string
	state    State
	seq      uint64
	onChange func(State)
}

// NewLifecycle wires a lifecycle; playback may be nil for headless use.
func NewLifecycle(synth Synthesizer, store AudioStore, playback *Playback) *Lifecycle {
	return &Lifecycle{synth: synth, store: store, playback: playback}
}

// OnChange registers fn to run after every state transition.
func (l *Lifecycle) OnChange(fn func(State)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

func (l *Lifecycle) SetText(text string) {
	l.mu.Lock()
	l.text = text
	l.mu.Unlock()
}

func (l *Lifecycle) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text
}

// Paste replaces the text with the clipboard contents. On a read error the
// text is left alone.
func (l *Lifecycle) Paste(cb Clipboard) error {
	text, err := cb.ReadText()
	if err != nil {
		slog.Warn("clipboard read failed", "error", err)
		return fmt.Errorf("read clipboard: %w", err)
	}
	l.SetText(text)
	return nil
}

// Reset clears the text. Request state and audio are untouched.
func (l *Lifecycle) Reset() {
	l.SetText("")
}

func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Submit synthesizes the current text and blocks until the request settles.
// Blank text is refused without a request and without a state change, as is
// a submit while another is in flight. Any previous handle is released
// before the new request is sent. A response arriving after Close is
// released and returns ErrSuperseded without touching state or playback.
func (l *Lifecycle) Submit(ctx context.Context) error {
	l.mu.Lock()
	text := l.text
	if strings.TrimSpace(text) == "" {
		l.mu.Unlock()
		return ErrEmptyText
	}
	if l.state.Status == StatusSubmitting {
		l.mu.Unlock()
		return ErrSubmitInFlight
	}
	l.seq++
	seq := l.seq
	old := l.state.Handle
	l.state = State{Status: StatusSubmitting}
	l.mu.Unlock()

	l.discard(old)
	l.notify()

	audio, err := l.synth.Synthesize(ctx, text)
	if err != nil {
		slog.Debug("speech request failed", "error", err)
		if !l.settleIfCurrent(seq, State{Status: StatusFailed, Reason: ErrSynthesisFailed.Error()}) {
			return ErrSuperseded
		}
		return err
	}

	h, err := l.store.Create(audio, "audio/mpeg")
	if err != nil {
		slog.Warn("store audio failed", "error", err)
		if !l.settleIfCurrent(seq, State{Status: StatusFailed, Reason: ErrSynthesisFailed.Error()}) {
			return ErrSuperseded
		}
		return fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	l.swap.Lock()
	l.mu.Lock()
	if l.seq != seq {
		l.mu.Unlock()
		l.swap.Unlock()
		if err := l.store.Release(h); err != nil {
			slog.Warn("release audio failed", "handle", h.ID, "error", err)
		}
		return ErrSuperseded
	}
	l.state = State{Status: StatusReady, Handle: h}
	l.mu.Unlock()

	if l.playback != nil {
		if err := l.playback.Load(h); err != nil {
			slog.Warn("load audio failed", "handle", h.ID, "error", err)
		}
	}
	l.swap.Unlock()

	l.notify()
	return nil
}

// Close abandons any in-flight request, releases the current handle and
// returns to Idle.
func (l *Lifecycle) Close() error {
	l.mu.Lock()
	l.seq++
	old := l.state.Handle
	changed := l.state.Status != StatusIdle
	l.state = State{Status: StatusIdle}
	l.mu.Unlock()

	err := l.discard(old)
	if changed {
		l.notify()
	}
	return err
}

func (l *Lifecycle) discard(h *Handle) error {
	if h == nil {
		return nil
	}
	l.swap.Lock()
	defer l.swap.Unlock()

	if l.playback != nil {
		l.playback.Load(nil)
	}
	if err := l.store.Release(h); err != nil {
		slog.Warn("release audio failed", "handle", h.ID, "error", err)
		return err
	}
	return nil
}

func (l *Lifecycle) settleIfCurrent(seq uint64, st State) bool {
	l.mu.Lock()
	if l.seq != seq {
		l.mu.Unlock()
		return false
	}
	l.state = st
	l.mu.Unlock()
	l.notify()
	return true
}

func (l *Lifecycle) notify() {
	l.mu.Lock()
	fn, st := l.onChange, l.state
	l.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

var _ Synthesizer = (*Client)(nil)
