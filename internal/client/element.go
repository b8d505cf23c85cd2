package client

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
)

// Event is a notification raised by an audio element.
type Event int

const (
	EventPlay Event = iota
	EventPause
	EventEnded
)

func (e Event) String() string {
	switch e {
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventEnded:
		return "ended"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Element plays one handle. Implementations report state changes through
// the emit callback they were created with, never through return values.
type Element interface {
	Play() error
	Pause() error
	Close() error
}

// ElementFactory builds the element for a handle. emit may be called from
// any goroutine.
type ElementFactory func(h *Handle, emit func(Event)) (Element, error)

var ErrNoAudioFile = errors.New("handle has no local file")

// ExecElement plays a file through an external command such as mpg123 or
// ffplay. Pausing stops the process, so the next Play starts from the top.
type ExecElement struct {
	name string
	args []string
	emit func(Event)

	mu     sync.Mutex
	cmd    *exec.Cmd
	closed bool
}

// ExecPlayer returns a factory running `name args... <file>` per Play.
func ExecPlayer(name string, args ...string) ElementFactory {
	return func(h *Handle, emit func(Event)) (Element, error) {
		if h.Path == "" {
			return nil, ErrNoAudioFile
		}
		if _, err := exec.LookPath(name); err != nil {
			return nil, fmt.Errorf("player %q: %w", name, err)
		}
		argv := append(append([]string{}, args...), h.Path)
		return &ExecElement{name: name, args: argv, emit: emit}, nil
	}
}

func (e *ExecElement) Play() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errors.New("element closed")
	}
	if e.cmd != nil {
		e.mu.Unlock()
		return nil
	}

	cmd := exec.Command(e.name, e.args...)
	if err := cmd.Start(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("start player: %w", err)
	}
	e.cmd = cmd
	e.mu.Unlock()

	e.emit(EventPlay)
	go e.wait(cmd)
	return nil
}

func (e *ExecElement) wait(cmd *exec.Cmd) {
	cmd.Wait()

	e.mu.Lock()
	finished := e.cmd == cmd
	if finished {
		e.cmd = nil
	}
	e.mu.Unlock()

	// A stopped process already reported pause.
	if finished {
		e.emit(EventEnded)
	}
}

func (e *ExecElement) Pause() error {
	if e.stop() {
		e.emit(EventPause)
	}
	return nil
}

func (e *ExecElement) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.stop()
	return nil
}

func (e *ExecElement) stop() bool {
	e.mu.Lock()
	cmd := e.cmd
	e.cmd = nil
	e.mu.Unlock()

	if cmd == nil {
		return false
	}
	if cmd.Process != nil {
		cmd.Process.Kill()
	}
	return true
}
