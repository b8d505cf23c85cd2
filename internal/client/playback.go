package client

import (
	"log/slog"
	"sync"
)

// PlaybackState is what the player UI renders.
type PlaybackState struct {
	IsPlaying bool
	IsVisible bool
}

// Playback owns the audio element for the current handle. IsPlaying only
// changes in response to element events, so it always reflects what the
// element last reported.
type Playback struct {
	factory ElementFactory

	mu       sync.Mutex
	handle   *Handle
	element  Element
	gen      uint64
	state    PlaybackState
	onChange func(PlaybackState)
}

// NewPlayback starts with the player hidden and nothing loaded.
func NewPlayback(factory ElementFactory) *Playback {
	return &Playback{factory: factory}
}

// OnChange registers fn to run after every state change.
func (p *Playback) OnChange(fn func(PlaybackState)) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

// Load swaps in the element for h, or unloads when h is nil. IsPlaying
// resets; visibility is kept.
func (p *Playback) Load(h *Handle) error {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	old := p.element
	p.element = nil
	p.handle = h
	changed := p.state.IsPlaying
	p.state.IsPlaying = false
	p.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			slog.Warn("close audio element", "error", err)
		}
	}
	if changed {
		p.notify()
	}
	if h == nil {
		return nil
	}

	el, err := p.factory(h, func(ev Event) { p.onEvent(gen, ev) })
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.gen != gen {
		// Superseded by a later Load while building.
		p.mu.Unlock()
		el.Close()
		return nil
	}
	p.element = el
	p.mu.Unlock()
	return nil
}

// TogglePlay asks the element to pause when playing and to play otherwise.
// Without a loaded element it does nothing.
func (p *Playback) TogglePlay() error {
	p.mu.Lock()
	el := p.element
	playing := p.state.IsPlaying
	p.mu.Unlock()

	if el == nil {
		return nil
	}
	if playing {
		return el.Pause()
	}
	return el.Play()
}

func (p *Playback) ToggleVisibility() {
	p.mu.Lock()
	p.state.IsVisible = !p.state.IsVisible
	p.mu.Unlock()
	p.notify()
}

func (p *Playback) State() PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Ready reports whether an element is loaded and can play.
func (p *Playback) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.element != nil
}

// Loaded is the handle currently bound to the element, if any.
func (p *Playback) Loaded() *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle
}

func (p *Playback) onEvent(gen uint64, ev Event) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	playing := ev == EventPlay
	changed := p.state.IsPlaying != playing
	p.state.IsPlaying = playing
	p.mu.Unlock()

	if changed {
		p.notify()
	}
}

func (p *Playback) notify() {
	p.mu.Lock()
	fn, st := p.onChange, p.state
	p.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}
