package client

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeElement emits events synchronously, like a browser audio element
// that starts instantly.
type fakeElement struct {
	emit   func(Event)
	closed bool
}

func (e *fakeElement) Play() error  { e.emit(EventPlay); return nil }
func (e *fakeElement) Pause() error { e.emit(EventPause); return nil }
func (e *fakeElement) Close() error { e.closed = true; return nil }

type fakePlayer struct {
	mu       sync.Mutex
	elements []*fakeElement
}

func (f *fakePlayer) factory(h *Handle, emit func(Event)) (Element, error) {
	el := &fakeElement{emit: emit}
	f.mu.Lock()
	f.elements = append(f.elements, el)
	f.mu.Unlock()
	return el, nil
}

func (f *fakePlayer) last() *fakeElement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elements[len(f.elements)-1]
}

func TestPlaybackFollowsElementEvents(t *testing.T) {
	fp := &fakePlayer{}
	p := NewPlayback(fp.factory)
	require.NoError(t, p.Load(&Handle{ID: "1"}))

	assert.Equal(t, PlaybackState{}, p.State())
	assert.True(t, p.Ready())

	require.NoError(t, p.TogglePlay())
	assert.True(t, p.State().IsPlaying)

	require.NoError(t, p.TogglePlay())
	assert.False(t, p.State().IsPlaying)

	require.NoError(t, p.TogglePlay())
	fp.last().emit(EventEnded)
	assert.False(t, p.State().IsPlaying)
}

func TestPlaybackLoadResetsPlayingKeepsVisibility(t *testing.T) {
	fp := &fakePlayer{}
	p := NewPlayback(fp.factory)
	require.NoError(t, p.Load(&Handle{ID: "1"}))
	require.NoError(t, p.TogglePlay())
	p.ToggleVisibility()
	first := fp.last()

	require.NoError(t, p.Load(&Handle{ID: "2"}))

	assert.Equal(t, PlaybackState{IsPlaying: false, IsVisible: true}, p.State())
	assert.True(t, first.closed)
	assert.Equal(t, "2", p.Loaded().ID)

	// Late events from the replaced element are ignored.
	first.emit(EventPlay)
	assert.False(t, p.State().IsPlaying)
}

func TestPlaybackToggleWithoutElement(t *testing.T) {
	p := NewPlayback((&fakePlayer{}).factory)

	assert.False(t, p.Ready())
	assert.NoError(t, p.TogglePlay())
	assert.False(t, p.State().IsPlaying)
}

func TestPlaybackNotReadyWhenElementFails(t *testing.T) {
	p := NewPlayback(func(*Handle, func(Event)) (Element, error) {
		return nil, ErrNoAudioFile
	})

	assert.ErrorIs(t, p.Load(&Handle{ID: "1"}), ErrNoAudioFile)
	assert.False(t, p.Ready())
}

func TestPlaybackVisibilityIndependentOfPlaying(t *testing.T) {
	fp := &fakePlayer{}
	p := NewPlayback(fp.factory)
	require.NoError(t, p.Load(&Handle{ID: "1"}))
	require.NoError(t, p.TogglePlay())

	p.ToggleVisibility()
	assert.Equal(t, PlaybackState{IsPlaying: true, IsVisible: true}, p.State())

	p.ToggleVisibility()
	assert.Equal(t, PlaybackState{IsPlaying: true, IsVisible: false}, p.State())
}

func TestPlaybackOnChange(t *testing.T) {
	fp := &fakePlayer{}
	p := NewPlayback(fp.factory)
	var seen []PlaybackState
	p.OnChange(func(s PlaybackState) { seen = append(seen, s) })

	require.NoError(t, p.Load(&Handle{ID: "1"}))
	require.NoError(t, p.TogglePlay())
	p.ToggleVisibility()

	assert.Equal(t, []PlaybackState{
		{IsPlaying: true, IsVisible: false},
		{IsPlaying: true, IsVisible: true},
	}, seen)
}
