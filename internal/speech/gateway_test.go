package speech

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/speechgateway/internal/tts"
)

type fakeProvider struct {
	mu       sync.Mutex
	calls    int
	last     tts.Request
	lastCred string
	audio    []byte
	err      error
	block    chan struct{}
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Synthesize(ctx context.Context, req tts.Request, credential string) (*tts.Result, error) {
	p.mu.Lock()
	p.calls++
	p.last = req
	p.lastCred = credential
	p.mu.Unlock()

	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return nil, tts.NewFailure(tts.CauseTransport, 0, ctx.Err())
		}
	}

	if p.err != nil {
		return nil, p.err
	}
	return &tts.Result{Audio: p.audio, MIMEType: tts.MIMETypeMPEG}, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []Outcome
	causes   []tts.Cause
}

func (o *recordingObserver) ObserveSynthesis(outcome Outcome, cause tts.Cause, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
	o.causes = append(o.causes, cause)
}

func TestSynthesizeReturnsProviderAudio(t *testing.T) {
	p := &fakeProvider{audio: []byte("mp3-bytes")}
	obs := &recordingObserver{}
	g := NewGateway(p, Options{Credential: "sk-test", Observer: obs})

	res, err := g.Synthesize(context.Background(), Input{Text: "Hello world"})
	require.NoError(t, err)

	assert.Equal(t, []byte("mp3-bytes"), res.Audio)
	assert.Equal(t, "audio/mpeg", res.MIMEType)
	assert.Equal(t, "sk-test", p.lastCred)
	assert.Equal(t, []Outcome{OutcomeOK}, obs.outcomes)
}

func TestSynthesizeRejectsBlankText(t *testing.T) {
	for _, text := range []string{"", " ", "\n\t  "} {
		p := &fakeProvider{audio: []byte("x")}
		g := NewGateway(p, Options{Credential: "sk-test"})

		_, err := g.Synthesize(context.Background(), Input{Text: text})
		assert.ErrorIs(t, err, ErrTextRequired)
		assert.Zero(t, p.callCount())
	}
}

func TestSynthesizeTextCheckedBeforeCredential(t *testing.T) {
	g := NewGateway(&fakeProvider{}, Options{})

	_, err := g.Synthesize(context.Background(), Input{Text: ""})
	assert.ErrorIs(t, err, ErrTextRequired)
}

func TestSynthesizeWithoutCredentialSkipsProvider(t *testing.T) {
	p := &fakeProvider{audio: []byte("x")}
	obs := &recordingObserver{}
	g := NewGateway(p, Options{Observer: obs})

	res, err := g.Synthesize(context.Background(), Input{Text: "Hello", Model: "tts-1", Voice: "alloy"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrCredentialMissing)
	assert.Zero(t, p.callCount())
	assert.Equal(t, []Outcome{OutcomeUnconfigured}, obs.outcomes)
}

func TestSynthesizeProviderFailureIsGeneric(t *testing.T) {
	p := &fakeProvider{err: tts.NewFailure(tts.CauseRateLimited, 429, errors.New("quota exceeded for org-123"))}
	obs := &recordingObserver{}
	g := NewGateway(p, Options{Credential: "sk-test", Observer: obs})

	_, err := g.Synthesize(context.Background(), Input{Text: "Hello"})
	require.Error(t, err)

	f, ok := tts.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, tts.KindProvider, f.Kind)
	assert.Equal(t, "Failed to generate speech", err.Error())
	assert.NotContains(t, err.Error(), "org-123")
	assert.Equal(t, 1, p.callCount())
	assert.Equal(t, []tts.Cause{tts.CauseRateLimited}, obs.causes)
}

func TestSynthesizeWrapsUnclassifiedProviderErrors(t *testing.T) {
	p := &fakeProvider{err: errors.New("boom")}
	g := NewGateway(p, Options{Credential: "sk-test"})

	_, err := g.Synthesize(context.Background(), Input{Text: "Hello"})

	f, ok := tts.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, tts.CauseUpstream, f.Cause)
	assert.Equal(t, "Failed to generate speech", err.Error())
}

func TestBuildRequestDefaults(t *testing.T) {
	g := NewGateway(&fakeProvider{}, Options{})

	req := g.BuildRequest(Input{Text: "Hello world"})
	assert.Equal(t, tts.Request{
		Model: "gpt-4o-mini-tts",
		Voice: "coral",
		Input: "Hello world",
	}, req)
}

func TestBuildRequestOverridesIndependently(t *testing.T) {
	g := NewGateway(&fakeProvider{}, Options{Defaults: Defaults{Instructions: "Be calm."}})

	tests := []struct {
		name string
		in   Input
		want tts.Request
	}{
		{
			name: "model only",
			in:   Input{Text: "a", Model: "tts-1"},
			want: tts.Request{Model: "tts-1", Voice: "coral", Input: "a", Instructions: "Be calm."},
		},
		{
			name: "voice only",
			in:   Input{Text: "a", Voice: "alloy"},
			want: tts.Request{Model: "gpt-4o-mini-tts", Voice: "alloy", Input: "a", Instructions: "Be calm."},
		},
		{
			name: "instructions only",
			in:   Input{Text: "a", Instructions: "Whisper."},
			want: tts.Request{Model: "gpt-4o-mini-tts", Voice: "coral", Input: "a", Instructions: "Whisper."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.BuildRequest(tt.in))
		})
	}
}

func TestSynthesizeTimeout(t *testing.T) {
	p := &fakeProvider{block: make(chan struct{})}
	g := NewGateway(p, Options{Credential: "sk-test", Timeout: 20 * time.Millisecond})

	_, err := g.Synthesize(context.Background(), Input{Text: "Hello"})

	f, ok := tts.AsFailure(err)
	require.True(t, ok)
	assert.ErrorIs(t, f, context.DeadlineExceeded)
}

func TestSynthesizeConcurrencyCap(t *testing.T) {
	p := &fakeProvider{audio: []byte("x"), block: make(chan struct{})}
	g := NewGateway(p, Options{Credential: "sk-test", MaxConcurrency: 2})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Synthesize(context.Background(), Input{Text: "Hello"})
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return p.inFlight.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(p.block)
	wg.Wait()

	assert.Equal(t, int32(2), p.peak.Load())
	assert.Equal(t, 5, p.callCount())
}
