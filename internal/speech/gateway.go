package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nikhilbhutani/speechgateway/internal/tts"
)

var (
	ErrTextRequired      = errors.New("text is required")
	ErrCredentialMissing = errors.New("provider credential not configured")
)

// Outcome labels a finished gateway call.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeInvalid       Outcome = "invalid"
	OutcomeUnconfigured  Outcome = "unconfigured"
	OutcomeProviderError Outcome = "provider_error"
)

// Defaults fill the optional fields of an Input.
type Defaults struct {
	Model        string
	Voice        string
	Instructions string
}

// Input is a caller's synthesis request before defaults are applied.
type Input struct {
	Text         string
	Model        string
	Voice        string
	Instructions string
}

type Options struct {
	Defaults       Defaults
	Credential     string
	Timeout        time.Duration
	MaxConcurrency int
	Observer       Observer
}

// Observer is notified once per Synthesize call.
type Observer interface {
	ObserveSynthesis(outcome Outcome, cause tts.Cause, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveSynthesis(Outcome, tts.Cause, time.Duration) {}

// Gateway validates synthesis input and invokes the provider. It holds no
// per-request state; concurrent calls are independent apart from the
// optional concurrency cap.
type Gateway struct {
	provider   tts.Provider
	credential string
	defaults   Defaults
	timeout    time.Duration
	slots      *semaphore.Weighted
	observer   Observer
}

func NewGateway(provider tts.Provider, opts Options) *Gateway {
	if opts.Defaults.Model == "" {
		opts.Defaults.Model = tts.DefaultModel
	}
	if opts.Defaults.Voice == "" {
		opts.Defaults.Voice = tts.DefaultVoice
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	g := &Gateway{
		provider:   provider,
		credential: opts.Credential,
		defaults:   opts.Defaults,
		timeout:    opts.Timeout,
		observer:   opts.Observer,
	}
	if opts.MaxConcurrency > 0 {
		g.slots = semaphore.NewWeighted(int64(opts.MaxConcurrency))
	}
	return g
}

// BuildRequest applies defaults. Each field is overridden independently.
func (g *Gateway) BuildRequest(in Input) tts.Request {
	req := tts.Request{
		Model:        g.defaults.Model,
		Voice:        g.defaults.Voice,
		Input:        in.Text,
		Instructions: g.defaults.Instructions,
	}
	if in.Model != "" {
		req.Model = in.Model
	}
	if in.Voice != "" {
		req.Voice = in.Voice
	}
	if in.Instructions != "" {
		req.Instructions = in.Instructions
	}
	return req
}

// Synthesize runs the checks in order (text, credential) and then calls the
// provider exactly once. Provider errors come back as *tts.Failure.
func (g *Gateway) Synthesize(ctx context.Context, in Input) (*tts.Result, error) {
	start := time.Now()

	if strings.TrimSpace(in.Text) == "" {
		g.observer.ObserveSynthesis(OutcomeInvalid, "", time.Since(start))
		return nil, ErrTextRequired
	}

	if g.credential == "" {
		g.observer.ObserveSynthesis(OutcomeUnconfigured, "", time.Since(start))
		return nil, ErrCredentialMissing
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if g.slots != nil {
		if err := g.slots.Acquire(ctx, 1); err != nil {
			f := tts.NewFailure(tts.CauseTransport, 0, fmt.Errorf("acquire provider slot: %w", err))
			g.observer.ObserveSynthesis(OutcomeProviderError, f.Cause, time.Since(start))
			return nil, f
		}
		defer g.slots.Release(1)
	}

	res, err := g.provider.Synthesize(ctx, g.BuildRequest(in), g.credential)
	if err != nil {
		f, ok := tts.AsFailure(err)
		if !ok {
			f = tts.NewFailure(tts.CauseUpstream, 0, err)
		}
		g.observer.ObserveSynthesis(OutcomeProviderError, f.Cause, time.Since(start))
		return nil, f
	}

	g.observer.ObserveSynthesis(OutcomeOK, "", time.Since(start))
	return res, nil
}

// ProviderName identifies the backing provider in logs and usage records.
func (g *Gateway) ProviderName() string {
	return g.provider.Name()
}
