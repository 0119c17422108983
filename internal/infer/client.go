// Package infer reaches a local Ollama runtime over two transports:
// the HTTP API and the CLI subprocess. A Client probes once for
// availability, remembers which transport answered, and falls back
// from API to process mid-attempt with a sticky switch.
package infer

import (
	"context"
	"sync/atomic"
	"time"
)

// Defaults shared by the transports and the client.
const (
	DefaultHost             = "http://localhost:11434"
	DefaultBinary           = "ollama"
	DefaultGenTimeout       = 60 * time.Second
	DefaultAPIProbeTimeout  = 2 * time.Second
	DefaultProcProbeTimeout = 3 * time.Second
	DefaultMaxRetries       = 2
	DefaultBaseDelay        = 2 * time.Second
)

// MaxPromptRunes bounds what Query forwards to a transport, marker
// included.
const MaxPromptRunes = 4000

const truncationMarker = "..."

// preference is the remembered transport choice.
type preference int32

const (
	prefUnknown preference = iota
	prefAPI
	prefProc
)

// Config configures a Client. Zero values take the defaults above,
// except MaxRetries: zero means no retries (a single attempt) and a
// negative value takes DefaultMaxRetries.
type Config struct {
	Host           string
	Binary         string
	GenTimeout     time.Duration
	APIProbe       time.Duration
	ProcProbe      time.Duration
	MaxRetries     int
	BaseDelay      time.Duration
	PromptMaxRunes int
}

// Client queries the model host with bounded retries. The transport
// preference lives in an atomic field on the client rather than a
// package global; concurrent queries may race on it, but both
// transports reach the same host, so a race only changes which
// transport the next call tries first.
type Client struct {
	api        Transport
	proc       Transport
	maxRetries int
	baseDelay  time.Duration
	promptMax  int

	// sleep is swapped out by tests to record backoff without waiting.
	sleep func(time.Duration)

	pref atomic.Int32
}

// NewClient builds a Client with both registered transports.
func NewClient(cfg Config) *Client {
	tc := TransportConfig{
		Host:       cfg.Host,
		Binary:     cfg.Binary,
		GenTimeout: cfg.GenTimeout,
	}
	tc.ProbeTimeout = cfg.APIProbe
	api, _ := GetTransport(TransportAPI, tc)
	tc.ProbeTimeout = cfg.ProcProbe
	proc, _ := GetTransport(TransportProcess, tc)
	return newClient(api, proc, cfg)
}

func newClient(api, proc Transport, cfg Config) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	promptMax := cfg.PromptMaxRunes
	if promptMax <= 0 {
		promptMax = MaxPromptRunes
	}
	return &Client{
		api:        api,
		proc:       proc,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		promptMax:  promptMax,
		sleep:      time.Sleep,
	}
}

// TruncatePrompt cuts prompt to at most max runes, marker included.
// Prompts at or under the limit pass through untouched.
func TruncatePrompt(prompt string, max int) string {
	if max <= 0 {
		max = MaxPromptRunes
	}
	runes := []rune(prompt)
	if len(runes) <= max {
		return prompt
	}
	keep := max - len(truncationMarker)
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + truncationMarker
}

// ensureAvailable probes for a transport when none is remembered yet.
// A known preference short-circuits: probing again would reset the
// sticky fallback switch.
func (c *Client) ensureAvailable(ctx context.Context) (preference, error) {
	if p := preference(c.pref.Load()); p != prefUnknown {
		return p, nil
	}
	if c.api.Healthy(ctx) {
		c.pref.Store(int32(prefAPI))
		return prefAPI, nil
	}
	if c.proc.Healthy(ctx) {
		c.pref.Store(int32(prefProc))
		return prefProc, nil
	}
	return prefUnknown, &ServiceUnavailableError{}
}

// Reprobe forgets the remembered transport and probes again. Returns
// ServiceUnavailableError when neither transport answers.
func (c *Client) Reprobe(ctx context.Context) error {
	c.pref.Store(int32(prefUnknown))
	_, err := c.ensureAvailable(ctx)
	return err
}

// Query sends one prompt and returns the model's text. The prompt is
// truncated once before the retry loop. Attempts = maxRetries + 1;
// each failed attempt sleeps attempt × baseDelay (linear backoff).
// When every attempt fails the last transport error is returned as-is
// so callers can distinguish timeout, not-installed, exit and network
// failures.
func (c *Client) Query(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = DefaultCleanModel
	}
	pref, err := c.ensureAvailable(ctx)
	if err != nil {
		return "", err
	}
	prompt = TruncatePrompt(prompt, c.promptMax)

	attempts := c.maxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := c.attempt(ctx, pref, prompt, model)
		if err == nil {
			return out, nil
		}
		lastErr = err
		pref = preference(c.pref.Load())
		if attempt < attempts {
			c.sleep(time.Duration(attempt) * c.baseDelay)
		}
	}
	return "", lastErr
}

// attempt tries the preferred transport once. A failed API call flips
// the preference to the process transport before the in-line fallback
// runs, whether or not the fallback answers: a failed API is never
// retried for the rest of the process lifetime unless Reprobe runs.
func (c *Client) attempt(ctx context.Context, pref preference, prompt, model string) (string, error) {
	if pref == prefAPI {
		out, apiErr := c.api.Generate(ctx, model, prompt)
		if apiErr == nil {
			return out, nil
		}
		c.pref.Store(int32(prefProc))
		out, procErr := c.proc.Generate(ctx, model, prompt)
		if procErr == nil {
			return out, nil
		}
		return "", procErr
	}
	return c.proc.Generate(ctx, model, prompt)
}

// ListModels lists the models the host knows, following the same
// preference and fallback order as Query.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	pref, err := c.ensureAvailable(ctx)
	if err != nil {
		return nil, err
	}
	if pref == prefAPI {
		names, apiErr := c.api.ListModels(ctx)
		if apiErr == nil {
			return names, nil
		}
		c.pref.Store(int32(prefProc))
		names, procErr := c.proc.ListModels(ctx)
		if procErr == nil {
			return names, nil
		}
		return nil, procErr
	}
	return c.proc.ListModels(ctx)
}
