// Package failover wraps one logical capability, a single request/response
// call signature, across a primary and a secondary provider, switching
// traffic automatically after a threshold of consecutive recoverable
// failures and probing the primary for recovery.
package failover

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/soyeahso/interviewd/internal/logging"
)

// ErrUnavailable is returned when both providers fail on the same attempt.
// Callers see this uniform sentinel, never a provider-specific shape.
var ErrUnavailable = errors.New("capability unavailable")

// CallFunc is the single call signature a guard wraps.
type CallFunc[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Provider binds a name to one implementation of the capability.
type Provider[Req, Resp any] struct {
	Name string
	Call CallFunc[Req, Resp]
}

// State is a snapshot of one provider's failover bookkeeping.
type State struct {
	Name                string
	Role                string // "primary" | "secondary"
	ConsecutiveFailures int
	Active              bool
}

// Config tunes one guard instance.
type Config struct {
	Capability       string
	FailureThreshold int           // consecutive recoverable failures before switch-over (default 3)
	CallTimeout      time.Duration // per-call deadline; 0 disables
	ProbeInterval    time.Duration // minimum quiet period before re-probing the primary (default 30s)
	Recoverable      func(error) bool
}

type roleID int

const (
	rolePrimary roleID = iota
	roleSecondary
	roleNone
)

type entry[Req, Resp any] struct {
	provider Provider[Req, Resp]
	role     string
	failures int
}

// Guard routes calls for one capability across a primary/secondary pair.
// All state is owned by the guard and mutated under its mutex; the provider
// call itself runs outside the lock so a slow provider never blocks state
// inspection.
type Guard[Req, Resp any] struct {
	cfg Config
	log *logging.Logger
	now func() time.Time

	mu         sync.Mutex
	primary    entry[Req, Resp]
	secondary  entry[Req, Resp]
	active     roleID
	lastSwitch time.Time
	lastProbe  time.Time
}

// New creates a guard with the primary active.
func New[Req, Resp any](cfg Config, primary, secondary Provider[Req, Resp], log *logging.Logger) *Guard[Req, Resp] {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 30 * time.Second
	}
	if cfg.Recoverable == nil {
		cfg.Recoverable = func(error) bool { return true }
	}
	return &Guard[Req, Resp]{
		cfg:       cfg,
		log:       log.Sub("failover." + cfg.Capability),
		now:       time.Now,
		primary:   entry[Req, Resp]{provider: primary, role: "primary"},
		secondary: entry[Req, Resp]{provider: secondary, role: "secondary"},
		active:    rolePrimary,
	}
}

// Call routes the request to the active provider, falling back to the
// alternate within the same attempt on recoverable failures. It returns
// ErrUnavailable only when both providers failed on this attempt.
func (g *Guard[Req, Resp]) Call(ctx context.Context, req Req) (Resp, error) {
	var zero Resp

	g.mu.Lock()
	active := g.active
	probe := active == roleSecondary && g.shouldProbePrimaryLocked()
	if probe {
		g.lastProbe = g.now()
	}
	g.mu.Unlock()

	if active == roleNone {
		return g.tryBoth(ctx, req)
	}

	// Auto-recovery: after a quiet period, give the primary one live call.
	// On success traffic switches back; on failure this call proceeds on
	// the secondary as usual.
	if probe {
		resp, err := g.invoke(ctx, &g.primary, req)
		if err == nil {
			g.activate(rolePrimary, "primary recovered")
			return resp, nil
		}
		g.log.Debug().Str("provider", g.primary.provider.Name).Err(err).Msg("recovery probe failed")
	}

	serving := g.entryFor(active)
	resp, err := g.invoke(ctx, serving, req)
	if err == nil {
		g.recordSuccess(serving)
		return resp, nil
	}

	if !g.cfg.Recoverable(err) {
		// Terminal errors propagate untouched and never count toward
		// failover.
		return zero, err
	}

	g.recordFailure(serving)

	// Same-attempt fallback to the alternate provider.
	alternate := g.other(serving)
	resp, altErr := g.invoke(ctx, alternate, req)
	if altErr == nil {
		g.recordSuccess(alternate)
		return resp, nil
	}
	if g.cfg.Recoverable(altErr) {
		g.recordFailure(alternate)
	}

	return zero, fmt.Errorf("%s: %w: %s / %s", g.cfg.Capability, ErrUnavailable, err, altErr)
}

// tryBoth handles the degraded state where neither provider is active:
// primary then secondary in sequence, reactivating whichever succeeds.
func (g *Guard[Req, Resp]) tryBoth(ctx context.Context, req Req) (Resp, error) {
	var zero Resp

	resp, err := g.invoke(ctx, &g.primary, req)
	if err == nil {
		g.recordSuccess(&g.primary)
		g.activate(rolePrimary, "primary responding again")
		return resp, nil
	}
	if !g.cfg.Recoverable(err) {
		return zero, err
	}

	resp, secErr := g.invoke(ctx, &g.secondary, req)
	if secErr == nil {
		g.recordSuccess(&g.secondary)
		g.activate(roleSecondary, "secondary responding again")
		return resp, nil
	}

	return zero, fmt.Errorf("%s: %w: %s / %s", g.cfg.Capability, ErrUnavailable, err, secErr)
}

func (g *Guard[Req, Resp]) invoke(ctx context.Context, e *entry[Req, Resp], req Req) (Resp, error) {
	if g.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.CallTimeout)
		defer cancel()
	}
	return e.provider.Call(ctx, req)
}

func (g *Guard[Req, Resp]) recordSuccess(e *entry[Req, Resp]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e.failures = 0
}

// recordFailure increments the provider's consecutive-failure count and
// performs switch-over when the active provider reaches the threshold. A
// secondary that exhausts its own threshold leaves no provider active; the
// next call then tries both in sequence.
func (g *Guard[Req, Resp]) recordFailure(e *entry[Req, Resp]) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e.failures++
	if e.failures < g.cfg.FailureThreshold {
		return
	}
	if g.entryFor(g.active) != e {
		return
	}

	e.failures = 0 // next window starts clean
	switch g.active {
	case rolePrimary:
		g.active = roleSecondary
		g.lastSwitch = g.now()
		g.log.Warn().
			Str("from", g.primary.provider.Name).
			Str("to", g.secondary.provider.Name).
			Int("threshold", g.cfg.FailureThreshold).
			Msg("failover: switched to secondary")
	case roleSecondary:
		g.active = roleNone
		g.lastSwitch = g.now()
		g.log.Error().
			Str("provider", g.secondary.provider.Name).
			Msg("failover: secondary exhausted, no provider active")
	}
}

func (g *Guard[Req, Resp]) activate(role roleID, reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == role {
		return
	}
	g.active = role
	g.lastSwitch = g.now()
	g.log.Info().Str("provider", g.entryFor(role).provider.Name).Msg("failover: " + reason)
}

func (g *Guard[Req, Resp]) shouldProbePrimaryLocked() bool {
	if g.primary.failures != 0 {
		return false
	}
	since := g.lastSwitch
	if g.lastProbe.After(since) {
		since = g.lastProbe
	}
	return g.now().Sub(since) >= g.cfg.ProbeInterval
}

func (g *Guard[Req, Resp]) entryFor(role roleID) *entry[Req, Resp] {
	if role == roleSecondary {
		return &g.secondary
	}
	return &g.primary
}

func (g *Guard[Req, Resp]) other(e *entry[Req, Resp]) *entry[Req, Resp] {
	if e == &g.primary {
		return &g.secondary
	}
	return &g.primary
}

// States returns a snapshot of both providers' failover state.
func (g *Guard[Req, Resp]) States() []State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return []State{
		{
			Name:                g.primary.provider.Name,
			Role:                "primary",
			ConsecutiveFailures: g.primary.failures,
			Active:              g.active == rolePrimary,
		},
		{
			Name:                g.secondary.provider.Name,
			Role:                "secondary",
			ConsecutiveFailures: g.secondary.failures,
			Active:              g.active == roleSecondary,
		},
	}
}
