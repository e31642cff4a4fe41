package notify

import (
	"context"
	"errors"
	"sync"
	"time"
)

type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// ErrRelayUnavailable is returned without dialing while the breaker is open.
var ErrRelayUnavailable = errors.New("mail relay unavailable, circuit open")

type BreakerConfig struct {
	// Threshold is the number of consecutive failed deliveries that opens the breaker.
	Threshold int
	// Cooldown is how long the breaker stays open before letting a probe through.
	Cooldown time.Duration
	// Probes is the number of successful half-open deliveries needed to close again.
	Probes int
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{Threshold: 5, Cooldown: 30 * time.Second, Probes: 3}
}

// Breaker guards the SMTP relay. Cancelled deliveries do not count as failures.
type Breaker struct {
	cfg BreakerConfig

	mu       sync.Mutex
	state    BreakerState
	failures int
	probes   int
	openedAt time.Time
	now      func() time.Time
	onChange func(from, to BreakerState)
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	def := DefaultBreakerConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.Probes <= 0 {
		cfg.Probes = def.Probes
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to be called after every transition.
func (b *Breaker) OnStateChange(fn func(from, to BreakerState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

func (b *Breaker) Execute(ctx context.Context, deliver func(context.Context) error) error {
	if !b.acquire() {
		return ErrRelayUnavailable
	}

	err := deliver(ctx)
	switch {
	case err == nil:
		b.succeeded()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	default:
		b.failed()
	}
	return err
}

func (b *Breaker) acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return true
	}
	if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
		return false
	}
	b.probes = 0
	b.transition(StateHalfOpen)
	return true
}

func (b *Breaker) failed() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.cfg.Threshold {
		b.openedAt = b.now()
		b.transition(StateOpen)
	}
}

func (b *Breaker) succeeded() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.probes++
		if b.probes < b.cfg.Probes {
			return
		}
		b.transition(StateClosed)
	}
	b.failures = 0
}

// transition must be called with mu held.
func (b *Breaker) transition(to BreakerState) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onChange != nil {
		b.onChange(from, to)
	}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Stats() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := map[string]any{
		"state":            b.state.String(),
		"failures":         b.failures,
		"threshold":        b.cfg.Threshold,
		"cooldown_seconds": b.cfg.Cooldown.Seconds(),
	}
	if !b.openedAt.IsZero() {
		stats["opened_at"] = b.openedAt.Unix()
	}
	return stats
}
