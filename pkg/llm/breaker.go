package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerClient wraps a Client in a circuit breaker. After enough
// consecutive transport failures the breaker opens and calls fail fast as
// LLM_TRANSPORT without reaching the provider. Parse errors and refusals
// are model behavior, not provider health, so they never trip it.
type BreakerClient struct {
	inner Client
	name  string
	cb    *gobreaker.CircuitBreaker
}

// WithBreaker wraps inner in a breaker that opens after maxFailures
// consecutive transport failures and stays open for openTimeout before a
// half-open probe.
func WithBreaker(inner Client, name string, maxFailures int, openTimeout time.Duration, logger *slog.Logger) *BreakerClient {
	if maxFailures < 1 {
		maxFailures = 1
	}

	settings := gobreaker.Settings{
		Name:    name,
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || KindOf(err) != KindTransport
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("LLM circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerClient{
		inner: inner,
		name:  name,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

// GenerateJSON implements Client.
func (b *BreakerClient) GenerateJSON(ctx context.Context, in *GenerateInput) (json.RawMessage, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.GenerateJSON(ctx, in)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, transportErr(b.name, "circuit breaker open", err)
		}
		return nil, err
	}

	raw, _ := out.(json.RawMessage)
	return raw, nil
}

// ModelTag implements Client.
func (b *BreakerClient) ModelTag() string {
	return b.inner.ModelTag()
}

// State reports the breaker state for health checks.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}
