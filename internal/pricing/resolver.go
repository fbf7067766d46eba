package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

// CallObserver is notified of every provider invocation outcome.
type CallObserver interface {
	ObserveProviderCall(provider, outcome string)
}

// Result is the outcome of one resolution. Err is nil exactly when a positive
// price was obtained.
type Result struct {
	Symbol   string
	Price    decimal.Decimal
	Provider string
	Err      error
}

// OK reports whether a usable price was resolved.
func (r Result) OK() bool {
	return r.Err == nil && r.Price.IsPositive()
}

// ConfigError reports whether any provider failed for lack of configuration.
func (r Result) ConfigError() bool {
	return errors.Is(r.Err, domain.ErrConfiguration)
}

// configurable is implemented by sources that can tell up front whether a call is possible.
type configurable interface {
	Configured() bool
}

type link struct {
	source   PriceSource
	throttle *Throttle
}

// Resolver walks providers in priority order until one yields a positive price.
type Resolver struct {
	chain    []link
	observer CallObserver
	log      zerolog.Logger
}

// NewResolver creates an empty resolver. Providers are added with Add in priority order.
func NewResolver(observer CallObserver, log zerolog.Logger) *Resolver {
	return &Resolver{
		observer: observer,
		log:      log.With().Str("component", "price_resolver").Logger(),
	}
}

// Add appends a provider to the chain, paced by throttle.
func (r *Resolver) Add(source PriceSource, throttle *Throttle) *Resolver {
	r.chain = append(r.chain, link{source: source, throttle: throttle})
	return r
}

// ProviderStatus describes one link of the chain.
type ProviderStatus struct {
	Name        string        `json:"name"`
	Priority    int           `json:"priority"`
	MinInterval time.Duration `json:"min_interval"`
	LastCall    time.Time     `json:"last_call,omitempty"`
	Configured  bool          `json:"configured"`
}

// Providers lists the chain in priority order.
func (r *Resolver) Providers() []ProviderStatus {
	out := make([]ProviderStatus, 0, len(r.chain))
	for i, l := range r.chain {
		configured := true
		if c, ok := l.source.(configurable); ok {
			configured = c.Configured()
		}
		out = append(out, ProviderStatus{
			Name:        l.source.Name(),
			Priority:    i + 1,
			MinInterval: l.throttle.Interval(),
			LastCall:    l.throttle.LastCall(),
			Configured:  configured,
		})
	}
	return out
}

// Resolve returns the first positive price from the chain. It never panics
// and never surfaces a provider error directly: on total failure Result.Err
// wraps domain.ErrDataUnavailable together with every provider's error.
func (r *Resolver) Resolve(ctx context.Context, symbol string, kind domain.InstrumentKind) Result {
	var errs []error

	for _, l := range r.chain {
		name := l.source.Name()

		if c, ok := l.source.(configurable); ok && !c.Configured() {
			err := domain.NewProviderError(name, 0, fmt.Errorf("%w: no credential", domain.ErrConfiguration))
			r.observe(name, err)
			r.log.Error().
				Str("symbol", symbol).
				Str("provider", name).
				Bool("actionable", true).
				Msg("Provider is not configured, skipping")
			errs = append(errs, err)
			continue
		}

		var price decimal.Decimal
		err := l.throttle.Do(ctx, func(ctx context.Context) error {
			p, err := l.source.Price(ctx, symbol, kind)
			price = p
			return err
		})
		if err == nil && !price.IsPositive() {
			err = fmt.Errorf("%w: %s returned non-positive price %s", domain.ErrMalformedData, name, price)
		}
		r.observe(name, err)

		if err == nil {
			r.log.Info().
				Str("symbol", symbol).
				Str("provider", name).
				Str("price", price.String()).
				Msg("Resolved price")
			return Result{Symbol: symbol, Price: price, Provider: name}
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Symbol: symbol, Err: ctxErr}
		}

		r.log.Warn().
			Err(err).
			Str("symbol", symbol).
			Str("provider", name).
			Msg("Provider failed, trying next")
		errs = append(errs, err)
	}

	err := fmt.Errorf("%w: no provider returned a price for %s", domain.ErrDataUnavailable, symbol)
	if len(errs) > 0 {
		err = fmt.Errorf("%w: %w", err, errors.Join(errs...))
	}
	r.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to resolve price from all providers")
	return Result{Symbol: symbol, Err: err}
}

func (r *Resolver) observe(provider string, err error) {
	if r.observer != nil {
		r.observer.ObserveProviderCall(provider, domain.Classify(err))
	}
}
