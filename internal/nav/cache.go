// Package nav holds the day-scoped table of mutual fund reference prices.
package nav

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/clock"
	"github.com/aristath/fintrack/internal/domain"
)

// Fetcher downloads the complete scheme-code to NAV table.
type Fetcher interface {
	FetchAll(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Cache is valid only on the day it was fetched. A read on any other day
// refreshes the whole table first.
//
// The mutex is held across the fetch, so concurrent readers that find the
// table stale trigger a single download.
type Cache struct {
	source Fetcher
	clock  clock.Clock
	log    zerolog.Logger

	mu    sync.Mutex
	table map[string]decimal.Decimal
	stamp domain.Date
}

// NewCache creates an empty cache backed by source.
func NewCache(source Fetcher, clk clock.Clock, log zerolog.Logger) *Cache {
	return &Cache{
		source: source,
		clock:  clk,
		log:    log.With().Str("component", "nav_cache").Logger(),
		table:  map[string]decimal.Decimal{},
	}
}

// Lookup returns the NAV for scheme, refreshing a stale table first.
// A failed refresh yields absent and keeps the previous table.
func (c *Cache) Lookup(ctx context.Context, scheme string) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.freshLocked() {
		if err := c.refreshLocked(ctx); err != nil {
			return decimal.Zero, false
		}
	}

	v, ok := c.table[scheme]
	return v, ok
}

// Fresh makes sure the table is current, returning the refresh error otherwise.
func (c *Cache) Fresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.freshLocked() {
		return nil
	}
	return c.refreshLocked(ctx)
}

// Refresh downloads the table unconditionally.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

// Stamp returns the date of the current table, zero when never fetched.
func (c *Cache) Stamp() domain.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stamp
}

// Size returns the number of schemes in the current table.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.table)
}

func (c *Cache) freshLocked() bool {
	return !c.stamp.IsZero() && c.stamp.Equal(domain.DateOf(c.clock.Now()))
}

func (c *Cache) refreshLocked(ctx context.Context) error {
	table, err := c.source.FetchAll(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to refresh NAV table")
		return fmt.Errorf("failed to refresh NAV table: %w", err)
	}
	if len(table) == 0 {
		c.log.Error().Msg("NAV table is empty, keeping previous table")
		return fmt.Errorf("failed to refresh NAV table: %w", domain.ErrDataUnavailable)
	}

	c.table = table
	c.stamp = domain.DateOf(c.clock.Now())

	c.log.Info().
		Int("schemes", len(table)).
		Str("date", c.stamp.String()).
		Msg("NAV table refreshed")
	return nil
}
