/*
Package distance resolves an origin/destination pair to a mileage figure.

PURPOSE:
  Entitlement math needs a distance for every claim, and a claim must never
  stall because a mapping provider is down. The resolver runs an ordered
  chain of strategies, first success wins:

    1. Cached tier    - exact match in a precomputed base-to-base table.
                        Highest confidence (curated road distances).
    2. External tier  - injected mapping provider, bounded by a hard
                        timeout. Only attempted when the caller allows it
                        and a provider is configured. Timeout or error
                        falls through, never surfaces.
    3. Haversine tier - great-circle distance from geocoded coordinates.
                        The unconditional backstop, explicitly tagged as
                        an approximation (straight-line, not road).

FAILURE SEMANTICS:
  The only hard failure is when neither location can be geocoded at all.
  That surfaces as ErrUnresolvableLocation; everything else degrades.

DESIGN:
  Each tier is a Strategy value with a Try contract, so the chain is
  testable per tier and new tiers slot in without touching control flow.

USAGE:
  r := distance.NewResolver(
      distance.WithCache(distance.ConusBaseTable()),
      distance.WithGeocoder(distance.ConusBaseGeocoder()),
      distance.WithProvider(provider, 2*time.Second),
  )
  res, err := r.Resolve(ctx, "Fort Bragg", "Fort Carson", true)

SEE ALSO:
  - strategies.go: The three tier implementations
  - geocode.go: Geocoder interface and built-in base coordinates
*/
package distance

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// RESULT - Mileage plus how it was obtained
// =============================================================================

type Method string

const (
	MethodCached    Method = "cached"
	MethodExternal  Method = "external"
	MethodHaversine Method = "haversine"
)

// Result is always a positive, finite mileage with a method tag.
type Result struct {
	Miles  float64 `json:"miles"`
	Method Method  `json:"method"`
}

// Approximate reports whether the figure is straight-line rather than road
// distance. Entitlement confidence tags key off this.
func (r Result) Approximate() bool { return r.Method == MethodHaversine }

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnresolvableLocation is the resolver's only hard failure: neither
	// tier could place one of the locations.
	ErrUnresolvableLocation = errors.New("unresolvable location")
)

// UnresolvableLocationError names the location that could not be placed.
type UnresolvableLocationError struct {
	Location string
}

func (e *UnresolvableLocationError) Error() string {
	return fmt.Sprintf("unresolvable location: %q is not in the cached table and cannot be geocoded", e.Location)
}

func (e *UnresolvableLocationError) Unwrap() error { return ErrUnresolvableLocation }

// =============================================================================
// STRATEGY - One fallback tier
// =============================================================================

// Strategy is one tier of the fallback chain. Try returns (result, true) on
// success; (_, false) means fall through to the next tier. A tier never
// returns an error: the chain's terminal failure is decided by the resolver.
type Strategy interface {
	Name() Method
	Try(ctx context.Context, origin, dest string) (Result, bool)
}

// =============================================================================
// RESOLVER - Ordered strategy chain
// =============================================================================

type Resolver struct {
	cached    *cachedStrategy
	external  *externalStrategy
	haversine *haversineStrategy
	geocoder  Geocoder
}

type Option func(*Resolver)

// WithCache installs the precomputed base-to-base table.
func WithCache(table CacheTable) Option {
	return func(r *Resolver) { r.cached = &cachedStrategy{table: table} }
}

// WithProvider installs the external mapping provider with a hard timeout.
// A zero timeout gets the default of two seconds.
func WithProvider(p Provider, timeout time.Duration) Option {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return func(r *Resolver) { r.external = &externalStrategy{provider: p, timeout: timeout} }
}

// WithGeocoder installs the geocoder backing the haversine tier.
func WithGeocoder(g Geocoder) Option {
	return func(r *Resolver) { r.geocoder = g }
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.geocoder == nil {
		r.geocoder = ConusBaseGeocoder()
	}
	r.haversine = &haversineStrategy{geocoder: r.geocoder}
	return r
}

// Resolve walks the tiers in order and returns the first success.
// It never returns a zero or negative mileage; the only error is
// ErrUnresolvableLocation when the backstop cannot geocode an endpoint.
func (r *Resolver) Resolve(ctx context.Context, origin, dest string, allowExternal bool) (Result, error) {
	if origin == "" || dest == "" {
		return Result{}, &UnresolvableLocationError{Location: "(empty)"}
	}

	if r.cached != nil {
		if res, ok := r.cached.Try(ctx, origin, dest); ok {
			return res, nil
		}
	}

	if allowExternal && r.external != nil {
		if res, ok := r.external.Try(ctx, origin, dest); ok {
			return res, nil
		}
	}

	if res, ok := r.haversine.Try(ctx, origin, dest); ok {
		return res, nil
	}

	// Name the endpoint that failed to geocode.
	if _, ok := r.geocoder.Geocode(origin); !ok {
		return Result{}, &UnresolvableLocationError{Location: origin}
	}
	return Result{}, &UnresolvableLocationError{Location: dest}
}
