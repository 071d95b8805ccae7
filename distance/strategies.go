/*
strategies.go - The three fallback tiers

TIER CONTRACTS:
  cachedStrategy    exact lookup, symmetric keys, never blocks
  externalStrategy  injected provider, hard timeout, degrades on any error
  haversineStrategy great-circle backstop, fails only on geocode miss
*/
package distance

import (
	"context"
	"math"
	"strings"
	"time"
)

// =============================================================================
// CACHED TIER - Precomputed base-to-base distances
// =============================================================================

// CacheTable maps a normalized origin|destination pair to road miles.
// Use NewCacheTable to build one with symmetric keys.
type CacheTable map[string]float64

func pairKey(a, b string) string {
	a, b = normalizeLocation(a), normalizeLocation(b)
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func normalizeLocation(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewCacheTable builds a symmetric lookup table from directed entries.
func NewCacheTable(entries map[[2]string]float64) CacheTable {
	t := make(CacheTable, len(entries))
	for pair, miles := range entries {
		t[pairKey(pair[0], pair[1])] = miles
	}
	return t
}

type cachedStrategy struct {
	table CacheTable
}

func (s *cachedStrategy) Name() Method { return MethodCached }

func (s *cachedStrategy) Try(_ context.Context, origin, dest string) (Result, bool) {
	miles, ok := s.table[pairKey(origin, dest)]
	if !ok || miles <= 0 {
		return Result{}, false
	}
	return Result{Miles: miles, Method: MethodCached}, true
}

// =============================================================================
// EXTERNAL TIER - Injected mapping provider, time-bounded
// =============================================================================

// Provider is the mapping/distance collaborator. Implementations perform
// the actual network call; the core never does.
type Provider interface {
	DrivingMiles(ctx context.Context, origin, dest string) (float64, error)
}

type externalStrategy struct {
	provider Provider
	timeout  time.Duration
}

func (s *externalStrategy) Name() Method { return MethodExternal }

// Try bounds the provider call with a hard timeout. Timeout, error, or a
// nonsensical mileage all fall through; a slow provider must degrade to
// the haversine tier, never stall claim processing.
func (s *externalStrategy) Try(ctx context.Context, origin, dest string) (Result, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type answer struct {
		miles float64
		err   error
	}
	ch := make(chan answer, 1)
	go func() {
		miles, err := s.provider.DrivingMiles(ctx, origin, dest)
		ch <- answer{miles, err}
	}()

	select {
	case <-ctx.Done():
		return Result{}, false
	case a := <-ch:
		if a.err != nil || a.miles <= 0 || math.IsNaN(a.miles) || math.IsInf(a.miles, 0) {
			return Result{}, false
		}
		return Result{Miles: a.miles, Method: MethodExternal}, true
	}
}

// =============================================================================
// HAVERSINE TIER - Great-circle backstop
// =============================================================================

type haversineStrategy struct {
	geocoder Geocoder
}

func (s *haversineStrategy) Name() Method { return MethodHaversine }

func (s *haversineStrategy) Try(_ context.Context, origin, dest string) (Result, bool) {
	from, ok := s.geocoder.Geocode(origin)
	if !ok {
		return Result{}, false
	}
	to, ok := s.geocoder.Geocode(dest)
	if !ok {
		return Result{}, false
	}
	miles := Haversine(from, to)
	if miles <= 0 {
		// Same coordinates: a degenerate but resolvable move.
		miles = 1
	}
	return Result{Miles: miles, Method: MethodHaversine}, true
}

const earthRadiusMiles = 3958.8

// Haversine returns the great-circle distance between two coordinates.
func Haversine(a, b Coordinates) float64 {
	lat1, lon1 := radians(a.Lat), radians(a.Lon)
	lat2, lon2 := radians(b.Lat), radians(b.Lon)

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
