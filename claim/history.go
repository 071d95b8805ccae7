/*
history.go - Append-only version history

PURPOSE:
  Claim history is an arena of immutable versions indexed by
  (claim ID, version number), never a mutated row. Pre-submission a
  version may be rewritten in place (it is still the same draft); once a
  stored version has crossed the submission line its claim data is frozen
  and only the decision path may advance on it.

IMPLEMENTATIONS:
  - Memory (this file): tests and dev
  - store/sqlite: production

SEE ALSO:
  - lifecycle.go: Decides WHEN a new version is created
*/
package claim

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// =============================================================================
// VERSION STORE - Interface
// =============================================================================

var (
	ErrClaimNotFound    = errors.New("claim not found")
	ErrVersionImmutable = errors.New("stored version is immutable")
)

// CanReplace reports whether a stored version in status stored may be
// overwritten by the same version in status next. Pre-submission versions
// are freely rewritten (the same draft being edited); past the submission
// line only the decision path may advance - claim data changes arrive as
// new versions, never as rewrites.
func CanReplace(stored, next Status) bool {
	if !stored.Submitted() {
		return true
	}
	switch stored {
	case StatusSubmitted:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusPaid
	default: // rejected, paid
		return false
	}
}

// VersionStore persists claim versions. Put must be atomic per version:
// either the full version is written or none of it.
type VersionStore interface {
	// Put writes one version. Overwriting a stored version is governed by
	// CanReplace; a refused rewrite is ErrVersionImmutable.
	Put(ctx context.Context, rec *Record) error

	// Get returns one specific version.
	Get(ctx context.Context, id string, version int) (*Record, error)

	// Latest returns the highest version of a claim.
	Latest(ctx context.Context, id string) (*Record, error)

	// Versions returns all versions of a claim in ascending order.
	Versions(ctx context.Context, id string) ([]*Record, error)
}

// =============================================================================
// MEMORY STORE - For testing and dev
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	versions map[string][]*Record // claim ID -> versions, index = version-1
}

var _ VersionStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{versions: make(map[string][]*Record)}
}

func (m *Memory) Put(_ context.Context, rec *Record) error {
	if rec.ID == "" || rec.Version < 1 {
		return fmt.Errorf("invalid record identity: id=%q version=%d", rec.ID, rec.Version)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	versions := m.versions[rec.ID]
	switch {
	case rec.Version == len(versions)+1:
		m.versions[rec.ID] = append(versions, rec.Clone())
	case rec.Version <= len(versions):
		if !CanReplace(versions[rec.Version-1].Status, rec.Status) {
			return fmt.Errorf("claim %s v%d: %w", rec.ID, rec.Version, ErrVersionImmutable)
		}
		versions[rec.Version-1] = rec.Clone()
	default:
		return fmt.Errorf("claim %s: version %d skips %d", rec.ID, rec.Version, len(versions)+1)
	}
	return nil
}

func (m *Memory) Get(_ context.Context, id string, version int) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.versions[id]
	if version < 1 || version > len(versions) {
		return nil, fmt.Errorf("claim %s v%d: %w", id, version, ErrClaimNotFound)
	}
	return versions[version-1].Clone(), nil
}

func (m *Memory) Latest(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.versions[id]
	if len(versions) == 0 {
		return nil, fmt.Errorf("claim %s: %w", id, ErrClaimNotFound)
	}
	return versions[len(versions)-1].Clone(), nil
}

func (m *Memory) Versions(_ context.Context, id string) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.versions[id]
	if len(versions) == 0 {
		return nil, fmt.Errorf("claim %s: %w", id, ErrClaimNotFound)
	}
	out := make([]*Record, len(versions))
	for i, v := range versions {
		out[i] = v.Clone()
	}
	return out, nil
}
