// Package metadata tracks the cluster-wide metadata version counters and
// the health of the node's components. It is a pure state holder: how the
// versions are agreed on is up to the external authorities that own them,
// the store only guarantees that each counter never decreases.
package metadata

import (
	"sync/atomic"

	"github.com/plexusrt/plexus/ecode"
	"github.com/plexusrt/plexus/metrics"
)

// Kind identifies one of the four metadata version counters. Each kind
// has exactly one logical writer authority at a time.
type Kind int

const (
	NodesConfig Kind = iota
	Logs
	Schema
	PartitionTable

	numKinds
)

func (k Kind) String() string {
	switch k {
	case NodesConfig:
		return "nodes_config"
	case Logs:
		return "logs"
	case Schema:
		return "schema"
	case PartitionTable:
		return "partition_table"
	default:
		return "unknown"
	}
}

// Version is the value of a metadata version counter. Strictly
// non-decreasing, incremented exactly once per accepted change.
type Version uint64

// Versions is a snapshot of the four counters. The counters are updated
// by independent authorities, so a snapshot may observe skew between
// them; consumers must tolerate it.
type Versions struct {
	NodesConfig    Version `json:"nodes_config"`
	Logs           Version `json:"logs"`
	Schema         Version `json:"schema"`
	PartitionTable Version `json:"partition_table"`
}

// ErrStaleUpdate is returned by Advance when a concurrent advance already
// moved the counter past the caller's expected base. The caller must
// re-read the counter and retry; the error never surfaces past the
// writer authority.
var ErrStaleUpdate = ecode.New(ecode.CodeStaleVersion, "metadata version advance lost the race")

// Store holds the version counters and the component health states. Both
// are independently atomic: readers are never blocked by writers.
type Store struct {
	versions [numKinds]atomic.Uint64
	statuses [numComponents]atomic.Int32
}

func NewStore() *Store {
	return &Store{}
}

// Version returns the current value of one counter.
func (s *Store) Version(kind Kind) Version {
	return Version(s.versions[kind].Load())
}

// CurrentVersions returns a snapshot of the four counters. Each counter
// is read atomically on its own; no cross-counter transaction is implied.
func (s *Store) CurrentVersions() Versions {
	return Versions{
		NodesConfig:    s.Version(NodesConfig),
		Logs:           s.Version(Logs),
		Schema:         s.Version(Schema),
		PartitionTable: s.Version(PartitionTable),
	}
}

// Advance moves the counter from base to base+1. It fails with
// ErrStaleUpdate when the counter no longer equals base, forcing the
// caller to retry from the freshest value.
func (s *Store) Advance(kind Kind, base Version) (Version, error) {
	if !s.versions[kind].CompareAndSwap(uint64(base), uint64(base)+1) {
		return s.Version(kind), ErrStaleUpdate
	}

	metrics.VersionAdvances.WithLabelValues(kind.String()).Inc()

	return base + 1, nil
}

// Bump advances the counter by exactly one, retrying the optimistic check
// until it wins. This is the recovery loop the single-writer authority of
// a counter kind runs locally.
func (s *Store) Bump(kind Kind) Version {
	for {
		next, err := s.Advance(kind, s.Version(kind))
		if err == nil {
			return next
		}
	}
}

// Witness merges a version observed elsewhere into the counter, keeping
// it monotonic: the counter only moves forward, never back.
func (s *Store) Witness(kind Kind, v Version) {
	for {
		curr := s.versions[kind].Load()
		if uint64(v) <= curr {
			return
		}

		if s.versions[kind].CompareAndSwap(curr, uint64(v)) {
			return
		}
	}
}
