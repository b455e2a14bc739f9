package registry

import (
	"fmt"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/plexusrt/plexus/ecode"
	"github.com/plexusrt/plexus/internal/lockmap"
	"github.com/plexusrt/plexus/metadata"
	"github.com/plexusrt/plexus/metrics"
)

// Revision is one immutable registration record. Once created it is never
// edited or removed; the full history per instance type is retained for
// compatibility checks.
type Revision struct {
	InstanceType string        `json:"instance_type"`
	Revision     uint64        `json:"revision"`
	Key          KeyDefinition `json:"key_definition"`
	Contract     Contract      `json:"contract"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ConflictReason names which registration clause failed.
type ConflictReason string

const (
	ReasonKeyMismatch          ConflictReason = "key-definition-mismatch"
	ReasonContractIncompatible ConflictReason = "contract-incompatible"
)

// ConflictError rejects a registration. It always surfaces to the caller
// verbatim under the stable code META0006 and is never auto-resolved.
type ConflictError struct {
	InstanceType string
	Reason       ConflictReason
	Detail       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("[%s] revision conflict for %q (%s): %s",
		ecode.CodeRevisionConflict, e.InstanceType, e.Reason, e.Detail)
}

// Unwrap attaches the stable code so ecode.CodeOf resolves it.
func (e *ConflictError) Unwrap() error {
	return ecode.New(ecode.CodeRevisionConflict, e.Detail)
}

// Registry holds the append-only revision history keyed by instance type.
// Concurrent registrations of different instance types proceed
// independently; registrations of the same type are mutually exclusive.
type Registry struct {
	mut       sync.RWMutex
	revisions map[string][]Revision
	locks     *lockmap.Map[string]
	meta      *metadata.Store
	logger    kitlog.Logger
}

// New creates a registry. The metadata store's schema counter is advanced
// on every accepted registration; the registry is the schema counter's
// writer authority.
func New(meta *metadata.Store, logger kitlog.Logger) *Registry {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}

	return &Registry{
		revisions: make(map[string][]Revision),
		locks:     lockmap.New[string](),
		meta:      meta,
		logger:    logger,
	}
}

// Register validates and appends a new revision of the instance type.
//
// The first registration of a type is always accepted with revision 1.
// A subsequent registration is accepted iff its key definition is
// structurally identical to the latest revision's and its contract is
// backward compatible with it; the new record gets the next revision
// number. Anything else is rejected with a ConflictError and no record
// is created.
func (r *Registry) Register(instanceType string, key KeyDefinition, contract Contract) (Revision, error) {
	if instanceType == "" {
		return Revision{}, ecode.New(ecode.CodeInvalidConfig, "instance type must not be empty")
	}

	if len(key.Fields) == 0 {
		return Revision{}, ecode.New(ecode.CodeInvalidConfig, "key definition must have at least one field")
	}

	r.locks.Lock(instanceType)
	defer r.locks.Unlock(instanceType)

	prev, exists := r.Latest(instanceType)

	next := Revision{
		InstanceType: instanceType,
		Revision:     1,
		Key:          KeyDefinition{Fields: cloneFields(key.Fields)},
		Contract:     Contract{Fields: cloneFields(contract.Fields)},
		CreatedAt:    time.Now().UTC(),
	}

	if exists {
		if key.Fingerprint() != prev.Key.Fingerprint() || !key.Equal(prev.Key) {
			metrics.RevisionConflicts.Inc()

			return Revision{}, &ConflictError{
				InstanceType: instanceType,
				Reason:       ReasonKeyMismatch,
				Detail: fmt.Sprintf("key definition differs from revision %d, keys are immutable",
					prev.Revision),
			}
		}

		if err := checkBackwardCompatible(prev.Contract, contract); err != nil {
			metrics.RevisionConflicts.Inc()

			return Revision{}, &ConflictError{
				InstanceType: instanceType,
				Reason:       ReasonContractIncompatible,
				Detail:       err.Error(),
			}
		}

		next.Revision = prev.Revision + 1
	}

	r.mut.Lock()
	r.revisions[instanceType] = append(r.revisions[instanceType], next)
	r.mut.Unlock()

	schemaVersion := r.meta.Bump(metadata.Schema)

	level.Info(r.logger).Log(
		"msg", "registered service revision",
		"instance_type", instanceType,
		"revision", next.Revision,
		"schema_version", schemaVersion,
	)

	return next, nil
}

// Latest returns the newest revision of the instance type, if any.
func (r *Registry) Latest(instanceType string) (Revision, bool) {
	r.mut.RLock()
	defer r.mut.RUnlock()

	revs := r.revisions[instanceType]
	if len(revs) == 0 {
		return Revision{}, false
	}

	return copyRevision(revs[len(revs)-1]), true
}

// Revisions returns the full history of the instance type, oldest first.
func (r *Registry) Revisions(instanceType string) ([]Revision, error) {
	r.mut.RLock()
	defer r.mut.RUnlock()

	revs := r.revisions[instanceType]
	if len(revs) == 0 {
		return nil, ecode.Newf(ecode.CodeUnknownServiceType, "no revisions for %q", instanceType)
	}

	out := make([]Revision, len(revs))
	for i, rev := range revs {
		out[i] = copyRevision(rev)
	}

	return out, nil
}

// InstanceTypes returns the registered instance types in sorted order.
func (r *Registry) InstanceTypes() []string {
	r.mut.RLock()
	defer r.mut.RUnlock()

	types := maps.Keys(r.revisions)
	slices.Sort(types)

	return types
}

// copyRevision detaches the record from the registry's own storage so no
// caller ever holds a handle that could edit a past revision.
func copyRevision(rev Revision) Revision {
	rev.Key.Fields = cloneFields(rev.Key.Fields)
	rev.Contract.Fields = cloneFields(rev.Contract.Fields)

	return rev
}
