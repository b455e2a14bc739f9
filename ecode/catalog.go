package ecode

import (
	"golang.org/x/exp/slices"
)

// Descriptor is one published catalog entry. The catalog is a versioned
// external reference consumed by operators and SDKs.
type Descriptor struct {
	Code        Code     `json:"code"`
	Title       string   `json:"title"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Remediation string   `json:"remediation"`
}

var catalog = map[Code]Descriptor{
	CodeTransportFailure: {
		Code:     CodeTransportFailure,
		Title:    "Node transport failure",
		Category: TransientInfra,
		Description: "A network operation between two nodes failed. The affected " +
			"channel is closed and undelivered messages are discarded.",
		Remediation: "Re-establish the connection. Check network connectivity " +
			"between the nodes if the failure persists.",
	},
	CodeStorageQuery: {
		Code:     CodeStorageQuery,
		Title:    "Storage query failed",
		Category: TransientInfra,
		Description: "The storage engine failed while executing a query. Frames " +
			"delivered before the failure remain valid.",
		Remediation: "Retry the query. Inspect the storage engine logs if the " +
			"failure persists.",
	},
	CodeChannelClosed: {
		Code:     CodeChannelClosed,
		Title:    "Node channel closed",
		Category: TransientInfra,
		Description: "The operation was issued on a node channel that has already " +
			"reached its terminal state.",
		Remediation: "Open a new channel instance and reconcile higher-level " +
			"state. Messages queued on the closed instance were not delivered.",
	},
	CodeNonDeterminism: {
		Code:     CodeNonDeterminism,
		Title:    "Non-deterministic execution",
		Category: NonDeterminism,
		Description: "Replaying an execution produced a different result than the " +
			"recorded one. The execution is suspended to protect durable state.",
		Remediation: "Fix the non-deterministic code path. Do not retry: retrying " +
			"can corrupt durable execution state.",
	},
	CodeInternal: {
		Code:        CodeInternal,
		Title:       "Internal runtime defect",
		Category:    InternalDefect,
		Description: "The runtime hit an unexpected internal state.",
		Remediation: "Report the issue with the surrounding log context. Do not " +
			"retry automatically.",
	},
	CodeStaleVersion: {
		Code:     CodeStaleVersion,
		Title:    "Stale metadata version",
		Category: TransientInfra,
		Description: "A metadata version advance lost an optimistic-concurrency " +
			"race: another advance already moved the counter past the expected base.",
		Remediation: "Re-read the current version and retry the advance. This is " +
			"handled internally by the writer authority and should not normally " +
			"surface to operators.",
	},
	CodeInvalidConfig: {
		Code:        CodeInvalidConfig,
		Title:       "Invalid node configuration",
		Category:    Misconfiguration,
		Description: "The node configuration is missing or inconsistent.",
		Remediation: "Fix the configuration file or flags and restart the node.",
	},
	CodeClusterMismatch: {
		Code:     CodeClusterMismatch,
		Title:    "Cluster name mismatch",
		Category: Misconfiguration,
		Description: "A peer attempted to open a channel while belonging to a " +
			"different cluster.",
		Remediation: "Verify the cluster name configured on both nodes. Nodes of " +
			"different clusters must not be pointed at each other.",
	},
	CodeRevisionConflict: {
		Code:     CodeRevisionConflict,
		Title:    "Service revision conflict",
		Category: RevisionConflict,
		Description: "Registering the service revision was rejected: either the key " +
			"definition differs from the previous revision, or the contract is not " +
			"backward compatible with it. Running two incompatible revisions of the " +
			"same logical service side-by-side would corrupt durable state.",
		Remediation: "Deploy a revision with the original key definition and a " +
			"backward-compatible contract: keep required fields, widen types only " +
			"along supported conversions, give new fields defaults.",
	},
	CodeUnknownServiceType: {
		Code:        CodeUnknownServiceType,
		Title:       "Unknown service instance type",
		Category:    Misconfiguration,
		Description: "The requested service instance type has no registered revisions.",
		Remediation: "Register the service before querying its revisions.",
	},
}

// Lookup resolves a published code to its catalog entry.
func Lookup(code Code) (Descriptor, bool) {
	desc, ok := catalog[code]
	return desc, ok
}

// Catalog returns all published entries ordered by code.
func Catalog() []Descriptor {
	out := make([]Descriptor, 0, len(catalog))
	for _, desc := range catalog {
		out = append(out, desc)
	}

	slices.SortFunc(out, func(a, b Descriptor) bool {
		return a.Code < b.Code
	})

	return out
}
