// Package nodectl exposes the node control surface: the identity
// snapshot, the storage query stream and the duplex node channel, served
// over a single gRPC endpoint.
package nodectl

import (
	"time"

	"github.com/plexusrt/plexus/cluster"
	"github.com/plexusrt/plexus/metadata"
	"github.com/plexusrt/plexus/nodectl/proto"
)

// Ident is a point-in-time description of the local node. It is composed
// from independently updated sources, so the fields may observe skew
// relative to each other; none of them blocks the snapshot.
type Ident struct {
	NodeID      cluster.NodeID `json:"node_id"`
	ClusterName string         `json:"cluster_name"`
	Roles       []cluster.Role `json:"roles"`
	Age         time.Duration  `json:"-"`
	AgeSeconds  uint64         `json:"age_s"`

	AdminStatus          metadata.ComponentStatus `json:"admin_status"`
	WorkerStatus         metadata.ComponentStatus `json:"worker_status"`
	LogServerStatus      metadata.ComponentStatus `json:"log_server_status"`
	MetadataServerStatus metadata.ComponentStatus `json:"metadata_server_status"`

	Versions metadata.Versions `json:"versions"`
}

// Membership is the cluster view the identity snapshot is built from.
// The methods must not block on gossip activity.
type Membership interface {
	Self() cluster.Node
	Name() string
}

// IdentReader assembles identity snapshots. It never blocks: every
// source it reads from is a lock-free or read-locked view.
type IdentReader struct {
	cluster   Membership
	meta      *metadata.Store
	startedAt time.Time

	// clock is replaceable in tests.
	clock func() time.Time
}

func NewIdentReader(cl Membership, meta *metadata.Store, startedAt time.Time) *IdentReader {
	return &IdentReader{
		cluster:   cl,
		meta:      meta,
		startedAt: startedAt,
		clock:     time.Now,
	}
}

// Read returns the current identity snapshot.
func (r *IdentReader) Read() Ident {
	age := r.clock().Sub(r.startedAt)
	if age < 0 {
		age = 0
	}

	self := r.cluster.Self()

	return Ident{
		NodeID:      self.ID,
		ClusterName: r.cluster.Name(),
		Roles:       self.Roles,
		Age:         age,
		AgeSeconds:  uint64(age / time.Second),

		AdminStatus:          r.meta.Status(metadata.Admin),
		WorkerStatus:         r.meta.Status(metadata.Worker),
		LogServerStatus:      r.meta.Status(metadata.LogServer),
		MetadataServerStatus: r.meta.Status(metadata.MetadataServer),

		Versions: r.meta.CurrentVersions(),
	}
}

// ToProto converts a snapshot into the wire representation.
func ToProto(id Ident) *proto.IdentResponse {
	roles := make([]string, len(id.Roles))
	for i, role := range id.Roles {
		roles[i] = string(role)
	}

	return &proto.IdentResponse{
		NodeId:      string(id.NodeID),
		ClusterName: id.ClusterName,
		Roles:       roles,
		AgeS:        id.AgeSeconds,

		AdminStatus:          proto.ComponentStatus(id.AdminStatus),
		WorkerStatus:         proto.ComponentStatus(id.WorkerStatus),
		LogServerStatus:      proto.ComponentStatus(id.LogServerStatus),
		MetadataServerStatus: proto.ComponentStatus(id.MetadataServerStatus),

		NodesConfigVersion:    uint64(id.Versions.NodesConfig),
		LogsVersion:           uint64(id.Versions.Logs),
		SchemaVersion:         uint64(id.Versions.Schema),
		PartitionTableVersion: uint64(id.Versions.PartitionTable),
	}
}

// FromProto converts a wire identity back into a snapshot, as seen by
// clients reading a remote node.
func FromProto(resp *proto.IdentResponse) Ident {
	roles := make([]cluster.Role, len(resp.Roles))
	for i, role := range resp.Roles {
		roles[i] = cluster.Role(role)
	}

	return Ident{
		NodeID:      cluster.NodeID(resp.NodeId),
		ClusterName: resp.ClusterName,
		Roles:       roles,
		Age:         time.Duration(resp.AgeS) * time.Second,
		AgeSeconds:  resp.AgeS,

		AdminStatus:          metadata.ComponentStatus(resp.AdminStatus),
		WorkerStatus:         metadata.ComponentStatus(resp.WorkerStatus),
		LogServerStatus:      metadata.ComponentStatus(resp.LogServerStatus),
		MetadataServerStatus: metadata.ComponentStatus(resp.MetadataServerStatus),

		Versions: metadata.Versions{
			NodesConfig:    metadata.Version(resp.NodesConfigVersion),
			Logs:           metadata.Version(resp.LogsVersion),
			Schema:         metadata.Version(resp.SchemaVersion),
			PartitionTable: metadata.Version(resp.PartitionTableVersion),
		},
	}
}
