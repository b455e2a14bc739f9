// Package cluster maintains the node's view of cluster membership on top
// of memberlist gossip. Membership changes advance the nodes_config
// metadata version, so identity snapshots reflect membership churn.
package cluster

import (
	"fmt"
)

// NodeID is the opaque cluster-unique identifier of a node. It is
// assigned by the operator's configuration and immutable for the
// lifetime of the node.
type NodeID string

// Role is a responsibility the node advertises to its peers.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleWorker         Role = "worker"
	RoleLogServer      Role = "log-server"
	RoleMetadataServer Role = "metadata-server"
)

// ParseRole validates a role name from configuration.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleWorker, RoleLogServer, RoleMetadataServer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Node is one cluster member as seen through gossip.
type Node struct {
	ID    NodeID `json:"id"`
	Name  string `json:"name"`
	Roles []Role `json:"roles"`

	// ControlAddr is the advertised address of the node's control-plane
	// gRPC server.
	ControlAddr string `json:"control_addr"`

	// GossipAddr is where the memberlist layer reaches the node.
	GossipAddr string `json:"gossip_addr"`
}
