package cluster

import (
	"fmt"
	"io"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/memberlist"

	"github.com/plexusrt/plexus/internal/generic"
	"github.com/plexusrt/plexus/metadata"
)

type Config struct {
	NodeID      NodeID
	NodeName    string
	ClusterName string
	Roles       []Role

	// ControlAddr is advertised to peers as the node's gRPC endpoint.
	ControlAddr string

	BindAddr string
	BindPort int

	// Meta receives the nodes_config advances caused by membership
	// changes. The cluster is the local writer authority of that counter.
	Meta   *metadata.Store
	Logger kitlog.Logger
}

// Cluster is the local membership view. Reads never block on gossip
// activity: the view is updated by the memberlist event goroutine and
// read under a short-lived lock.
type Cluster struct {
	conf Config

	mut   sync.RWMutex
	nodes map[NodeID]Node

	ml *memberlist.Memberlist
}

// New starts the gossip listener and registers the local node.
func New(conf Config) (*Cluster, error) {
	if conf.Logger == nil {
		conf.Logger = kitlog.NewNopLogger()
	}

	c := &Cluster{
		conf:  conf,
		nodes: make(map[NodeID]Node),
	}

	mlConf := memberlist.DefaultLANConfig()
	mlConf.Name = string(conf.NodeID)
	mlConf.BindAddr = conf.BindAddr
	mlConf.BindPort = conf.BindPort
	mlConf.AdvertisePort = conf.BindPort
	mlConf.LogOutput = io.Discard
	mlConf.Delegate = &metaDelegate{cluster: c}
	mlConf.Events = &eventDelegate{cluster: c}

	ml, err := memberlist.Create(mlConf)
	if err != nil {
		return nil, fmt.Errorf("create memberlist: %w", err)
	}

	c.ml = ml

	return c, nil
}

// Name returns the cluster name the node is configured with.
func (c *Cluster) Name() string {
	return c.conf.ClusterName
}

// Self returns the local node as advertised to peers.
func (c *Cluster) Self() Node {
	return Node{
		ID:          c.conf.NodeID,
		Name:        c.conf.NodeName,
		Roles:       c.conf.Roles,
		ControlAddr: c.conf.ControlAddr,
		GossipAddr:  c.gossipAddr(),
	}
}

func (c *Cluster) gossipAddr() string {
	if c.ml == nil {
		return ""
	}

	return c.ml.LocalNode().Address()
}

// Nodes returns all known cluster members, including the local node.
func (c *Cluster) Nodes() []Node {
	c.mut.RLock()
	defer c.mut.RUnlock()

	return generic.MapValues(c.nodes)
}

// Node returns the member with the given ID, if known.
func (c *Cluster) Node(id NodeID) (Node, bool) {
	c.mut.RLock()
	defer c.mut.RUnlock()

	node, ok := c.nodes[id]

	return node, ok
}

// Join contacts the given peers and merges membership with them.
func (c *Cluster) Join(addrs []string) (int, error) {
	return c.ml.Join(addrs)
}

// Leave broadcasts the local node's departure and stops gossiping.
func (c *Cluster) Leave(timeout time.Duration) error {
	if err := c.ml.Leave(timeout); err != nil {
		return fmt.Errorf("memberlist leave: %w", err)
	}

	return c.ml.Shutdown()
}

// handleJoin and friends run on the memberlist event goroutine. Every
// accepted change bumps the nodes_config version exactly once.
func (c *Cluster) handleJoin(node Node) {
	c.mut.Lock()
	c.nodes[node.ID] = node
	c.mut.Unlock()

	version := c.conf.Meta.Bump(metadata.NodesConfig)

	level.Info(c.conf.Logger).Log(
		"msg", "node joined",
		"node_id", node.ID,
		"addr", node.ControlAddr,
		"nodes_config_version", version,
	)
}

func (c *Cluster) handleUpdate(node Node) {
	c.mut.Lock()
	c.nodes[node.ID] = node
	c.mut.Unlock()

	c.conf.Meta.Bump(metadata.NodesConfig)
}

func (c *Cluster) handleLeave(id NodeID) {
	c.mut.Lock()

	if _, known := c.nodes[id]; !known {
		c.mut.Unlock()
		return
	}

	delete(c.nodes, id)
	c.mut.Unlock()

	version := c.conf.Meta.Bump(metadata.NodesConfig)

	level.Info(c.conf.Logger).Log(
		"msg", "node left",
		"node_id", id,
		"nodes_config_version", version,
	)
}
