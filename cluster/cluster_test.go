package cluster

import (
	"encoding/json"
	"net"
	"testing"

	kitlog "github.com/go-kit/log"
	"github.com/hashicorp/memberlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plexusrt/plexus/metadata"
)

func newTestCluster() *Cluster {
	return &Cluster{
		conf: Config{
			NodeID:      "n1",
			NodeName:    "node-1",
			ClusterName: "alpha",
			Roles:       []Role{RoleWorker, RoleAdmin},
			ControlAddr: "10.0.0.1:9000",
			Meta:        metadata.NewStore(),
			Logger:      kitlog.NewNopLogger(),
		},
		nodes: make(map[NodeID]Node),
	}
}

func gossipNode(t *testing.T, name string, meta nodeMeta) *memberlist.Node {
	t.Helper()

	buf, err := json.Marshal(meta)
	require.NoError(t, err)

	return &memberlist.Node{
		Name: name,
		Addr: net.ParseIP("10.0.0.2"),
		Port: 7946,
		Meta: buf,
	}
}

func TestMetaDelegate_NodeMeta(t *testing.T) {
	c := newTestCluster()
	d := &metaDelegate{cluster: c}

	buf := d.NodeMeta(memberlist.MetaMaxSize)
	require.NotEmpty(t, buf)

	var meta nodeMeta
	require.NoError(t, json.Unmarshal(buf, &meta))

	assert.Equal(t, NodeID("n1"), meta.ID)
	assert.Equal(t, "node-1", meta.Name)
	assert.Equal(t, "alpha", meta.Cluster)
	assert.Equal(t, "10.0.0.1:9000", meta.ControlAddr)
	assert.Equal(t, []Role{RoleWorker, RoleAdmin}, meta.Roles)

	assert.Nil(t, d.NodeMeta(1))
}

func TestEventDelegate_JoinUpdateLeave(t *testing.T) {
	c := newTestCluster()
	d := &eventDelegate{cluster: c}

	d.NotifyJoin(gossipNode(t, "n2", nodeMeta{
		ID:          "n2",
		Name:        "node-2",
		Cluster:     "alpha",
		ControlAddr: "10.0.0.2:9000",
		Roles:       []Role{RoleLogServer},
	}))

	node, ok := c.Node("n2")
	require.True(t, ok)
	assert.Equal(t, "node-2", node.Name)
	assert.Equal(t, "10.0.0.2:9000", node.ControlAddr)
	assert.Equal(t, "10.0.0.2:7946", node.GossipAddr)
	assert.Equal(t, metadata.Version(1), c.conf.Meta.Version(metadata.NodesConfig))

	d.NotifyUpdate(gossipNode(t, "n2", nodeMeta{
		ID:          "n2",
		Name:        "node-2",
		Cluster:     "alpha",
		ControlAddr: "10.0.0.2:9100",
		Roles:       []Role{RoleLogServer},
	}))

	node, ok = c.Node("n2")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.2:9100", node.ControlAddr)
	assert.Equal(t, metadata.Version(2), c.conf.Meta.Version(metadata.NodesConfig))

	d.NotifyLeave(&memberlist.Node{Name: "n2"})

	_, ok = c.Node("n2")
	assert.False(t, ok)
	assert.Equal(t, metadata.Version(3), c.conf.Meta.Version(metadata.NodesConfig))
}

func TestEventDelegate_LeaveUnknownNodeIsNoop(t *testing.T) {
	c := newTestCluster()
	d := &eventDelegate{cluster: c}

	d.NotifyLeave(&memberlist.Node{Name: "ghost"})

	assert.Equal(t, metadata.Version(0), c.conf.Meta.Version(metadata.NodesConfig))
}

func TestEventDelegate_ForeignClusterIgnored(t *testing.T) {
	c := newTestCluster()
	d := &eventDelegate{cluster: c}

	d.NotifyJoin(gossipNode(t, "n9", nodeMeta{
		ID:      "n9",
		Name:    "node-9",
		Cluster: "beta",
	}))

	_, ok := c.Node("n9")
	assert.False(t, ok)
	assert.Equal(t, metadata.Version(0), c.conf.Meta.Version(metadata.NodesConfig))
}

func TestEventDelegate_UnreadableMetaIgnored(t *testing.T) {
	c := newTestCluster()
	d := &eventDelegate{cluster: c}

	d.NotifyJoin(&memberlist.Node{Name: "n3", Meta: []byte("{broken")})

	_, ok := c.Node("n3")
	assert.False(t, ok)
}

func TestCluster_SelfAndNodes(t *testing.T) {
	c := newTestCluster()

	self := c.Self()
	assert.Equal(t, NodeID("n1"), self.ID)
	assert.Equal(t, []Role{RoleWorker, RoleAdmin}, self.Roles)

	d := &eventDelegate{cluster: c}
	d.NotifyJoin(gossipNode(t, "n2", nodeMeta{
		ID:      "n2",
		Name:    "node-2",
		Cluster: "alpha",
	}))

	require.Len(t, c.Nodes(), 1)
	assert.Equal(t, NodeID("n2"), c.Nodes()[0].ID)
}
